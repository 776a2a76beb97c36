package httpinvoke

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

func TestInvokeGetBuildsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/users/42", r.URL.Path)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	def := &toolkit.ToolDefinition{
		Name: "get_user",
		Kind: toolkit.HTTP,
		HTTPRoute: &toolkit.HTTPRoute{
			Method:       "GET",
			PathTemplate: "/users/{id}",
		},
	}
	rc := &toolkit.RequestContext{BaseURL: srv.URL}

	out, err := New(nil).Invoke(context.Background(), def, `{"id":42,"verbose":true}`, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Contains(t, gotQuery, "verbose=true")
}

func TestInvokePostSingleBodyBindingUnwraps(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	def := &toolkit.ToolDefinition{
		Name: "create_user",
		Kind: toolkit.HTTP,
		HTTPRoute: &toolkit.HTTPRoute{
			Method:       "POST",
			PathTemplate: "/users",
		},
		Bindings: []toolkit.ParamBinding{
			{Name: "payload", Position: 0, Source: toolkit.SourceBody},
		},
	}
	rc := &toolkit.RequestContext{BaseURL: srv.URL}

	out, err := New(nil).Invoke(context.Background(), def, `{"payload":{"name":"Ada"}}`, rc, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, gotBody)
	assert.Equal(t, `{"id":"abc"}`, out)
}

func TestInvokeMissingPathPlaceholderFails(t *testing.T) {
	def := &toolkit.ToolDefinition{
		Name: "get_user",
		Kind: toolkit.HTTP,
		HTTPRoute: &toolkit.HTTPRoute{
			Method:       "GET",
			PathTemplate: "/users/{id}",
		},
	}

	_, err := New(nil).Invoke(context.Background(), def, `{}`, nil, nil)
	require.Error(t, err)
	var invalidArgs *toolkit.InvalidArgumentsError
	require.ErrorAs(t, err, &invalidArgs)
	assert.Equal(t, "id", invalidArgs.Field)
}

func TestInvokeNon2xxProducesStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"user not found"}`))
	}))
	defer srv.Close()

	def := &toolkit.ToolDefinition{
		Name: "get_user",
		Kind: toolkit.HTTP,
		HTTPRoute: &toolkit.HTTPRoute{
			Method:       "GET",
			PathTemplate: "/users/{id}",
		},
	}
	rc := &toolkit.RequestContext{BaseURL: srv.URL}

	out, err := New(nil).Invoke(context.Background(), def, `{"id":1}`, rc, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":true,"status":404,"message":"user not found","tool":"get_user"}`, out)
}

func TestInvokePropagatesCookiesAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-Id"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	def := &toolkit.ToolDefinition{
		Name: "ping",
		Kind: toolkit.HTTP,
		HTTPRoute: &toolkit.HTTPRoute{
			Method:       "GET",
			PathTemplate: "/ping",
		},
	}
	rc := &toolkit.RequestContext{
		BaseURL: srv.URL,
		Cookies: []*toolkit.CookiePair{{Name: "session", Value: "abc"}},
		Headers: map[string][]string{"X-Trace-Id": {"trace-1"}},
	}

	out, err := New(nil).Invoke(context.Background(), def, `{}`, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
