// Package httpinvoke implements the HTTP tool invoker (C6): it executes a
// tool whose definition is a REST endpoint on another service, building the
// URL, headers and body from the tool's argument object and translating
// non-2xx responses into a structured observation.
package httpinvoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

var pathPlaceholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// defaultBaseURL is used when the ambient RequestContext carries none.
const defaultBaseURL = "http://localhost:8080"

// Invoker implements toolkit.Invoker for toolkit.HTTP tools.
type Invoker struct {
	client *http.Client
}

// New returns an HTTP invoker using client, or a default 30s-timeout client
// if client is nil.
func New(client *http.Client) *Invoker {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Invoker{client: client}
}

// Invoke implements toolkit.Invoker.
func (iv *Invoker) Invoke(ctx context.Context, def *toolkit.ToolDefinition, argumentsJSON string, rc *toolkit.RequestContext, _ stream.Sink) (string, error) {
	if def.HTTPRoute == nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("no HTTP route registered")}
	}
	route := def.HTTPRoute

	args := map[string]any{}
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return "", &toolkit.InvalidArgumentsError{Tool: def.Name, Message: "arguments is not a JSON object", Err: err}
		}
	}

	resolvedPath, err := substitutePathPlaceholders(route.PathTemplate, args, def.Name)
	if err != nil {
		return "", err
	}

	target, err := resolveURL(resolvedPath, rc)
	if err != nil {
		return "", &toolkit.InvalidArgumentsError{Tool: def.Name, Message: "resolving URL", Err: err}
	}

	method := strings.ToUpper(route.Method)
	var body io.Reader
	var contentType string

	if method == http.MethodGet || method == http.MethodDelete {
		q := target.Query()
		for k, v := range args {
			q.Set(k, fmt.Sprint(v))
		}
		target.RawQuery = q.Encode()
	} else {
		q := target.Query()
		for _, b := range def.Bindings {
			if v, ok := args[b.Name]; ok && b.Source == toolkit.SourceQuery {
				q.Set(b.Name, fmt.Sprint(v))
				delete(args, b.Name)
			}
		}
		target.RawQuery = q.Encode()
		bodyBytes, ct, berr := buildBody(def, args, route)
		if berr != nil {
			return "", berr
		}
		if len(bodyBytes) > 0 {
			body = strings.NewReader(string(bodyBytes))
			contentType = ct
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: err}
	}
	applyHeaders(httpReq, rc, route, contentType)

	resp, err := iv.client.Do(httpReq)
	if err != nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return string(raw), nil
	}
	return structuredError(def.Name, resp.StatusCode, raw), nil
}

// substitutePathPlaceholders replaces every {name} in template with the
// matching argument's text form, removing it from args. Numeric/boolean
// values use their canonical text form; anything else is JSON-encoded. An
// unresolved placeholder fails InvalidArguments.
func substitutePathPlaceholders(template string, args map[string]any, tool string) (string, error) {
	var missing string
	result := pathPlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		name := pathPlaceholder.FindStringSubmatch(match)[1]
		v, ok := args[name]
		if !ok {
			missing = name
			return match
		}
		delete(args, name)
		return placeholderText(v)
	})
	if missing != "" {
		return "", &toolkit.InvalidArgumentsError{Tool: tool, Field: missing, Message: "path placeholder not resolved"}
	}
	return result, nil
}

func placeholderText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func resolveURL(resolvedPath string, rc *toolkit.RequestContext) (*url.URL, error) {
	if strings.HasPrefix(resolvedPath, "http://") || strings.HasPrefix(resolvedPath, "https://") {
		return url.Parse(resolvedPath)
	}
	base := defaultBaseURL
	if rc != nil && rc.BaseURL != "" {
		base = rc.BaseURL
	}
	return url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(resolvedPath, "/"))
}

// buildBody builds the request body: a single BODY binding's value is used
// directly; otherwise the remaining non-path/non-query args form a JSON
// object. An empty object is treated as no body.
func buildBody(def *toolkit.ToolDefinition, args map[string]any, route *toolkit.HTTPRoute) ([]byte, string, error) {
	var bodyBindings []toolkit.ParamBinding
	for _, b := range def.Bindings {
		if b.Source == toolkit.SourceBody {
			bodyBindings = append(bodyBindings, b)
		}
	}

	contentType := route.Consumes
	if contentType == "" {
		contentType = "application/json"
	}

	if len(bodyBindings) == 1 {
		v, ok := args[bodyBindings[0].Name]
		if !ok {
			return nil, contentType, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", &toolkit.InvalidArgumentsError{Tool: def.Name, Field: bodyBindings[0].Name, Message: "encoding body", Err: err}
		}
		return b, contentType, nil
	}

	nonPathNonQuery := map[string]any{}
	for k, v := range args {
		nonPathNonQuery[k] = v
	}
	if len(nonPathNonQuery) == 0 {
		return nil, contentType, nil
	}
	b, err := json.Marshal(nonPathNonQuery)
	if err != nil {
		return nil, "", &toolkit.InvalidArgumentsError{Tool: def.Name, Message: "encoding body", Err: err}
	}
	if string(b) == "{}" {
		return nil, contentType, nil
	}
	return b, contentType, nil
}

// applyHeaders propagates caller headers (except Content-Type, Accept,
// Content-Length), reconstructs Cookie from rc.Cookies, and sets
// Accept/Content-Type from the route's produces/consumes.
func applyHeaders(req *http.Request, rc *toolkit.RequestContext, route *toolkit.HTTPRoute, contentType string) {
	if rc != nil {
		for k, vals := range rc.Headers {
			lower := strings.ToLower(k)
			if lower == "content-type" || lower == "accept" || lower == "content-length" || lower == "cookie" {
				continue
			}
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
		if len(rc.Cookies) > 0 {
			parts := make([]string, 0, len(rc.Cookies))
			for _, c := range rc.Cookies {
				parts = append(parts, c.Name+"="+c.Value)
			}
			req.Header.Set("Cookie", strings.Join(parts, "; "))
		}
	}

	accept := route.Produces
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	if contentType != "" && (req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch) {
		req.Header.Set("Content-Type", contentType)
	}
}

// statusMessages is the friendly-message lookup table for structuredError.
var statusMessages = map[int]string{
	400: "The request was invalid.",
	401: "Authentication is required.",
	403: "Access to this resource is forbidden.",
	404: "The requested resource was not found.",
	405: "That operation is not allowed.",
	408: "The request timed out.",
	409: "The request conflicts with the current state.",
	422: "The request could not be processed.",
	429: "Too many requests; please slow down.",
	500: "The service encountered an internal error.",
	502: "The upstream service returned an invalid response.",
	503: "The service is temporarily unavailable.",
	504: "The upstream service timed out.",
}

// structuredError builds the {"error":true,...} observation for a non-2xx
// response.
func structuredError(tool string, status int, raw []byte) string {
	message, ok := statusMessages[status]
	if !ok {
		message = fmt.Sprintf("Request failed with status %d.", status)
	}
	if extracted := extractMessage(raw); extracted != "" {
		message = extracted
	}

	out, _ := json.Marshal(map[string]any{
		"error":   true,
		"status":  status,
		"message": message,
		"tool":    tool,
	})
	return string(out)
}

// extractMessage best-effort pulls message/error/msg out of a JSON body,
// falling back to a 100-character preview of the raw body.
func extractMessage(raw []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		for _, key := range []string{"message", "error", "msg"} {
			if v, ok := parsed[key]; ok {
				if s, ok := v.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	preview := strings.TrimSpace(string(raw))
	if preview == "" {
		return ""
	}
	if len(preview) > 100 {
		return preview[:100]
	}
	return preview
}
