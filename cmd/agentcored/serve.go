package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/actionloop/agentcore/internal/config"
	"github.com/actionloop/agentcore/internal/metrics"
	"github.com/actionloop/agentcore/internal/tracing"
	"github.com/actionloop/agentcore/pkg/builtin"
	"github.com/actionloop/agentcore/pkg/llm"
	"github.com/actionloop/agentcore/pkg/react"
	"github.com/actionloop/agentcore/pkg/session"
	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/task"
	"github.com/actionloop/agentcore/pkg/toolkit"
	"github.com/actionloop/agentcore/pkg/toolkit/browser"
	"github.com/actionloop/agentcore/pkg/toolkit/httpinvoke"
	"github.com/actionloop/agentcore/pkg/toolkit/localinvoke"
)

// ServeCmd starts the demo HTTP server: a chat endpoint, a browser-result
// ingress endpoint, a websocket duplex channel for browser clients, and a
// Prometheus /metrics endpoint.
type ServeCmd struct {
	Port int `help:"Port to listen on." default:"8080"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var met *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		met = metrics.New()
	}
	if _, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:      cfg.Observability.Tracing.Enabled,
		ExporterType: cfg.Observability.Tracing.Exporter,
		EndpointURL:  cfg.Observability.Tracing.Endpoint,
		SamplingRate: cfg.Observability.Tracing.SamplingRate,
		ServiceName:  cfg.Observability.Tracing.ServiceName,
	}); err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	trc := tracing.New("agentcore.react")

	adapter, err := llm.New(llm.ProviderConfig{
		Adapter:               cfg.Model.Adapter,
		Model:                 cfg.Model.Model,
		APIKey:                cfg.Model.APIKey,
		BaseURL:               cfg.Model.BaseURL,
		MaxRetries:            cfg.Model.MaxRetries,
		RetryDelaySeconds:     cfg.Model.RetryDelaySeconds,
		ConnectTimeoutSeconds: cfg.Model.ConnectTimeoutSeconds,
		TotalTimeoutSeconds:   cfg.Model.TotalTimeoutSeconds,
	})
	if err != nil {
		return fmt.Errorf("building LLM adapter: %w", err)
	}
	defer adapter.Close()

	registry := toolkit.NewRegistry()
	builtin.Register(registry, time.Now())

	hub := newSocketHub()
	browserTimeout := time.Duration(cfg.FrontendTool.TimeoutMs) * time.Millisecond
	browserMgr := browser.NewManager(browserTimeout, hub.push)

	sessions := session.NewStore()
	tasks := task.NewManager()
	go runSessionEvictor(ctx, sessions, time.Duration(cfg.Session.IdleTimeoutMs)*time.Millisecond)

	engine := react.New(
		registry,
		sessions,
		tasks,
		adapter,
		localinvoke.New(),
		httpinvoke.New(nil),
		browserMgr,
		cfg.React,
	)
	engine.Metrics = met
	engine.Tracer = trc

	srv := newHTTPServer(engine, browserMgr, tasks, met, hub, c.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("agentcored listening on :%d\n", c.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runSessionEvictor periodically sweeps the session store for sessions idle
// longer than idleTimeout, freeing their history. It checks on a fifth of
// the idle timeout so a session is evicted shortly after it goes stale,
// and stops as soon as ctx is cancelled.
func runSessionEvictor(ctx context.Context, sessions *session.Store, idleTimeout time.Duration) {
	interval := idleTimeout / 5
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.EvictIdle(idleTimeout)
		}
	}
}

func newHTTPServer(engine *react.Engine, browserMgr *browser.Manager, tasks *task.Manager, met *metrics.Metrics, hub *socketHub, port int) *http.Server {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", met.Handler())
	r.Post("/chat", chatHandler(engine))
	r.Post("/sessions/{sessionID}/cancel", cancelHandler(tasks))
	r.Post("/browser/result", browserResultHandler(browserMgr))
	r.Get("/ws/{sessionID}", websocketHandler(browserMgr, hub))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

// chatRequest is the wire shape of a turn request against /chat.
type chatRequest struct {
	SessionID          string          `json:"sessionId"`
	Model              string          `json:"model"`
	Messages           []llm.Message   `json:"messages"`
	FrontendTools      []llm.ToolSpec  `json:"frontendTools"`
	EnvironmentContext string          `json:"environmentContext"`
}

// chatSegment is one NDJSON line of the streamed response.
type chatSegment struct {
	Type  string `json:"type"`
	Chunk string `json:"chunk"`
}

func chatHandler(engine *react.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.SessionID == "" {
			http.Error(w, "sessionId is required", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)

		enc := json.NewEncoder(w)
		sink := stream.Func(func(t stream.Type, chunk string) {
			_ = enc.Encode(chatSegment{Type: string(t), Chunk: chunk})
			if flusher != nil {
				flusher.Flush()
			}
		})

		err := engine.Run(r.Context(), react.TurnRequest{
			SessionID:          req.SessionID,
			Model:               req.Model,
			NewMessages:         req.Messages,
			FrontendTools:       req.FrontendTools,
			EnvironmentContext:  req.EnvironmentContext,
		}, sink)
		if err != nil {
			_ = enc.Encode(chatSegment{Type: string(stream.Error), Chunk: err.Error()})
		}
	}
}

func cancelHandler(tasks *task.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if ok := tasks.Cancel(sessionID); !ok {
			http.Error(w, "no turn in progress for this session", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// browserResultRequest is what a browser client posts back after executing
// a FRONTEND_TOOL_CALL.
type browserResultRequest struct {
	CallID  string `json:"callId"`
	Result  string `json:"result"`
	IsError bool   `json:"isError"`
}

func browserResultHandler(mgr *browser.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req browserResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		mgr.Complete(req.CallID, req.Result, req.IsError)
		w.WriteHeader(http.StatusAccepted)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocketHandler upgrades a browser client's connection and registers it
// with the hub as the delivery channel for that session's outbound
// FRONTEND_TOOL_CALL envelopes, reading inbound tool results off the same
// connection and routing them to the browser manager.
func websocketHandler(mgr *browser.Manager, hub *socketHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hub.attach(sessionID, conn)
		defer hub.detach(sessionID)

		for {
			var result browserResultRequest
			if err := conn.ReadJSON(&result); err != nil {
				mgr.CancelSession(sessionID)
				return
			}
			mgr.Complete(result.CallID, result.Result, result.IsError)
		}
	}
}
