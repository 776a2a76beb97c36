package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/actionloop/agentcore/internal/logging"
	"github.com/actionloop/agentcore/pkg/stream"
)

// OpenAIAdapter talks to any OpenAI-compatible chat-completions endpoint
// (OpenAI itself, and providers like bigmodel/minimax that mirror the wire
// format). It is the one concrete Adapter shipped with the engine; other
// providers register under the same wire contract via NewOpenAIAdapter with
// a different BaseURL.
type OpenAIAdapter struct {
	name        string
	model       string
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	retryDelay  time.Duration
	encoding    *tiktoken.Tiktoken
}

// Config configures one OpenAIAdapter instance.
type Config struct {
	Name              string
	Model             string
	APIKey            string
	BaseURL           string
	ConnectTimeout    time.Duration
	TotalTimeout      time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

// NewOpenAIAdapter builds an adapter bound to one model/base-URL/key combo.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.TotalTimeout == 0 {
		cfg.TotalTimeout = 10 * time.Minute
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logging.Named("llm").Warn("falling back without token estimation", "error", err)
		enc = nil
	}

	return &OpenAIAdapter{
		name:    name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.TotalTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.ConnectTimeout,
			},
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBaseDelay,
		encoding:   enc,
	}
}

func (a *OpenAIAdapter) ModelName() string { return a.model }

func (a *OpenAIAdapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// wireRequest is the OpenAI chat-completions request body.
type wireRequest struct {
	Model       string          `json:"model"`
	Messages    []Message       `json:"messages"`
	Tools       []ToolSpec      `json:"tools,omitempty"`
	ToolChoice  ToolChoice      `json:"tool_choice,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
	Thinking    *wireThinking   `json:"thinking,omitempty"`
}

type wireThinking struct {
	Type string `json:"type"`
}

type wireChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage"`
	Error   *wireError   `json:"error"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type wireStreamDelta struct {
	Role             Role       `json:"role,omitempty"`
	Content          string     `json:"content,omitempty"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	ToolCalls        []wireStreamToolCall `json:"tool_calls,omitempty"`
}

type wireStreamToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function ToolCallFunc `json:"function"`
}

type wireStreamChoice struct {
	Index        int             `json:"index"`
	Delta        wireStreamDelta `json:"delta"`
	FinishReason string          `json:"finish_reason"`
}

type wireStreamChunk struct {
	ID      string             `json:"id"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []wireStreamChoice `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
}

func (a *OpenAIAdapter) buildRequest(req Request) wireRequest {
	wr := wireRequest{
		Model:       a.model,
		Messages:    req.Messages,
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	if req.DisableThinking {
		wr.Thinking = &wireThinking{Type: "disabled"}
	}
	return wr
}

// Chat implements Adapter.
func (a *OpenAIAdapter) Chat(ctx context.Context, req Request, sink stream.Sink) (Response, error) {
	wr := a.buildRequest(req)
	body, err := json.Marshal(wr)
	if err != nil {
		return Response{}, fmt.Errorf("llm: encoding request: %w", err)
	}

	if req.Stream {
		return a.streamChat(ctx, body, sink)
	}
	return a.singleChat(ctx, body)
}

func (a *OpenAIAdapter) singleChat(ctx context.Context, body []byte) (Response, error) {
	resp, err := a.doWithRetry(ctx, body)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("llm: reading response: %w", err)
	}

	var wr wireResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return Response{}, fmt.Errorf("llm: decoding response: %w", err)
	}
	if wr.Error != nil {
		return Response{}, &UpstreamError{Provider: a.name, StatusCode: resp.StatusCode, Body: wr.Error.Message}
	}
	if len(wr.Choices) == 0 {
		return Response{}, &UpstreamError{Provider: a.name, StatusCode: resp.StatusCode, Body: "no choices in response"}
	}

	choice := wr.Choices[0]
	usage := Usage{}
	if wr.Usage != nil {
		usage = Usage{PromptTokens: wr.Usage.PromptTokens, CompletionTokens: wr.Usage.CompletionTokens, TotalTokens: wr.Usage.TotalTokens}
	} else {
		usage = a.estimateUsage(choice.Message.Content)
	}

	return Response{
		ID:           wr.ID,
		Created:      wr.Created,
		Model:        wr.Model,
		Message:      choice.Message,
		FinishReason: choice.FinishReason,
		Usage:        usage,
	}, nil
}

func (a *OpenAIAdapter) streamChat(ctx context.Context, body []byte, sink stream.Sink) (Response, error) {
	resp, err := a.doWithRetry(ctx, body)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var (
		contentBuf   strings.Builder
		reasoningBuf strings.Builder
		toolCalls    = map[int]*ToolCallFunc{}
		toolCallIDs  = map[int]string{}
		toolOrder    []int
		id, model    string
		created      int64
		finishReason string
		usage        *wireUsage
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}

		line := scanner.Text()
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk wireStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if id == "" {
			id = chunk.ID
		}
		if model == "" {
			model = chunk.Model
		}
		if created == 0 {
			created = chunk.Created
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}

		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
			if choice.Delta.Content != "" {
				contentBuf.WriteString(choice.Delta.Content)
				if sink != nil {
					sink.Emit(stream.Content, choice.Delta.Content)
				}
			}
			if choice.Delta.ReasoningContent != "" {
				reasoningBuf.WriteString(choice.Delta.ReasoningContent)
				if sink != nil {
					sink.Emit(stream.Reasoning, choice.Delta.ReasoningContent)
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				existing, ok := toolCalls[tc.Index]
				if !ok {
					existing = &ToolCallFunc{}
					toolCalls[tc.Index] = existing
					toolOrder = append(toolOrder, tc.Index)
				}
				if tc.ID != "" {
					toolCallIDs[tc.Index] = tc.ID
				}
				if tc.Function.Name != "" {
					existing.Name += tc.Function.Name
				}
				existing.Arguments += tc.Function.Arguments
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("llm: reading stream: %w", err)
	}

	msg := Message{Role: RoleAssistant, Content: contentBuf.String()}
	for _, idx := range toolOrder {
		tc := toolCalls[idx]
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:       toolCallIDs[idx],
			Type:     "function",
			Function: *tc,
		})
	}

	var u Usage
	if usage != nil {
		u = Usage{PromptTokens: usage.PromptTokens, CompletionTokens: usage.CompletionTokens, TotalTokens: usage.TotalTokens}
	} else {
		u = a.estimateUsage(contentBuf.String())
	}

	return Response{
		ID:           id,
		Created:      created,
		Model:        model,
		Message:      msg,
		FinishReason: finishReason,
		Usage:        u,
	}, nil
}

func (a *OpenAIAdapter) estimateUsage(completion string) Usage {
	if a.encoding == nil {
		return Usage{Estimated: true}
	}
	tokens := a.encoding.Encode(completion, nil, nil)
	return Usage{CompletionTokens: len(tokens), TotalTokens: len(tokens), Estimated: true}
}

// doWithRetry issues the request, retrying per RetryStrategy on 429/5xx.
func (a *OpenAIAdapter) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := a.attempt(ctx, body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		strategy := classifyRetry(resp.StatusCode)
		upstreamErr := &UpstreamError{Provider: a.name, StatusCode: resp.StatusCode, Body: string(raw)}

		maxAttempts := maxAttemptsFor(strategy, a.maxRetries)
		if strategy == NoRetry || attempt >= maxAttempts {
			return nil, upstreamErr
		}

		rl := parseOpenAIRateLimitHeaders(resp.Header)
		delay := backoffDelay(strategy, attempt, a.retryDelay, rl)
		logging.Named("llm").Debug("retrying upstream call", "provider", a.name, "status", resp.StatusCode, "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (a *OpenAIAdapter) attempt(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	return a.httpClient.Do(httpReq)
}
