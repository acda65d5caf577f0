package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/pkg/retrylimit"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// Models selectable via /model.
var KnownModels = []string{
	"gemini-2.5-flash-lite",
	"gemini-2.5-flash",
	"gemini-3-pro-preview",
}

// Gemini is a Provider over the generateContent REST API.
type Gemini struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *retrylimit.AdaptiveLimiter
	retry    retrylimit.Config
	log      zerolog.Logger
}

var _ Provider = (*Gemini)(nil)

// NewGemini builds the client with a 30 second request timeout and an
// adaptive rate limiter.
func NewGemini(apiKey string, logger zerolog.Logger) *Gemini {
	log := logger.With().Str("comp", "ai").Logger()
	retry := retrylimit.DefaultConfig()
	retry.Logger = log
	return &Gemini{
		apiKey:   apiKey,
		endpoint: geminiEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retry:    retry,
		log:      log,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini: status %d: %s", e.code, e.body)
}

func (e *httpStatusError) StatusCode() int { return e.code }

// Generate sends the conversation and returns the first candidate's
// text. System messages are folded into the system instruction;
// assistant turns map onto the "model" role.
func (g *Gemini) Generate(ctx context.Context, messages []Message, opts GenOptions) (string, error) {
	req := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}

	var systemParts []string
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "assistant":
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	if len(systemParts) > 0 {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(systemParts, "\n\n")}}}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(g.endpoint, opts.Model, g.apiKey)

	var reply string
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return &retrylimit.FatalError{Err: err}
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("gemini request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			herr := &httpStatusError{code: resp.StatusCode, body: truncate(string(body), 300)}
			// Client-side mistakes won't improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return &retrylimit.FatalError{Err: herr}
			}
			return herr
		}

		var parsed geminiResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("gemini: empty response")
		}

		var sb strings.Builder
		for _, part := range parsed.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		reply = strings.TrimSpace(sb.String())
		return nil
	}

	if err := retrylimit.WithRetry(ctx, call, g.limiter, g.retry); err != nil {
		g.log.Error().Err(err).Str("model", opts.Model).Msg("generation failed")
		return "", err
	}
	return reply, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
