package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"cvgenius/internal/log"
)

// Sentinel errors for the upstream failure classes. Callers generally treat
// all of them as a stage failure; the distinction matters for the message
// recorded on the task and for tests.
var (
	ErrTimeout    = errors.New("generation request timed out")
	ErrAuth       = errors.New("generation API key rejected")
	ErrQuota      = errors.New("generation quota exceeded")
	ErrNetwork    = errors.New("generation service unreachable")
	ErrEmptyReply = errors.New("no candidates in generation response")
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client calls the Gemini generateContent endpoint to turn a prompt into raw
// text. It carries its own timeout ceiling; the orchestrator places none.
type Client struct {
	BaseURL string
	Model   string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	base := os.Getenv("GEMINI_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		BaseURL: base,
		Model:   model,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the raw model text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", errors.Wrap(ErrAuth, "GEMINI_API_KEY not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config: genConfig{
			Temperature:     0.3,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: 4096,
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", c.Model, c.APIKey)
	resp, err := c.doPostWithRetry(ctx, path, b)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(ErrNetwork, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, respBytes)
	}

	var out generateResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", errors.Wrap(err, "decoding generation response")
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// doPostWithRetry performs an HTTP POST to the given path with retry and
// exponential backoff. Timeouts are not retried; they already consumed the
// per-call ceiling.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err == nil {
			return resp, nil
		}
		if isTimeout(err) {
			return nil, errors.Wrap(ErrTimeout, err.Error())
		}
		lastErr = err
		log.GetLogger().Warnf("generation request attempt %d failed: %v", i+1, err)
		if i < attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, errors.Wrap(ErrNetwork, lastErr.Error())
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Wrapf(ErrAuth, "status %d", status)
	case status == http.StatusTooManyRequests:
		return errors.Wrapf(ErrQuota, "status %d", status)
	case status == http.StatusBadRequest && strings.Contains(string(body), "API_KEY_INVALID"):
		return errors.Wrap(ErrAuth, "API key not valid")
	default:
		return errors.Errorf("generation service returned status %d: %s", status, truncate(string(body), 200))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
