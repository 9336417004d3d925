package people

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// extractionPrompt instructs the model to return a raw JSON list of named
// individuals with gender, role and an uncertainty marker.
const extractionPrompt = `You are an information extraction assistant specialized in veterinary team pages. Given plain text from a clinic's team page, extract a structured list of all named individuals with the following fields:

- Name (as written)
- Gender: Female or Male (inferred from first name and context)
- Role: "Doctor" or "Non-Doctor"
- Uncertain: true or false (true if gender or role was unclear and best judgment was applied)

Rules:
1. Include all explicitly named individuals (veterinarians, assistants, interns, students, receptionists, admin, finance, support).
2. Do not include unnamed people or hallucinate names.
3. Use typical gender association + any context; if unclear, infer best guess but set Uncertain: true.
4. Roles:
   - Doctor: veterinarians, specialists, interns/residents, emergency vets, behaviorists, physiotherapists, or clinical staff
   - Non-Doctor: assistants, apprentices, technicians, students, admin, reception, finance, or non-clinical staff
5. Do not duplicate individuals.
6. Respond with a raw JSON list only, no commentary or explanation.`

// ClientConfig configures the extraction endpoint.
type ClientConfig struct {
	// BaseURL of an OpenAI-compatible API. Defaults to the OpenAI API.
	BaseURL string
	// APIKey sent as a bearer token; empty means no Authorization header.
	APIKey string
	// Model name. Defaults to gpt-4o.
	Model string
	// Timeout per HTTP request.
	Timeout time.Duration
	// MaxRetries bounds attempts per extraction.
	MaxRetries int
	// RetryDelay is the base of the linear backoff between attempts.
	RetryDelay time.Duration

	Logger *slog.Logger
}

func (c *ClientConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls a chat-completions endpoint to extract people from team text.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient builds a Client; zero config fields get defaults.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractPeople sends the combined team text to the model and parses the
// reply. Transport errors and retryable statuses are retried with linear
// backoff; an unparseable reply surfaces as a ParseError.
func (c *Client) ExtractPeople(ctx context.Context, text string) ([]Person, error) {
	raw, err := c.complete(ctx, text)
	if err != nil {
		return nil, err
	}
	return ParsePeople(raw)
}

func (c *Client) complete(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("people: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		reply, retryable, err := c.once(ctx, payload)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable || attempt == c.cfg.MaxRetries {
			break
		}
		wait := time.Duration(attempt) * c.cfg.RetryDelay
		c.cfg.Logger.Warn("people: extraction attempt failed", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("people: extraction failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// once performs one API call. The second return reports whether the failure
// is worth retrying.
func (c *Client) once(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("people: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("people: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", true, fmt.Errorf("people: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("people: api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("people: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("people: empty choices in response")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
