// Package summary generates the weekly narrative from register entries using
// an OpenAI-compatible chat completions endpoint.
package summary

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

	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/register"
)

const defaultBaseURL = "https://api.openai.com/v1"

// EmptyWeekSummary is returned without calling the model when the current
// week has no entries.
const EmptyWeekSummary = "No governance entries recorded for this week yet."

// Client calls a chat completions API.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	httpClient *http.Client
}

// NewClient initializes the summary client. The API key falls back to the
// OPENAI_API_KEY environment variable; model and base URL fall back to the
// defaults.
func NewClient(apiKey, baseURL, model string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = config.DefaultSummaryModel
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// promptEntry is the trimmed view of an entry the model sees.
type promptEntry struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// Summarize produces the weekly summary. An empty entry set short-circuits
// to EmptyWeekSummary with no remote call.
func (c *Client) Summarize(ctx context.Context, entries []register.Entry) (string, error) {
	if len(entries) == 0 {
		return EmptyWeekSummary, nil
	}

	prompt, err := BuildPrompt(entries)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful governance analyst that creates concise weekly summaries."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status from model endpoint: %d: %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("model endpoint error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "Unable to generate summary.", nil
	}
	return out.Choices[0].Message.Content, nil
}

// BuildPrompt renders the analyst prompt for a set of entries.
func BuildPrompt(entries []register.Entry) (string, error) {
	views := make([]promptEntry, 0, len(entries))
	for _, e := range entries {
		v := promptEntry{
			Type:        string(e.Type),
			Title:       e.Title,
			Description: e.Description,
		}
		switch d := e.Detail.(type) {
		case register.DecisionDetail:
			v.Status = d.Status
		case register.DatasetDetail:
			v.Status = d.Status
		case register.FinancialDetail:
			v.Status = d.Status
		case register.RiskDetail:
			v.Status = d.Severity
		}
		views = append(views, v)
	}

	formatted, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format entries: %w", err)
	}

	return fmt.Sprintf(`You are a governance analyst. Provide a concise weekly summary of the following governance entries:

%s

Summarize:
1. Key decisions made
2. Major risks identified
3. Important datasets tracked
4. Financial items

Keep the summary professional, concise, and actionable. Use bullet points.`, formatted), nil
}
