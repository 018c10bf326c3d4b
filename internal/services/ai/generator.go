package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
)

const (
	serviceName   = "openai"
	systemMessage = "You are an AI that generates product descriptions for e-commerce."

	promptTemplate = `Generate a product description, tags, and category for a product titled '%s'.
Provide the output in the following structured format:
1. Description: [Insert product description here]
2. Tags: [Insert comma-separated tags here]
3. Category: [Insert category here]`
)

// Settings configures the chat-completions client.
type Settings struct {
	APIKey           string
	BaseURL          string
	Model            string
	MaxTokens        int
	MaxAttempts      int
	RateLimitBackoff time.Duration
	Timeout          time.Duration
}

type Generator struct {
	settings   Settings
	httpClient *http.Client
	logger     *logger.Logger
}

// OpenAI API structures
type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func New(settings Settings, logger *logger.Logger) *Generator {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.openai.com/v1"
	}
	settings.BaseURL = strings.TrimSuffix(settings.BaseURL, "/")
	if settings.Model == "" {
		settings.Model = "gpt-3.5-turbo"
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = 300
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 3
	}
	if settings.RateLimitBackoff <= 0 {
		settings.RateLimitBackoff = 20 * time.Second
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	return &Generator{
		settings:   settings,
		httpClient: &http.Client{Timeout: settings.Timeout},
		logger:     logger.WithField("component", "openai"),
	}
}

// Prompt returns the structured-content prompt for a product title.
func Prompt(productTitle string) string {
	return fmt.Sprintf(promptTemplate, productTitle)
}

// Generate asks the model for description, tags and category of a product.
// A 429 answer is retried after the rate-limit backoff until MaxAttempts is
// reached, then ErrRateLimited is returned. Any other failure aborts at once.
func (g *Generator) Generate(ctx context.Context, productTitle string) (string, error) {
	prompt := Prompt(productTitle)

	for attempt := 1; ; attempt++ {
		text, err := g.callOpenAI(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text), nil
		}

		var upstream *apperror.UpstreamError
		if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusTooManyRequests {
			g.logger.Error("Error generating content for '%s': %v", productTitle, err)
			return "", err
		}

		if attempt >= g.settings.MaxAttempts {
			g.logger.Error("Rate limit still exceeded for '%s' after %d attempts.", productTitle, attempt)
			return "", fmt.Errorf("%w: %v", apperror.ErrRateLimited, err)
		}

		g.logger.Warn("Rate limit exceeded. Retrying in %s... (attempt %d/%d)", g.settings.RateLimitBackoff, attempt, g.settings.MaxAttempts)
		if err := wait(ctx, g.settings.RateLimitBackoff); err != nil {
			return "", err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *Generator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	if g.settings.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	request := chatRequest{
		Model:     g.settings.Model,
		MaxTokens: g.settings.MaxTokens,
		Messages: []Message{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.settings.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.settings.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apperror.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return out.Choices[0].Message.Content, nil
}
