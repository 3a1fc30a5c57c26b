package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
)

// AIClient calls the external completion provider. The provider is a plain
// GET API: prompt and apikey go in the query string, and the answer comes
// back under one of two alternate JSON paths depending on provider version.
type AIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// ErrNoAnswer means the provider responded but neither answer path was present
var ErrNoAnswer = errors.New("provider response contained no answer")

// fallbackReplies is the fixed set of canned assistant replies used whenever
// the provider errors, times out, or returns an empty answer.
var fallbackReplies = []string{
	"I'm having a little trouble reaching my brain right now — mind trying that again in a moment?",
	"Hmm, I couldn't think of a good answer just now. Feel free to ask me something else!",
	"My AI service seems to be napping. In the meantime, check out the projects and articles on this site!",
	"Sorry, I didn't quite get that one. Could you rephrase it?",
}

// NewAIClient creates a completion client. The HTTP client carries no timeout
// of its own; every call is bounded by the caller's context budget.
func NewAIClient(endpoint, apiKey string) *AIClient {
	return &AIClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// completionResponse covers both response shapes the provider may return:
// older deployments answer at .answer, newer ones at .data.output.
type completionResponse struct {
	Answer string `json:"answer"`
	Data   struct {
		Output string `json:"output"`
	} `json:"data"`
}

// Complete performs a single completion call. It is never retried: on
// timeout the request is abandoned and the caller substitutes a fallback.
func (c *AIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", errors.New("AI endpoint not configured")
	}

	params := url.Values{}
	params.Set("prompt", prompt)
	params.Set("apikey", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build provider request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode provider response: %w", err)
	}

	if result.Answer != "" {
		return result.Answer, nil
	}
	if result.Data.Output != "" {
		return result.Data.Output, nil
	}

	return "", ErrNoAnswer
}

// FallbackReply picks one canned reply from the fixed set
func FallbackReply() string {
	return fallbackReplies[rand.Intn(len(fallbackReplies))]
}

// IsFallbackReply reports whether text is one of the canned replies
func IsFallbackReply(text string) bool {
	for _, reply := range fallbackReplies {
		if reply == text {
			return true
		}
	}
	return false
}
