package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrMissingChatAPIKey is returned when the caller has no upstream
	// API key configured.
	ErrMissingChatAPIKey = errors.New("chat API key not found")
)

// ChatUpstreamError reports a non-success answer from the upstream
// prediction endpoint.
type ChatUpstreamError struct {
	Status int
}

func (e *ChatUpstreamError) Error() string {
	return fmt.Sprintf("chat upstream responded with %d", e.Status)
}

// ChatMessage is one turn of the conversation being proxied.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatService proxies chat requests to an upstream prediction endpoint
// and caches full answers in a TTL-bounded LRU so repeated questions are
// replayed without another upstream round trip.
type ChatService struct {
	upstreamURL string
	httpClient  *http.Client
	cache       *expirable.LRU[string, string]
}

func NewChatService(upstreamURL string, timeout, cacheTTL time.Duration, cacheSize int) *ChatService {
	return &ChatService{
		upstreamURL: upstreamURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

// Answer resolves the full answer text for a conversation, from cache
// when possible. The second return reports a cache hit.
func (s *ChatService) Answer(ctx context.Context, apiKey string, messages []ChatMessage) (string, bool, error) {
	if apiKey == "" {
		return "", false, ErrMissingChatAPIKey
	}

	contents := make([]string, len(messages))
	for i, m := range messages {
		contents[i] = m.Content
	}

	// Cache key: caller's key plus the joined conversation contents, so
	// identical questions from different callers never share an entry.
	key := apiKey + "-" + strings.Join(contents, "-")

	if text, ok := s.cache.Get(key); ok {
		slog.Debug("chat cache hit")
		return text, true, nil
	}

	text, err := s.predict(ctx, apiKey, strings.Join(contents, " "))
	if err != nil {
		return "", false, err
	}

	s.cache.Add(key, text)
	return text, false, nil
}

// predict calls the upstream prediction endpoint with the flattened
// question and returns the answer text.
func (s *ChatService) predict(ctx context.Context, apiKey, question string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"question": question,
		"overrideConfig": map[string]any{
			"returnSourceDocuments": true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.upstreamURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat upstream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ChatUpstreamError{Status: resp.StatusCode}
	}

	var answer struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	return answer.Text, nil
}
