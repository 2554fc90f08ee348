package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// WebhookPayload is the JSON body posted for each event.
type WebhookPayload struct {
	Event          string `json:"event"`
	Operation      string `json:"operation"`
	Field          string `json:"field"`
	Timestamp      string `json:"timestamp"`
	IdempotencyKey string `json:"idempotency_key"`
}

// DispatchResult holds the outcome of a single webhook HTTP call.
type DispatchResult struct {
	StatusCode   int
	ResponseBody string
	Error        string
}

// WebhookNotifier posts each event to a URL from a background goroutine.
// Every event is attempted once; failures are logged and dropped.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewWebhookNotifier(url string, headers map[string]string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:     url,
		headers: ResolveHeaders(headers),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (n *WebhookNotifier) Notify(_ context.Context, event Event) {
	payload := WebhookPayload{
		Event:          event.Name,
		Operation:      event.Operation,
		Field:          event.Field,
		Timestamp:      event.Timestamp.Format(time.RFC3339),
		IdempotencyKey: "evt_" + event.ID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal webhook payload for event %s: %v", event.ID, err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// The request context is gone by the time this runs.
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		result := n.dispatch(ctx, body)
		if result.Error != "" {
			log.Printf("ERROR: webhook for event %s: %s", event.ID, result.Error)
			return
		}
		if result.StatusCode < 200 || result.StatusCode >= 300 {
			log.Printf("ERROR: webhook for event %s returned HTTP %d: %s", event.ID, result.StatusCode, result.ResponseBody)
		}
	}()
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func (n *WebhookNotifier) dispatch(ctx context.Context, body []byte) *DispatchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return &DispatchResult{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return &DispatchResult{Error: fmt.Sprintf("http call: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024)) // max 64KB
	return &DispatchResult{
		StatusCode:   resp.StatusCode,
		ResponseBody: string(respBody),
	}
}

// ResolveHeaders replaces {{env.VAR_NAME}} in header values with os env values.
func ResolveHeaders(headers map[string]string) map[string]string {
	resolved := make(map[string]string, len(headers))
	for k, v := range headers {
		resolved[k] = resolveEnvVars(v)
	}
	return resolved
}

func resolveEnvVars(s string) string {
	for {
		start := strings.Index(s, "{{env.")
		if start == -1 {
			return s
		}
		end := strings.Index(s[start:], "}}")
		if end == -1 {
			return s
		}
		end += start
		varName := s[start+6 : end]
		s = s[:start] + os.Getenv(varName) + s[end+2:]
	}
}
