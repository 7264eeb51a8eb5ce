// Package notify delivers workflow events to Slack. Delivery is
// fire-and-forget: a failed notification is logged and never blocks the
// transition that triggered it. A noop implementation is returned when no
// webhook is configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Service is the notification surface exposed to workflow code.
type Service interface {
	NotifyCharactersSent(ctx context.Context, bookTitle string, sendCount int) error
	NotifySketchesSent(ctx context.Context, bookTitle string, sendCount int) error
	NotifyFeedbackReceived(ctx context.Context, bookTitle, entityName string) error
	NotifyReviewSubmitted(ctx context.Context, bookTitle string) error
	NotifyBatchFinished(ctx context.Context, bookTitle string, completed, failed int, cancelled bool) error
}

// NewService builds a Slack-backed service, or a noop when the webhook URL
// is empty.
func NewService(webhookURL string) Service {
	url := strings.TrimSpace(webhookURL)
	if url == "" {
		return noopService{}
	}
	return &slackService{
		webhookURL: url,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackService struct {
	webhookURL string
	client     *http.Client
}

func (s *slackService) NotifyCharactersSent(ctx context.Context, bookTitle string, sendCount int) error {
	return s.post(ctx, fmt.Sprintf("Character designs for %q sent to customer (round %d)", bookTitle, sendCount))
}

func (s *slackService) NotifySketchesSent(ctx context.Context, bookTitle string, sendCount int) error {
	return s.post(ctx, fmt.Sprintf("Sketches for %q sent to customer (round %d)", bookTitle, sendCount))
}

func (s *slackService) NotifyFeedbackReceived(ctx context.Context, bookTitle, entityName string) error {
	return s.post(ctx, fmt.Sprintf("New customer feedback on %s in %q", entityName, bookTitle))
}

func (s *slackService) NotifyReviewSubmitted(ctx context.Context, bookTitle string) error {
	return s.post(ctx, fmt.Sprintf("Customer submitted a review for %q", bookTitle))
}

func (s *slackService) NotifyBatchFinished(ctx context.Context, bookTitle string, completed, failed int, cancelled bool) error {
	msg := fmt.Sprintf("Batch generation for %q finished: %d completed, %d failed", bookTitle, completed, failed)
	if cancelled {
		msg += " (cancelled)"
	}
	return s.post(ctx, msg)
}

func (s *slackService) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Fire sends a notification in the background, logging failures. Callers use
// this so delivery can never fail the primary action.
func Fire(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("notification failed: %v", err)
		}
	}()
}

type noopService struct{}

func (noopService) NotifyCharactersSent(context.Context, string, int) error { return nil }
func (noopService) NotifySketchesSent(context.Context, string, int) error   { return nil }
func (noopService) NotifyFeedbackReceived(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyReviewSubmitted(context.Context, string) error { return nil }
func (noopService) NotifyBatchFinished(context.Context, string, int, int, bool) error {
	return nil
}
