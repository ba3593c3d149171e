// Package notify pushes ledger events to an external webhook so UIs can
// refresh without polling.
package notify

import (
	"bytes"
	"deedledger/server/internal/events"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Webhook delivers listed/sold notifications to a configured URL.
type Webhook struct {
	logger *logrus.Logger
	client *http.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration, logger *logrus.Logger) *Webhook {
	return &Webhook{
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// HandleEvent is a bus subscriber. Unknown event types are ignored.
func (w *Webhook) HandleEvent(event events.Event) error {
	var kind string
	switch event.(type) {
	case events.PropertyListed:
		kind = "property_listed"
	case events.PropertySold:
		kind = "property_sold"
	default:
		return nil
	}

	payload := map[string]interface{}{
		"kind":  kind,
		"event": event,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, string(body))
	}

	w.logger.WithField("kind", kind).Debug("Notification delivered")
	return nil
}
