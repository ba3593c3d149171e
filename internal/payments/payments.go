// Package payments abstracts the external value-transfer collaborator the
// escrow engine signals after a purchase commits.
package payments

import (
	"bytes"
	"deedledger/server/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Transferor moves value between two participants. Implementations report
// the outcome of the transfer; they must never mutate ledger state.
type Transferor interface {
	Transfer(from, to models.Identity, amount int64) error
}

// HTTPTransferor signals a remote settlement endpoint over HTTP.
type HTTPTransferor struct {
	logger   *logrus.Logger
	client   *http.Client
	endpoint string
}

type transferRequest struct {
	From   models.Identity `json:"from"`
	To     models.Identity `json:"to"`
	Amount int64           `json:"amount"`
}

// NewHTTPTransferor creates a transferor that POSTs transfer requests to
// the given endpoint.
func NewHTTPTransferor(endpoint string, timeout time.Duration, logger *logrus.Logger) *HTTPTransferor {
	return &HTTPTransferor{
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
	}
}

// Transfer posts the transfer request and treats any non-2xx response as
// a failed settlement.
func (t *HTTPTransferor) Transfer(from, to models.Identity, amount int64) error {
	if t.endpoint == "" {
		return errors.New("settlement endpoint is not configured")
	}

	payload := transferRequest{
		From:   from,
		To:     to,
		Amount: amount,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer payload: %w", err)
	}

	resp, err := t.client.Post(t.endpoint, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to reach settlement endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("settlement endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	t.logger.WithFields(logrus.Fields{
		"from":   from,
		"to":     to,
		"amount": amount,
	}).Debug("Value transfer accepted")

	return nil
}

// LogTransferor records transfers in the log and always succeeds. Used
// when no settlement endpoint is configured, e.g. in development.
type LogTransferor struct {
	logger *logrus.Logger
}

func NewLogTransferor(logger *logrus.Logger) *LogTransferor {
	return &LogTransferor{logger: logger}
}

func (t *LogTransferor) Transfer(from, to models.Identity, amount int64) error {
	t.logger.WithFields(logrus.Fields{
		"from":   from,
		"to":     to,
		"amount": amount,
	}).Info("Value transfer (log only, no settlement endpoint configured)")
	return nil
}
