// Package emitter delivers assembled OpenLineage event batches to a
// Correlator (or any OpenLineage-compatible) backend in a single HTTP
// POST. Delivery is fire-and-forget: there is no retry, and callers
// treat failures as warnings so lineage never blocks dbt execution.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/correlator-io/dbt-correlator/internal/openlineage"
)

// DefaultTimeout bounds the single delivery request.
const DefaultTimeout = 30 * time.Second

// Config holds emitter settings.
type Config struct {
	// Endpoint is the OpenLineage events URL.
	Endpoint string
	// APIKey, when set, is sent as the X-API-Key header.
	APIKey string
	// Timeout for the POST; DefaultTimeout when zero.
	Timeout time.Duration
}

// Emitter posts event batches to one endpoint.
type Emitter struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	logger   *slog.Logger
}

// batchResponse is the 207 partial-success body returned by Correlator.
type batchResponse struct {
	Summary struct {
		Received   int `json:"received"`
		Successful int `json:"successful"`
	} `json:"summary"`
	FailedEvents []string `json:"failed_events"`
}

// New creates an Emitter.
func New(cfg Config, logger *slog.Logger) *Emitter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", fmt.Sprintf("dbt-correlator/%s", openlineage.Version))
	client.SetHeader("Content-Type", "application/json")

	return &Emitter{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		logger:   logger,
	}
}

// Client exposes the underlying HTTP client, for transport stubbing in
// tests.
func (e *Emitter) Client() *resty.Client {
	return e.client
}

// Emit sends all events as one JSON array. A 200 is success; a 207 is
// partial success and only logged; anything else is an error. No retry.
func (e *Emitter) Emit(ctx context.Context, events []openlineage.RunEvent) error {
	if len(events) == 0 {
		e.logger.Debug("no events to emit")
		return nil
	}

	req := e.client.R().SetContext(ctx).SetBody(events)
	if e.apiKey != "" {
		req.SetHeader("X-API-Key", e.apiKey)
	}

	var partial batchResponse
	req.SetResult(&partial)

	resp, err := req.Post(e.endpoint)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", e.endpoint, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		e.logger.Info("emitted events", "count", len(events), "endpoint", e.endpoint)
		return nil
	case http.StatusMultiStatus:
		e.logger.Warn("partial success emitting events",
			"successful", partial.Summary.Successful,
			"received", partial.Summary.Received,
			"failed_events", partial.FailedEvents)
		return nil
	default:
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode(), resp.String())
	}
}
