package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultGA4Endpoint is the Measurement Protocol collection URL.
const DefaultGA4Endpoint = "https://www.google-analytics.com/mp/collect"

// GA4Sink posts events to Google Analytics 4 in the background.
type GA4Sink struct {
	endpoint string
	client   *http.Client
	wg       sync.WaitGroup
}

// NewGA4Sink builds a sink for a measurement id and API secret.
// endpoint may be empty to use DefaultGA4Endpoint.
func NewGA4Sink(endpoint, measurementID, apiSecret string) (*GA4Sink, error) {
	if measurementID == "" || apiSecret == "" {
		return nil, fmt.Errorf("GA4 requires GA_MEASUREMENT_ID and GA_API_SECRET")
	}
	if endpoint == "" {
		endpoint = DefaultGA4Endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("GA4 endpoint: %w", err)
	}
	q := u.Query()
	q.Set("measurement_id", measurementID)
	q.Set("api_secret", apiSecret)
	u.RawQuery = q.Encode()
	return &GA4Sink{endpoint: u.String(), client: &http.Client{Timeout: 5 * time.Second}}, nil
}

type mpPayload struct {
	ClientID string    `json:"client_id"`
	Events   []mpEvent `json:"events"`
}

type mpEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// Track sends e without waiting. Failures are logged and dropped; the
// request is detached from ctx so it outlives the HTTP handler.
func (s *GA4Sink) Track(_ context.Context, e Event) {
	body, err := json.Marshal(mpPayload{
		ClientID: e.ClientID,
		Events: []mpEvent{{
			Name: EventName(e.Action),
			Params: map[string]any{
				"event_category":  e.Category,
				"event_label":     e.Label,
				"value":           e.Value,
				"non_interaction": e.NonInteraction,
			},
		}},
	})
	if err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("analytics encode failed")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			log.Debug().Err(err).Str("action", e.Action).Msg("analytics send failed")
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Debug().Int("status", resp.StatusCode).Str("action", e.Action).Msg("analytics rejected")
		}
	}()
}

// Flush waits for in-flight sends.
func (s *GA4Sink) Flush() { s.wg.Wait() }

// EventName maps an action to a GA4 event name: lowercase letters,
// digits and underscores, at most 40 characters.
func EventName(action string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(action) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() == 40 {
			break
		}
	}
	return b.String()
}
