// Package spectator watches a running match over the HTTP API, judges how
// the match stands and fast-forwards one-sided endgames through the admin
// speed endpoint.
package spectator

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/conquest/internal/engine"
)

// Snapshot holds everything collected in one observation.
type Snapshot struct {
	Status  MatchStatus      `json:"status"`
	Players []engine.Summary `json:"players"`
	Events  []engine.Entry   `json:"events"`
}

// MatchStatus mirrors GET /api/v1/status.
type MatchStatus struct {
	Match  engine.Status `json:"match"`
	Speed  float64       `json:"speed"`
	Ticks  uint64        `json:"ticks"`
	Paused bool          `json:"paused"`
}

// Observer fetches match state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
	EventLimit int
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL:    baseURL,
		EventLimit: 10,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Observe fetches status, players and recent events.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/players", &snap.Players); err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}
	if err := o.fetchJSON(fmt.Sprintf("/api/v1/events?limit=%d", o.EventLimit), &snap.Events); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready() bool {
	resp, err := o.HTTPClient.Get(o.BaseURL + "/api/v1/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
