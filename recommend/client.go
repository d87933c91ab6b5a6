package recommend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Nishanth456/FinAdvisor/api"
	"github.com/Nishanth456/FinAdvisor/transport"
)

// ErrNoRecommendation means no snapshot exists yet; the caller should offer
// to generate one.
var ErrNoRecommendation = errors.New("no recommendation generated yet")

// Client reads and regenerates recommendation snapshots over the
// authenticated transport.
type Client struct {
	http *transport.Client
}

func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

// Snapshot fetches the most recent stored recommendation.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	req, err := transport.NewJSONRequest(http.MethodGet, api.RecommendationsPath, nil)
	if err != nil {
		return nil, err
	}
	var envelope api.RecommendationEnvelope
	if err := c.http.DoJSON(ctx, req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, ErrNoRecommendation
	}

	rec, err := Normalize(envelope.Data)
	if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{Recommendation: *rec}
	if envelope.CreatedAt != "" {
		// SQLite timestamps come back without a timezone.
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
			if t, perr := time.Parse(layout, envelope.CreatedAt); perr == nil {
				snapshot.CreatedAt = t
				break
			}
		}
	}
	return snapshot, nil
}

// Generate asks the backend to compute a fresh recommendation and returns it
// normalized.
func (c *Client) Generate(ctx context.Context) (*Recommendation, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, api.GeneratePath, nil)
	if err != nil {
		return nil, err
	}
	var envelope api.RecommendationEnvelope
	if err := c.http.DoJSON(ctx, req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, errors.New("recommendation generation did not succeed")
	}
	return Normalize(envelope.Data)
}
