package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cpn-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// maxPeerHits bounds a single peer search; larger populations are sampled by ES order.
const maxPeerHits = 10000

// ScoreIndex mirrors each user's current score into Elasticsearch, one document
// per user, and serves peer populations from it.
type ScoreIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewScoreIndex(client *elasticsearch.Client, index string) *ScoreIndex {
	return &ScoreIndex{client: client, index: index}
}

type scoreDocument struct {
	UserID         string  `json:"user_id"`
	TeamID         string  `json:"team_id,omitempty"`
	Score          float64 `json:"score"`
	CostEfficiency float64 `json:"cost_efficiency"`
	TimeManagement float64 `json:"time_management"`
	SuccessRate    float64 `json:"success_rate"`
	PeerPercentile int     `json:"peer_percentile"`
	UpdatedAt      string  `json:"updated_at"`
}

// Index overwrites the user's document.
func (s *ScoreIndex) Index(ctx context.Context, score *models.CpnScore) error {
	doc := scoreDocument{
		UserID:         score.UserID,
		TeamID:         score.TeamID,
		Score:          score.Score,
		CostEfficiency: score.CategoryScores.CostEfficiency,
		TimeManagement: score.CategoryScores.TimeManagement,
		SuccessRate:    score.CategoryScores.SuccessRate,
		PeerPercentile: score.PeerPercentile,
		UpdatedAt:      score.UpdatedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode score document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(score.UserID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index score: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index score: %s: %s", res.Status(), readBody(res.Body))
	}
	return nil
}

// PeerScores searches every other user's score, optionally within one team.
func (s *ScoreIndex) PeerScores(ctx context.Context, userID, teamID string) ([]float64, error) {
	query := buildPeerQuery(userID, teamID)
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode peer query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithSize(maxPeerHits),
	)
	if err != nil {
		return nil, fmt.Errorf("search peer scores: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return []float64{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("search peer scores: %s: %s", res.Status(), readBody(res.Body))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Score float64 `json:"score"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode peer scores: %w", err)
	}

	scores := make([]float64, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		scores = append(scores, hit.Source.Score)
	}
	return scores, nil
}

func buildPeerQuery(userID, teamID string) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must_not": []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"user_id": userID}},
		},
	}
	if teamID != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"team_id": teamID}},
		}
	}
	return map[string]interface{}{
		"_source": []string{"score"},
		"query":   map[string]interface{}{"bool": boolQuery},
	}
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
