package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"cpn-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport answers every request with one canned response and records what was sent.
type fakeTransport struct {
	status   int
	body     string
	requests []recordedRequest
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newTestIndex(t *testing.T, status int, body string) (*ScoreIndex, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{status: status, body: body}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.local:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return NewScoreIndex(client, "cpn-scores"), transport
}

func TestScoreIndex_Index(t *testing.T) {
	index, transport := newTestIndex(t, http.StatusCreated, `{"result":"created"}`)

	err := index.Index(context.Background(), &models.CpnScore{
		UserID:         "user-1",
		TeamID:         "team-a",
		Score:          76,
		CategoryScores: models.CategoryScores{CostEfficiency: 40, TimeManagement: 100, SuccessRate: 100},
		UpdatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/cpn-scores/_doc/user-1", req.Path)

	var doc scoreDocument
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "team-a", doc.TeamID)
	assert.Equal(t, 76.0, doc.Score)
	assert.Equal(t, "2024-03-01T12:00:00Z", doc.UpdatedAt)
}

func TestScoreIndex_IndexError(t *testing.T) {
	index, _ := newTestIndex(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)

	err := index.Index(context.Background(), &models.CpnScore{UserID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestScoreIndex_PeerScores(t *testing.T) {
	index, transport := newTestIndex(t, http.StatusOK, `{
		"hits": {"hits": [
			{"_source": {"score": 12.5}},
			{"_source": {"score": 88}}
		]}
	}`)

	got, err := index.PeerScores(context.Background(), "user-1", "team-a")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 88}, got)

	require.Len(t, transport.requests, 1)
	assert.Equal(t, "/cpn-scores/_search", transport.requests[0].Path)
	assert.Contains(t, transport.requests[0].Body, `"must_not":[{"term":{"user_id":"user-1"}}]`)
	assert.Contains(t, transport.requests[0].Body, `"filter":[{"term":{"team_id":"team-a"}}]`)
}

func TestScoreIndex_PeerScoresMissingIndex(t *testing.T) {
	index, _ := newTestIndex(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)

	got, err := index.PeerScores(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildPeerQuery_WithoutTeam(t *testing.T) {
	q := buildPeerQuery("user-1", "")
	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})

	assert.NotContains(t, boolQuery, "filter")
	assert.Contains(t, boolQuery, "must_not")
}
