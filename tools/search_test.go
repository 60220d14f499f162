package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchPrefersAnswerBox(t *testing.T) {
	srv := searchServer(t, `{
		"answer_box": {"answer": "76 years"},
		"knowledge_graph": {"description": "Leonhard Euler was a mathematician"},
		"organic_results": [{"title": "Euler", "snippet": "a mathematician"}]
	}`)
	s := NewSearch("test-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "How old was Euler?"})
	require.NoError(t, err)
	assert.Equal(t, "76 years", out)
}

func TestSearchAnswerBoxList(t *testing.T) {
	srv := searchServer(t, `{"answer_box_list": ["first", "second"]}`)
	s := NewSearch("test-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", out)
}

func TestSearchFallsBackToKnowledgeGraph(t *testing.T) {
	srv := searchServer(t, `{
		"knowledge_graph": {"description": "Leonhard Euler was a mathematician"},
		"organic_results": [{"title": "Euler", "snippet": "a mathematician"}]
	}`)
	s := NewSearch("test-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "Euler"})
	require.NoError(t, err)
	assert.Equal(t, "Leonhard Euler was a mathematician", out)
}

func TestSearchFallsBackToTopThreeOrganic(t *testing.T) {
	srv := searchServer(t, `{"organic_results": [
		{"title": "one", "snippet": "s1"},
		{"title": "two", "snippet": "s2"},
		{"title": "three", "snippet": "s3"},
		{"title": "four", "snippet": "s4"}
	]}`)
	s := NewSearch("test-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Contains(t, out, "[1] one\ns1")
	assert.Contains(t, out, "[3] three\ns3")
	assert.NotContains(t, out, "four")
}

func TestSearchNoResults(t *testing.T) {
	srv := searchServer(t, `{}`)
	s := NewSearch("test-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "gibberish"})
	require.NoError(t, err)
	assert.Contains(t, out, "didn't find any information")
}

func TestSearchMissingKeyIsObservation(t *testing.T) {
	s := NewSearch("")
	out, err := s.Run(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Contains(t, out, "SERPAPI_API_KEY")
}

func TestSearchEmptyQueryIsObservation(t *testing.T) {
	s := NewSearch("test-key")
	out, err := s.Run(context.Background(), map[string]any{"query": "  "})
	require.NoError(t, err)
	assert.Equal(t, "Error: search query cannot be empty", out)
}

func TestSearchEndpointErrorIsObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	s := NewSearch("test-key").WithEndpoint(srv.URL)
	out, err := s.Run(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Contains(t, out, "Error while searching")
	assert.Contains(t, out, "429")
}

func TestSearchAPIErrorFieldIsObservation(t *testing.T) {
	srv := searchServer(t, `{"error": "Invalid API key"}`)
	s := NewSearch("bad-key").WithEndpoint(srv.URL)

	out, err := s.Run(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, "Error while searching: Invalid API key", out)
}
