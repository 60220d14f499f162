package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/reagentlabs/reagent"
)

// DefaultSearchEndpoint is the SerpApi-compatible search endpoint.
const DefaultSearchEndpoint = "https://serpapi.com/search.json"

// Search queries a SerpApi-compatible Google search endpoint and distills the
// response into plain text for the model: a direct answer when the engine
// provides one, otherwise the top organic result snippets.
type Search struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewSearch creates the search tool with the given API key.
func NewSearch(apiKey string) *Search {
	return &Search{
		apiKey:   apiKey,
		endpoint: DefaultSearchEndpoint,
		client:   http.DefaultClient,
	}
}

// NewSearchFromEnv creates the search tool with the key from
// SERPAPI_API_KEY. The tool still registers without a key; runs report the
// missing configuration as an observation.
func NewSearchFromEnv() *Search {
	return NewSearch(os.Getenv("SERPAPI_API_KEY"))
}

// WithEndpoint overrides the search endpoint. Tests point this at a local
// server.
func (s *Search) WithEndpoint(endpoint string) *Search {
	s.endpoint = endpoint
	return s
}

// WithHTTPClient overrides the HTTP client.
func (s *Search) WithHTTPClient(client *http.Client) *Search {
	s.client = client
	return s
}

func (s *Search) Name() string { return "search" }

func (s *Search) Description() string {
	return "Searches the web and returns a direct answer when available, otherwise top result snippets."
}

func (s *Search) Parameters() []reagent.Parameter {
	return []reagent.Parameter{
		{
			Name:        "query",
			Type:        reagent.ParamString,
			Description: "The search query",
			Required:    true,
		},
	}
}

// searchResponse is the subset of the SerpApi payload the tool reads.
type searchResponse struct {
	AnswerBoxList []string `json:"answer_box_list"`
	AnswerBox     struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	KnowledgeGraph struct {
		Description string `json:"description"`
	} `json:"knowledge_graph"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// Run performs the search. Configuration and network failures come back as
// observation text.
func (s *Search) Run(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "Error: search query cannot be empty", nil
	}
	if s.apiKey == "" {
		return "Error: search is not configured; set the SERPAPI_API_KEY environment variable.", nil
	}

	resp, err := s.fetch(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error while searching: %v", err), nil
	}
	if resp.Error != "" {
		return fmt.Sprintf("Error while searching: %s", resp.Error), nil
	}
	return distill(query, resp), nil
}

func (s *Search) fetch(ctx context.Context, query string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", httpResp.StatusCode)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}
	return &resp, nil
}

// distill picks the most direct answer available: answer box first, then the
// knowledge graph description, then the top three organic snippets.
func distill(query string, resp *searchResponse) string {
	if len(resp.AnswerBoxList) > 0 {
		return strings.Join(resp.AnswerBoxList, "\n")
	}
	if resp.AnswerBox.Answer != "" {
		return resp.AnswerBox.Answer
	}
	if resp.AnswerBox.Snippet != "" {
		return resp.AnswerBox.Snippet
	}
	if resp.KnowledgeGraph.Description != "" {
		return resp.KnowledgeGraph.Description
	}
	if len(resp.OrganicResults) > 0 {
		n := len(resp.OrganicResults)
		if n > 3 {
			n = 3
		}
		snippets := make([]string, 0, n)
		for i, r := range resp.OrganicResults[:n] {
			snippets = append(snippets, fmt.Sprintf("[%d] %s\n%s", i+1, r.Title, r.Snippet))
		}
		return strings.Join(snippets, "\n\n")
	}
	return fmt.Sprintf("Sorry, didn't find any information about %q. Try again with a shorter query.", query)
}

// Compile-time check that Search implements reagent.Tool.
var _ reagent.Tool = (*Search)(nil)
