// Package searchindex talks to the external full-text index over HTTP.
// The index ranks identifiers; everything displayable comes from the
// relational store.
package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openparl/hansard/internal/domain"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

type searchResponse struct {
	Description string      `json:"description"`
	Spelling    string      `json:"spelling_correction"`
	Total       int         `json:"total"`
	Terms       []string    `json:"terms"`
	Hits        []searchHit `json:"hits"`
}

type searchHit struct {
	Gid           string  `json:"gid"`
	Relevance     float64 `json:"relevance"`
	CollapseGroup int     `json:"collapse_group"`
}

// Search runs one ranked query. The returned page carries a highlighter
// bound to the terms the index actually matched, spelling correction
// included.
func (c *Client) Search(ctx context.Context, query string, offset, limit int, order string) (*domain.SearchPage, error) {
	params := url.Values{
		"q":      {query},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
		"order":  {order},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query search index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search index returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	terms := body.Terms
	if len(terms) == 0 {
		terms = fallbackTerms(query)
	}

	page := &domain.SearchPage{
		Description: body.Description,
		Spelling:    body.Spelling,
		Total:       body.Total,
		Hits:        make([]domain.SearchHit, 0, len(body.Hits)),
		Highlighter: newTermHighlighter(terms),
	}
	for _, h := range body.Hits {
		page.Hits = append(page.Hits, domain.SearchHit{
			Gid:           h.Gid,
			Relevance:     h.Relevance,
			CollapseGroup: h.CollapseGroup,
		})
	}
	return page, nil
}

// fallbackTerms derives highlight terms from the raw query when the index
// response omits them. Operators and exclusions are dropped.
func fallbackTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, `"`)
		if word == "" || strings.HasPrefix(word, "-") || strings.Contains(word, ":") {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}
