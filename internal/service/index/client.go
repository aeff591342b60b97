package index

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
)

// Client pushes enriched records to the external search/index service and
// runs queries against it. Indexing is a side channel; callers must not
// let a failure here abort signal generation.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type searchResponse struct {
	Hits []struct {
		Ticker  string  `json:"ticker"`
		Period  string  `json:"period"`
		Metric  string  `json:"metric"`
		Snippet string  `json:"snippet"`
		Score   float64 `json:"score"`
	} `json:"hits"`
}

// Index pushes records to the index service.
func (c *Client) Index(ctx context.Context, records []models.KpiRecord) error {
	if c.baseURL == "" || len(records) == 0 {
		return nil
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/index",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: map[string]interface{}{"records": records},
	}, nil)
	if err != nil {
		return fmt.Errorf("index records: %w", err)
	}
	return nil
}

// Search runs a ranked query against the index.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]repository.SearchHit, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("index service not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	var resp searchResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/search",
		QueryParams: map[string][]string{
			"q":     {query},
			"limit": {strconv.Itoa(limit)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]repository.SearchHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		out = append(out, repository.SearchHit{
			Ticker:  h.Ticker,
			Period:  h.Period,
			Metric:  h.Metric,
			Snippet: h.Snippet,
			Score:   h.Score,
		})
	}
	return out, nil
}
