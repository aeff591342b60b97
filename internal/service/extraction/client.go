package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
)

// Client talks to the external extraction provider over HTTP. The provider
// is opaque: possibly slow, possibly failing. Every failure surfaces as an
// ExtractionError.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type extractRequest struct {
	DocID    string `json:"doc_id"`
	Ticker   string `json:"ticker"`
	Period   string `json:"period,omitempty"`
	DocType  string `json:"doc_type"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content"` // base64
}

type extractedField struct {
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
	Table      string  `json:"table"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
}

type extractFieldsResponse struct {
	Fields []extractedField `json:"fields"`
}

type extractedRule struct {
	RuleID           string  `json:"rule_id"`
	EffectiveDate    string  `json:"effective_date"`
	InitialMargin    float64 `json:"initial_margin"`
	Maintenance      float64 `json:"maintenance_margin"`
	Restricted       bool    `json:"restricted"`
	GuidanceTemplate string  `json:"exposure_guidance_template"`
	Page             int     `json:"page"`
	Table            string  `json:"table"`
	Row              int     `json:"row"`
	Col              int     `json:"col"`
}

type extractRulesResponse struct {
	Rules []extractedRule `json:"rules"`
}

// ExtractFields sends the document for structured field extraction.
func (c *Client) ExtractFields(ctx context.Context, doc repository.Document) ([]repository.ExtractedField, error) {
	var resp extractFieldsResponse
	if err := c.post(ctx, "/extract", doc, &resp); err != nil {
		return nil, &models.ExtractionError{DocID: doc.DocID, Err: err}
	}

	out := make([]repository.ExtractedField, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		out = append(out, repository.ExtractedField{
			Metric:     f.Metric,
			Value:      f.Value,
			Unit:       f.Unit,
			Confidence: f.Confidence,
			Provenance: models.Provenance{
				DocID: doc.DocID,
				Page:  f.Page,
				Table: f.Table,
				Row:   f.Row,
				Col:   f.Col,
			},
		})
	}
	return out, nil
}

// ExtractRules sends a compliance document for rule extraction.
func (c *Client) ExtractRules(ctx context.Context, doc repository.Document) ([]models.ComplianceRule, error) {
	var resp extractRulesResponse
	if err := c.post(ctx, "/extract_rules", doc, &resp); err != nil {
		return nil, &models.ExtractionError{DocID: doc.DocID, Err: err}
	}

	out := make([]models.ComplianceRule, 0, len(resp.Rules))
	for _, r := range resp.Rules {
		effective, err := time.Parse("2006-01-02", r.EffectiveDate)
		if err != nil {
			return nil, &models.ExtractionError{
				DocID: doc.DocID,
				Err:   fmt.Errorf("bad effective_date %q: %w", r.EffectiveDate, err),
			}
		}
		out = append(out, models.ComplianceRule{
			RuleID:        r.RuleID,
			Ticker:        doc.Ticker,
			EffectiveDate: effective,
			Margin: models.MarginRequirement{
				Initial:     r.InitialMargin,
				Maintenance: r.Maintenance,
				Restricted:  r.Restricted,
			},
			GuidanceTemplate: r.GuidanceTemplate,
			Provenance: models.Provenance{
				DocID: doc.DocID,
				Page:  r.Page,
				Table: r.Table,
				Row:   r.Row,
				Col:   r.Col,
			},
		})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, doc repository.Document, dest interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("extraction provider not configured")
	}
	req := extractRequest{
		DocID:    doc.DocID,
		Ticker:   doc.Ticker,
		Period:   doc.Period,
		DocType:  string(doc.DocType),
		Filename: doc.Filename,
		Content:  base64.StdEncoding.EncodeToString(doc.Content),
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: req,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
