package models

// Requests and responses for the pipeline HTTP endpoints. Defined in domain
// for consistency and reuse.

type IngestRequest struct {
	Ticker   string `form:"ticker" json:"ticker" validate:"required"`
	Period   string `form:"period" json:"period"`
	DocType  string `form:"doc_type" json:"doc_type" validate:"required,oneof=earnings compliance filing press_release"`
	Filename string `form:"filename" json:"filename"`

	// EffectiveDate applies to compliance documents whose rules carry no
	// date of their own. RFC3339 or unix seconds.
	EffectiveDate string `form:"effective_date" json:"effective_date"`

	// Content carries the document body on JSON uploads; multipart uploads
	// use the "file" part instead.
	Content []byte `json:"content"`
}

type IngestResponse struct {
	DocID   string        `json:"doc_id"`
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Signal  *SignalRecord `json:"signal,omitempty"`
}

type SignalRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Period string `query:"period" json:"period"`
}

type SearchRequest struct {
	Query string `query:"q" json:"q" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type SubscribeRequest struct {
	UserID   string    `json:"user_id" validate:"required"`
	Ticker   string    `json:"ticker" validate:"required"`
	Channels []Channel `json:"channels" validate:"required,min=1,dive,oneof=stream chat email"`
}

type UnsubscribeRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
}

type SubscriptionListRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
}
