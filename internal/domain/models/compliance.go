package models

import "time"

// MarginRequirement is the margin block of a compliance rule.
type MarginRequirement struct {
	Initial     float64 `json:"initial"`
	Maintenance float64 `json:"maintenance"`
	Restricted  bool    `json:"restricted"`
}

// ComplianceRule restricts trading for a ticker from its effective date.
// Multiple rules may exist per ticker; only the one with the latest
// effective_date <= now is active. Future-dated rules are inert.
type ComplianceRule struct {
	RuleID           string            `json:"rule_id"`
	Ticker           string            `json:"ticker"`
	EffectiveDate    time.Time         `json:"effective_date"`
	Margin           MarginRequirement `json:"margin_requirement"`
	GuidanceTemplate string            `json:"exposure_guidance_template"`
	Provenance       Provenance        `json:"provenance"`

	// Seq is assigned by the rule store on ingestion and breaks
	// effective-date ties (most recently ingested wins).
	Seq uint64 `json:"-"`
}
