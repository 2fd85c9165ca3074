package model

import "time"

// RetrievedDocument is one hit from the vector retrieval collaborator.
// Documents arrive ordered by descending similarity and are read-only.
type RetrievedDocument struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`               // Similarity score (higher is closer)
	SourceID string  `json:"source_id,omitempty"` // Identifier within the collection
}

// SearchResult is one hit from a web search provider
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// AnalysisResult is the deep-analysis output for one claim traversal
type AnalysisResult struct {
	Narrative  string `json:"narrative"`            // Evidence synthesis text
	Verdict    string `json:"verdict,omitempty"`    // Provisional verdict, free-form until extraction
	Confidence string `json:"confidence,omitempty"` // Provider-reported confidence, if any
}

// ReasonCode is a machine-readable explanation for a degraded result
type ReasonCode string

const (
	ReasonNone                 ReasonCode = ""
	ReasonClassificationFailed ReasonCode = "classification_failed"
	ReasonRetrievalFailed      ReasonCode = "retrieval_failed"
	ReasonSufficiencyFailed    ReasonCode = "sufficiency_check_failed"
	ReasonAnalysisFailed       ReasonCode = "analysis_failed"
	ReasonExtractionFailed     ReasonCode = "verdict_extraction_failed"
	ReasonVerdictCoerced       ReasonCode = "verdict_coerced"
	ReasonSearchExhausted      ReasonCode = "search_exhausted"
	ReasonInternalError        ReasonCode = "internal_error"
	ReasonCancelled            ReasonCode = "cancelled"
)

// Provenance records how a result bundle was produced: cache state, which
// backends served it, and why it degraded if it did. It never affects the
// verdict itself.
type Provenance struct {
	CacheHit       bool                     `json:"cache_hit"`
	SearchProvider string                   `json:"search_provider,omitempty"` // Set exactly once per successful search
	SearchSkipped  bool                     `json:"search_skipped,omitempty"`  // Local evidence was sufficient
	Sufficiency    *bool                    `json:"sufficiency,omitempty"`     // nil until the check runs (or is short-circuited)
	Reason         ReasonCode               `json:"reason,omitempty"`
	FailureDetail  string                   `json:"failure_detail,omitempty"`
	Notes          []string                 `json:"notes,omitempty"` // Non-fatal degradations, "<reason>: <detail>" each
	StageTimings   map[string]time.Duration `json:"stage_timings,omitempty"`
}

// ResultBundle is the complete output of verifying one claim
type ResultBundle struct {
	Claim      Claim               `json:"claim"`
	Domain     Domain              `json:"domain,omitempty"`
	Documents  []RetrievedDocument `json:"documents,omitempty"`
	Search     []SearchResult      `json:"search_results,omitempty"`
	Analysis   *AnalysisResult     `json:"analysis,omitempty"`
	Verdict    Verdict             `json:"verdict"`
	VerifiedAt time.Time           `json:"verified_at"`
	Provenance Provenance          `json:"provenance"`
}

// QuotaStatus reports one capability's counter for observability
type QuotaStatus struct {
	Capability string    `json:"capability"`
	Used       int       `json:"used"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetsAt   time.Time `json:"resets_at"`
}
