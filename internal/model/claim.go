package model

import "strings"

// Claim represents a short natural-language statement to be verified.
// The normalized form is used for caching and deduplication so that
// trivially different spellings of the same claim share one result.
type Claim struct {
	Text string `json:"text"`          // The claim exactly as supplied
	Key  string `json:"key,omitempty"` // Normalized form (case/whitespace folded)
}

// NewClaim creates a claim with its normalized key precomputed.
func NewClaim(text string) Claim {
	return Claim{
		Text: text,
		Key:  NormalizeClaim(text),
	}
}

// NormalizeClaim folds case and collapses runs of whitespace.
func NormalizeClaim(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Domain categorizes a claim and selects the retrieval collection to query
type Domain string

const (
	DomainPolitics  Domain = "politics"
	DomainEconomics Domain = "economics"
	DomainHealth    Domain = "health"
	DomainUnknown   Domain = "unknown"
)

// ParseDomain maps free-text classifier output onto the closed domain set.
// Anything outside the known set becomes DomainUnknown.
func ParseDomain(s string) Domain {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainPolitics:
		return DomainPolitics
	case DomainEconomics:
		return DomainEconomics
	case DomainHealth:
		return DomainHealth
	default:
		return DomainUnknown
	}
}

// Verdict is the terminal classification for a claim
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictFalse        Verdict = "false"
	VerdictInsufficient Verdict = "insufficient"
)

// ParseVerdict coerces free-text model output into the closed verdict set.
// The second return value reports whether the input was already a valid
// verdict, so callers can record coercion in provenance.
func ParseVerdict(s string) (Verdict, bool) {
	switch Verdict(strings.ToLower(strings.TrimSpace(s))) {
	case VerdictTrue:
		return VerdictTrue, true
	case VerdictFalse:
		return VerdictFalse, true
	case VerdictInsufficient:
		return VerdictInsufficient, true
	default:
		return VerdictInsufficient, false
	}
}
