package pipeline

import (
	"fmt"
	"time"

	"claimcheck/internal/model"
)

// Stage is one state of the per-claim verification machine. The set is
// closed and transitions are checked against an explicit table, so an
// impossible hop is an internal error rather than silent misbehavior.
type Stage int

const (
	StageStart Stage = iota
	StageCacheLookup
	StageClassify
	StageRetrieveLocal
	StageCheckSufficiency
	StageWebSearch
	StageAnalyze
	StageExtractVerdict
	StageDone
)

var stageNames = map[Stage]string{
	StageStart:            "start",
	StageCacheLookup:      "cache_lookup",
	StageClassify:         "classify",
	StageRetrieveLocal:    "retrieve_local",
	StageCheckSufficiency: "check_sufficiency",
	StageWebSearch:        "web_search",
	StageAnalyze:          "analyze",
	StageExtractVerdict:   "extract_verdict",
	StageDone:             "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// transitions is the exhaustive table of legal moves. Every stage can
// additionally short-circuit to done on failure; that edge is implicit.
var transitions = map[Stage][]Stage{
	StageStart:            {StageCacheLookup},
	StageCacheLookup:      {StageClassify, StageDone},
	StageClassify:         {StageRetrieveLocal, StageDone},
	StageRetrieveLocal:    {StageCheckSufficiency, StageDone},
	StageCheckSufficiency: {StageWebSearch, StageAnalyze, StageDone},
	StageWebSearch:        {StageAnalyze, StageDone},
	StageAnalyze:          {StageExtractVerdict, StageDone},
	StageExtractVerdict:   {StageDone},
	StageDone:             {},
}

func validTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// run is the live pipeline state for one claim traversal. It is owned by
// exactly one Verify call and never shared.
type run struct {
	claim       model.Claim
	domain      model.Domain
	documents   []model.RetrievedDocument
	sufficiency *bool
	search      []model.SearchResult
	analysis    *model.AnalysisResult
	provenance  model.Provenance

	stage     Stage
	enteredAt time.Time
	now       func() time.Time
}

func newRun(claim model.Claim, now func() time.Time) *run {
	return &run{
		claim: claim,
		stage: StageStart,
		now:   now,
		provenance: model.Provenance{
			StageTimings: make(map[string]time.Duration),
		},
	}
}

// enter moves the run to the next stage, closing out the previous stage's
// timing. An illegal transition is reported, not performed.
func (r *run) enter(next Stage) error {
	if !validTransition(r.stage, next) {
		return fmt.Errorf("illegal transition %s -> %s", r.stage, next)
	}
	if r.stage != StageStart {
		r.provenance.StageTimings[r.stage.String()] += r.now().Sub(r.enteredAt)
	}
	r.stage = next
	r.enteredAt = r.now()
	return nil
}

// bundle seals the run into an immutable result. Calling it moves the run
// to done; the run must not be touched afterwards.
func (r *run) bundle(verdict model.Verdict) *model.ResultBundle {
	if r.stage != StageDone {
		// Failure paths jump here from any stage
		r.provenance.StageTimings[r.stage.String()] += r.now().Sub(r.enteredAt)
		r.stage = StageDone
	}
	return &model.ResultBundle{
		Claim:      r.claim,
		Domain:     r.domain,
		Documents:  r.documents,
		Search:     r.search,
		Analysis:   r.analysis,
		Verdict:    verdict,
		VerifiedAt: r.now(),
		Provenance: r.provenance,
	}
}

// note records a non-fatal degradation in provenance. The run continues;
// the verdict is unaffected.
func (r *run) note(reason model.ReasonCode, detail string) {
	r.provenance.Notes = append(r.provenance.Notes, string(reason)+": "+detail)
}

// fail seals the run as insufficient with a machine-readable reason.
// Partial work (documents, analysis) stays in the bundle for diagnostics.
func (r *run) fail(reason model.ReasonCode, detail string) *model.ResultBundle {
	r.provenance.Reason = reason
	r.provenance.FailureDetail = detail
	return r.bundle(model.VerdictInsufficient)
}
