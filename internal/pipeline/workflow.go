package pipeline

import (
	"context"
	"errors"
	"time"

	"claimcheck/internal/cache"
	"claimcheck/internal/llm"
	"claimcheck/internal/model"
	"claimcheck/internal/retrieval"
	"claimcheck/internal/search"
)

// ModelInvoker is the reasoning surface the engine depends on
type ModelInvoker interface {
	InvokeWithSystem(ctx context.Context, stage llm.Stage, system, prompt string) (string, error)
}

// Searcher is the web search surface the engine depends on
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

// Engine drives one claim through the verification state machine. It is
// safe for concurrent use: all per-claim state lives in the run, and the
// shared collaborators guard themselves.
type Engine struct {
	models   ModelInvoker
	searcher Searcher
	store    retrieval.Store
	results  *cache.ResultStore
	topK     int
	now      func() time.Time
}

// NewEngine creates a workflow engine over its collaborators. The results
// cache may be nil, which disables caching.
func NewEngine(models ModelInvoker, searcher Searcher, store retrieval.Store, results *cache.ResultStore, topK int) *Engine {
	if store == nil {
		store = retrieval.NoopStore{}
	}
	return &Engine{
		models:   models,
		searcher: searcher,
		store:    store,
		results:  results,
		topK:     topK,
		now:      time.Now,
	}
}

// Verify runs one claim to completion and always returns a bundle: every
// failure collapses to an insufficient verdict with a reason code in
// provenance rather than an error.
func (e *Engine) Verify(ctx context.Context, claimText string) *model.ResultBundle {
	claim := model.NewClaim(claimText)
	r := newRun(claim, e.now)

	if err := r.enter(StageCacheLookup); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	if cached, ok := e.results.Get(claimText); ok {
		cached.Provenance.CacheHit = true
		return cached
	}

	// Classification is required: a wrong domain would query the wrong
	// collection, so there is no silent default.
	if err := r.enter(StageClassify); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	domainText, err := e.models.InvokeWithSystem(ctx, llm.StageQuickClassify, classifySystem, classifyPrompt(claim))
	if err != nil {
		return e.seal(r.fail(reasonFor(err, model.ReasonClassificationFailed), err.Error()))
	}
	r.domain = model.ParseDomain(domainText)

	if err := r.enter(StageRetrieveLocal); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	// Retrieval is best-effort: an unavailable collaborator degrades to an
	// empty document set, which forces the search path.
	docs, err := e.store.Query(ctx, r.domain, claim.Text, e.topK)
	if err != nil {
		r.note(model.ReasonRetrievalFailed, err.Error())
	} else {
		r.documents = docs
	}

	if err := r.enter(StageCheckSufficiency); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	sufficient := false
	if len(r.documents) > 0 {
		// With zero documents sufficiency is forced false without spending
		// a model call; here we have evidence to actually judge. A failed
		// check degrades to insufficient, taking the search path.
		answer, err := e.models.InvokeWithSystem(ctx, llm.StageQuickClassify, sufficiencySystem, sufficiencyPrompt(claim, r.documents))
		if err != nil {
			r.note(model.ReasonSufficiencyFailed, err.Error())
		} else {
			sufficient = parseSufficiency(answer)
		}
	}
	r.sufficiency = &sufficient
	r.provenance.Sufficiency = &sufficient

	if sufficient {
		r.provenance.SearchSkipped = true
	} else {
		if err := r.enter(StageWebSearch); err != nil {
			return r.fail(model.ReasonInternalError, err.Error())
		}
		resp, err := e.searcher.Search(ctx, claim.Text)
		if err != nil {
			if len(r.documents) == 0 {
				// No evidence at all: analysis would be guesswork
				return e.seal(r.fail(model.ReasonSearchExhausted, err.Error()))
			}
			r.provenance.Reason = model.ReasonSearchExhausted
			r.provenance.FailureDetail = err.Error()
		} else {
			r.search = resp.Results
			r.provenance.SearchProvider = resp.Provider
		}
	}

	if err := r.enter(StageAnalyze); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	narrative, err := e.models.InvokeWithSystem(ctx, llm.StageDeepAnalyze, analyzeSystem, analyzePrompt(claim, r.documents, r.search))
	if err != nil {
		return e.seal(r.fail(reasonFor(err, model.ReasonAnalysisFailed), err.Error()))
	}
	r.analysis = &model.AnalysisResult{Narrative: narrative}

	if err := r.enter(StageExtractVerdict); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	verdictText, err := e.models.InvokeWithSystem(ctx, llm.StageDecision, verdictSystem, verdictPrompt(claim, r.analysis))
	if err != nil {
		return e.seal(r.fail(reasonFor(err, model.ReasonExtractionFailed), err.Error()))
	}
	verdict, valid := model.ParseVerdict(verdictText)
	if !valid {
		r.provenance.Reason = model.ReasonVerdictCoerced
		r.provenance.FailureDetail = verdictText
	}
	r.analysis.Verdict = string(verdict)

	if err := r.enter(StageDone); err != nil {
		return r.fail(model.ReasonInternalError, err.Error())
	}
	return e.seal(r.bundle(verdict))
}

// seal caches a freshly computed bundle before handing it back
func (e *Engine) seal(bundle *model.ResultBundle) *model.ResultBundle {
	e.results.Put(bundle)
	return bundle
}

// reasonFor maps an error to its reason code, letting cancellation win
// over the stage-specific reason.
func reasonFor(err error, fallback model.ReasonCode) model.ReasonCode {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.ReasonCancelled
	}
	return fallback
}
