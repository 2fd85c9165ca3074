package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claimcheck/internal/model"
	"claimcheck/internal/quota"
)

// Stage identifies which reasoning tier a pipeline step needs. Tier
// selection is a caller decision: the router never substitutes a cheaper
// tier when the requested one is rate limited.
type Stage string

const (
	StageQuickClassify Stage = "quick_classify" // Domain tagging and sufficiency checks
	StageDeepAnalyze   Stage = "deep_analyze"   // Evidence synthesis
	StageDecision      Stage = "decision"       // Final verdict extraction
)

const routerMaxRetries = 2

// routerSleepFunc is the sleep used between retries (injectable for tests)
var routerSleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ErrDenied is returned when a stage's tier has no budget in the current
// window. Callers treat it as a stage-level failure, not a reason to retry.
var ErrDenied = errors.New("reasoning tier rate limited")

// Router maps the three pipeline stages onto configured reasoning tiers,
// enforcing each tier's per-minute budget through the shared quota ledger
// and retrying transient provider failures with exponential backoff.
type Router struct {
	provider Provider
	tiers    map[Stage]model.TierConfig
	acquirer *quota.Router
}

// capabilityFor names the ledger counter for a stage
func capabilityFor(stage Stage) string {
	return "tier:" + string(stage)
}

// NewRouter wires the three tiers into the shared ledger and limiter and
// returns a router over them.
func NewRouter(provider Provider, tiers model.TiersConfig, ledger *quota.Ledger, limiter *quota.Limiter) *Router {
	tierMap := map[Stage]model.TierConfig{
		StageQuickClassify: tiers.QuickClassify,
		StageDeepAnalyze:   tiers.DeepAnalyze,
		StageDecision:      tiers.Decision,
	}

	acquirer := quota.NewRouter(ledger, limiter)
	for stage, tier := range tierMap {
		capability := capabilityFor(stage)
		ledger.Register(capability, tier.RPM, quota.WindowMinute)
		if limiter != nil {
			limiter.SetCapabilityRate(capability, tier.RPM, tier.Burst)
		}
		acquirer.SetPreference(string(stage), []string{capability})
	}

	return &Router{
		provider: provider,
		tiers:    tierMap,
		acquirer: acquirer,
	}
}

// Invoke runs one reasoning call on the tier mapped to the stage.
// Returns ErrDenied when the tier's budget is spent, or a wrapped
// ErrTransient after retries are exhausted. The underlying reservation is
// committed only when the provider call actually succeeded.
func (r *Router) Invoke(ctx context.Context, stage Stage, prompt string) (string, error) {
	return r.InvokeWithSystem(ctx, stage, "", prompt)
}

// InvokeWithSystem is Invoke with an explicit system prompt
func (r *Router) InvokeWithSystem(ctx context.Context, stage Stage, system, prompt string) (string, error) {
	tier, ok := r.tiers[stage]
	if !ok {
		return "", fmt.Errorf("unknown stage: %s", stage)
	}

	res, err := r.acquirer.Acquire(ctx, string(stage))
	if err != nil {
		if errors.Is(err, quota.ErrExhausted) {
			return "", fmt.Errorf("stage %s: %w", stage, ErrDenied)
		}
		return "", fmt.Errorf("stage %s: %w", stage, err)
	}

	req := CompletionRequest{
		System: system,
		Prompt: prompt,
		Model:  tier.Model,
	}

	var lastErr error
	for attempt := 0; attempt <= routerMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
			if err := routerSleepFunc(ctx, backoff); err != nil {
				res.Release()
				return "", err
			}
		}

		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			res.Commit()
			return resp.Text, nil
		}

		if errors.Is(err, ErrRateLimited) {
			// The provider knows better than our ledger: mark the tier
			// spent for this window and surface the denial.
			res.Exhaust()
			return "", fmt.Errorf("stage %s: %v: %w", stage, err, ErrDenied)
		}

		lastErr = err
	}

	// Transport kept failing: return the budget so it is not wasted on
	// calls that never completed.
	res.Release()
	return "", fmt.Errorf("stage %s after %d retries: %w", stage, routerMaxRetries, lastErr)
}
