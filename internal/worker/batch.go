package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"claimcheck/internal/model"
)

// Verifier runs one claim to completion. Implementations never return an
// error; failures surface as insufficient bundles with reason codes.
type Verifier interface {
	Verify(ctx context.Context, claimText string) *model.ResultBundle
}

// VerifyResult is the per-claim outcome of a batch run
type VerifyResult struct {
	Bundle *model.ResultBundle
	Err    error
}

// GetError returns the error from the verify result
func (r *VerifyResult) GetError() error {
	return r.Err
}

// Coordinator runs many claims concurrently over one shared verifier.
// Identical claims submitted in the same flight are collapsed into a
// single verification via singleflight, so a batch of duplicates spends
// quota once.
type Coordinator struct {
	verifier    Verifier
	concurrency int
	flights     singleflight.Group
}

// NewCoordinator creates a batch coordinator with a default concurrency
func NewCoordinator(verifier Verifier, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Coordinator{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// VerifyBatch verifies claims concurrently, preserving input order in the
// output regardless of completion order. A concurrency of 0 uses the
// coordinator's default. One claim's fault never aborts its siblings.
func (c *Coordinator) VerifyBatch(ctx context.Context, claims []string, concurrency int) []*model.ResultBundle {
	if len(claims) == 0 {
		return []*model.ResultBundle{}
	}
	if concurrency <= 0 {
		concurrency = c.concurrency
	}

	pool := NewPool(ctx, concurrency, len(claims))
	pool.Start()

	for i, claim := range claims {
		pool.Submit(i, &verifyJob{text: claim, coordinator: c})
	}

	results := pool.Wait()
	bundles := make([]*model.ResultBundle, len(results))
	for i, result := range results {
		bundles[i] = result.(*VerifyResult).Bundle
	}
	return bundles
}

// verifyJob runs one claim through the shared verifier
type verifyJob struct {
	text        string
	coordinator *Coordinator
}

// Execute verifies the claim. A cancelled context skips the work, and a
// panic inside the pipeline is converted to an insufficient result so
// sibling claims keep running.
func (j *verifyJob) Execute(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &VerifyResult{
				Bundle: failureBundle(j.text, model.ReasonInternalError, fmt.Sprintf("panic: %v", r)),
				Err:    fmt.Errorf("claim %q: panic: %v", j.text, r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return &VerifyResult{
			Bundle: failureBundle(j.text, model.ReasonCancelled, err.Error()),
			Err:    err,
		}
	}

	key := model.NormalizeClaim(j.text)
	v, err, _ := j.coordinator.flights.Do(key, func() (any, error) {
		return j.coordinator.verifier.Verify(ctx, j.text), nil
	})
	if err != nil {
		return &VerifyResult{
			Bundle: failureBundle(j.text, model.ReasonInternalError, err.Error()),
			Err:    err,
		}
	}
	return &VerifyResult{Bundle: v.(*model.ResultBundle)}
}

// failureBundle builds a minimal insufficient bundle for claims that
// never reached the pipeline.
func failureBundle(text string, reason model.ReasonCode, detail string) *model.ResultBundle {
	return &model.ResultBundle{
		Claim:      model.NewClaim(text),
		Verdict:    model.VerdictInsufficient,
		VerifiedAt: time.Now(),
		Provenance: model.Provenance{
			Reason:        reason,
			FailureDetail: detail,
		},
	}
}

// ReadClaimsFromFile reads claims from a file, one per line. Empty lines
// and #-comments are skipped; duplicate lines are kept once.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := model.NormalizeClaim(line)
		if !seen[key] {
			seen[key] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
