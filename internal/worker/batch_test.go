package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"claimcheck/internal/model"
)

// stubVerifier returns canned bundles, optionally delaying per claim
type stubVerifier struct {
	mu     sync.Mutex
	calls  []string
	delays map[string]time.Duration
	panics map[string]bool
}

func (v *stubVerifier) Verify(ctx context.Context, claimText string) *model.ResultBundle {
	v.mu.Lock()
	v.calls = append(v.calls, claimText)
	v.mu.Unlock()

	if v.panics[claimText] {
		panic("verifier blew up")
	}
	if d, ok := v.delays[claimText]; ok {
		time.Sleep(d)
	}
	return &model.ResultBundle{
		Claim:   model.NewClaim(claimText),
		Verdict: model.VerdictTrue,
	}
}

func (v *stubVerifier) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.calls)
}

func TestVerifyBatch_PreservesInputOrder(t *testing.T) {
	verifier := &stubVerifier{
		delays: map[string]time.Duration{"A": 50 * time.Millisecond},
	}
	c := NewCoordinator(verifier, 3)

	bundles := c.VerifyBatch(context.Background(), []string{"A", "B", "C"}, 3)

	if len(bundles) != 3 {
		t.Fatalf("expected 3 bundles, got %d", len(bundles))
	}
	for i, want := range []string{"A", "B", "C"} {
		if bundles[i].Claim.Text != want {
			t.Errorf("index %d: expected claim %q, got %q", i, want, bundles[i].Claim.Text)
		}
	}
}

func TestVerifyBatch_PanicBecomesInsufficient(t *testing.T) {
	verifier := &stubVerifier{panics: map[string]bool{"bad": true}}
	c := NewCoordinator(verifier, 2)

	bundles := c.VerifyBatch(context.Background(), []string{"good one", "bad", "another good"}, 2)

	if bundles[1].Verdict != model.VerdictInsufficient {
		t.Errorf("panicking claim must yield insufficient, got %s", bundles[1].Verdict)
	}
	if bundles[1].Provenance.Reason != model.ReasonInternalError {
		t.Errorf("expected internal_error reason, got %s", bundles[1].Provenance.Reason)
	}
	if bundles[0].Verdict != model.VerdictTrue || bundles[2].Verdict != model.VerdictTrue {
		t.Error("sibling claims must not be affected by one claim's panic")
	}
}

func TestVerifyBatch_CancelledContextSkipsClaims(t *testing.T) {
	verifier := &stubVerifier{}
	c := NewCoordinator(verifier, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundles := c.VerifyBatch(ctx, []string{"A", "B"}, 1)

	if verifier.callCount() != 0 {
		t.Errorf("cancelled batch must not start claims, got %d calls", verifier.callCount())
	}
	for _, b := range bundles {
		if b.Provenance.Reason != model.ReasonCancelled {
			t.Errorf("expected cancelled reason, got %s", b.Provenance.Reason)
		}
	}
}

func TestVerifyBatch_DeduplicatesIdenticalClaims(t *testing.T) {
	verifier := &stubVerifier{
		delays: map[string]time.Duration{"GDP grew 5%": 100 * time.Millisecond},
	}
	c := NewCoordinator(verifier, 4)

	// Same claim modulo case and whitespace
	bundles := c.VerifyBatch(context.Background(), []string{"GDP grew 5%", "gdp  grew 5%", "GDP GREW 5%"}, 4)

	if len(bundles) != 3 {
		t.Fatalf("expected 3 bundles, got %d", len(bundles))
	}
	if verifier.callCount() != 1 {
		t.Errorf("identical in-flight claims must be verified once, got %d calls", verifier.callCount())
	}
	for i, b := range bundles {
		if b.Verdict != model.VerdictTrue {
			t.Errorf("index %d: expected shared verdict, got %s", i, b.Verdict)
		}
	}
}

func TestVerifyBatch_Empty(t *testing.T) {
	c := NewCoordinator(&stubVerifier{}, 2)
	bundles := c.VerifyBatch(context.Background(), nil, 0)
	if len(bundles) != 0 {
		t.Errorf("expected empty result, got %d", len(bundles))
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.txt")
	content := `# test claims
GDP grew 5% last quarter

Inflation is at 3%
gdp grew 5%  last QUARTER
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	claims, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("read claims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims after dedup and comment skip, got %d: %v", len(claims), claims)
	}
	if claims[0] != "GDP grew 5% last quarter" {
		t.Errorf("unexpected first claim: %q", claims[0])
	}
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	if _, err := ReadClaimsFromFile("/nonexistent/claims.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
