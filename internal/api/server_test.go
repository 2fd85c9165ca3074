package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"claimcheck/internal/llm"
	"claimcheck/internal/model"
	"claimcheck/internal/quota"
	"claimcheck/internal/worker"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, claimText string) *model.ResultBundle {
	return &model.ResultBundle{
		Claim:   model.NewClaim(claimText),
		Verdict: model.VerdictTrue,
	}
}

func newTestRouter() (*gin.Engine, *quota.Ledger) {
	gin.SetMode(gin.TestMode)

	ledger := quota.NewLedger()
	ledger.Register("tavily", 1000, quota.WindowMonth)

	verifier := stubVerifier{}
	server := NewServer(verifier, worker.NewCoordinator(verifier, 2), ledger, nil)
	return server.NewRouter(), ledger
}

// stubProvider implements llm.Provider with a fixed availability
type stubProvider struct {
	available bool
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) IsAvailable(ctx context.Context) bool { return p.available }

func (p stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Text: "ok"}, nil
}

func TestHandleVerify(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"claim":"GDP grew 5%"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var bundle model.ResultBundle
	if err := json.Unmarshal(w.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bundle.Verdict != model.VerdictTrue {
		t.Errorf("expected verdict true, got %s", bundle.Verdict)
	}
	if bundle.Claim.Text != "GDP grew 5%" {
		t.Errorf("unexpected claim text: %q", bundle.Claim.Text)
	}
}

func TestHandleVerify_MissingClaim(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleVerifyBatch(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/verify/batch", strings.NewReader(`{"claims":["A","B","C"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []model.ResultBundle `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	for i, want := range []string{"A", "B", "C"} {
		if resp.Results[i].Claim.Text != want {
			t.Errorf("index %d: expected %q, got %q", i, want, resp.Results[i].Claim.Text)
		}
	}
}

func TestHandleVerifyBatch_Empty(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/verify/batch", strings.NewReader(`{"claims":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty batch, got %d", w.Code)
	}
}

func TestHandleQuota(t *testing.T) {
	router, ledger := newTestRouter()
	_ = ledger.Reserve("tavily")
	ledger.Commit("tavily")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Capabilities []model.QuotaStatus `json:"capabilities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Capabilities) != 1 || resp.Capabilities[0].Used != 1 {
		t.Errorf("unexpected quota snapshot: %+v", resp.Capabilities)
	}
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestHandleHealth_BackendStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := stubVerifier{}

	for _, tc := range []struct {
		available  bool
		wantStatus string
		wantLLM    string
	}{
		{available: true, wantStatus: "ok", wantLLM: "ok"},
		{available: false, wantStatus: "degraded", wantLLM: "unreachable"},
	} {
		server := NewServer(verifier, worker.NewCoordinator(verifier, 2), quota.NewLedger(), stubProvider{available: tc.available})
		router := server.NewRouter()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("health must stay 200, got %d", w.Code)
		}

		var resp struct {
			Status string `json:"status"`
			LLM    string `json:"llm"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Status != tc.wantStatus || resp.LLM != tc.wantLLM {
			t.Errorf("available=%v: got status=%q llm=%q, want %q/%q",
				tc.available, resp.Status, resp.LLM, tc.wantStatus, tc.wantLLM)
		}
	}
}
