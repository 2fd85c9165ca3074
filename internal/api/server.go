package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"claimcheck/internal/llm"
	"claimcheck/internal/quota"
	"claimcheck/internal/worker"
)

const maxBatchSize = 100

// Server exposes claim verification over HTTP
type Server struct {
	verifier    worker.Verifier
	coordinator *worker.Coordinator
	ledger      *quota.Ledger
	provider    llm.Provider // Optional: health-checked when set
}

// NewServer creates an API server over the shared verification stack.
// The provider may be nil; the health probe then skips the backend check.
func NewServer(verifier worker.Verifier, coordinator *worker.Coordinator, ledger *quota.Ledger, provider llm.Provider) *Server {
	return &Server{
		verifier:    verifier,
		coordinator: coordinator,
		ledger:      ledger,
		provider:    provider,
	}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	g := r.Group("/api")
	g.POST("/verify", s.handleVerify)
	g.POST("/verify/batch", s.handleVerifyBatch)
	g.GET("/quota", s.handleQuota)

	return r
}

type verifyRequest struct {
	Claim string `json:"claim" binding:"required"`
}

type batchRequest struct {
	Claims      []string `json:"claims" binding:"required"`
	Concurrency int      `json:"concurrency"`
}

// handleVerify verifies a single claim.
// POST /api/verify
func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claim is required"})
		return
	}

	bundle := s.verifier.Verify(c.Request.Context(), req.Claim)
	c.JSON(http.StatusOK, bundle)
}

// handleVerifyBatch verifies a list of claims concurrently, preserving
// input order in the response.
// POST /api/verify/batch
func (s *Server) handleVerifyBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claims list is required"})
		return
	}
	if len(req.Claims) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claims list is empty"})
		return
	}
	if len(req.Claims) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many claims", "max": maxBatchSize})
		return
	}

	bundles := s.coordinator.VerifyBatch(c.Request.Context(), req.Claims, req.Concurrency)
	c.JSON(http.StatusOK, gin.H{"results": bundles})
}

// handleQuota reports every capability's counter.
// GET /api/quota
func (s *Server) handleQuota(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capabilities": s.ledger.Snapshot()})
}

// handleHealth is a liveness probe. The server itself is always "ok";
// an unreachable reasoning backend is reported as degraded without
// failing the probe, since cached and quota reads still work.
// GET /health
func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.provider != nil {
		resp["llm"] = "ok"
		if !s.provider.IsAvailable(c.Request.Context()) {
			resp["status"] = "degraded"
			resp["llm"] = "unreachable"
		}
	}
	c.JSON(http.StatusOK, resp)
}
