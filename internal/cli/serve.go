package cli

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"claimcheck/internal/api"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP verification API",
	Long: `Serve exposes the verification pipeline over HTTP:

  POST /api/verify        verify one claim
  POST /api/verify/batch  verify a list of claims
  GET  /api/quota         capability budget snapshot
  GET  /health            liveness probe

All requests share one quota ledger, rate limiter, and cache.

Example:
  claimcheck serve
  claimcheck serve --listen :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Output.Verbose = verbose

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(a.engine, a.coordinator, a.ledger, a.provider)
	router := server.NewRouter()

	fmt.Fprintf(os.Stderr, "Listening on %s\n", listenAddr)
	return router.Run(listenAddr)
}
