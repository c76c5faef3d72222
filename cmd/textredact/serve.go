package textredact

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redactyl/textredact/internal/server"
	"github.com/spf13/cobra"
)

var (
	flagAddr         string
	flagMaxBodyBytes int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the redaction API over HTTP",
		Long: "Endpoints:\n" +
			"  POST /v1/redact       {\"text\": \"...\", \"info\": false} -> {\"output\", \"captures\"}\n" +
			"  POST /v1/redact/json  raw JSON document\n" +
			"  POST /v1/redact/yaml  raw YAML document\n" +
			"  GET  /healthz, /metrics",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default :8080)")
	cmd.Flags().Int64Var(&flagMaxBodyBytes, "max-body-bytes", 0, "request body limit (default 10 MiB)")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := pickString(flagAddr, strPtr(cfg.GetServerAddr()))
	limit := pickInt64(flagMaxBodyBytes, nil, cfg.GetMaxBodyBytes())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(redactor, server.WithMaxBodyBytes(limit), server.WithLogger(slog.Default()))
	return srv.ListenAndServe(ctx, addr)
}

