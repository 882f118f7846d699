package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/noah-isme/pdf-page-api/api/swagger"
)

// @title PDF Page API
// @version 1.0.0
// @description Serves PDFs from a local folder, extracts single pages and records page-level access.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pdf-page-api: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCmd()
	cmd := &cobra.Command{
		Use:   "pdf-page-api",
		Short: "PDF serving backend with single-page extraction",
		Long: `pdf-page-api serves PDFs from a configured folder, extracts single pages on demand and
records every page-level access in PostgreSQL. Without a subcommand it runs the HTTP server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.AddCommand(
		serve,
		newMigrateCmd(),
		newTokenCmd(),
		newSampleCmd(),
	)
	return cmd
}
