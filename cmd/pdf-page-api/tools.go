package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/service"
	"github.com/noah-isme/pdf-page-api/pkg/config"
	"github.com/noah-isme/pdf-page-api/pkg/database"
	"github.com/noah-isme/pdf-page-api/pkg/export"
	"github.com/noah-isme/pdf-page-api/pkg/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Connect to the metadata store and apply the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := database.Init(cmd.Context(), db, cfg.Database.ConnectTimeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			auth := service.NewAuthService(service.NewValidator(), zap.NewNop(), service.AuthConfig{
				Secret:   cfg.Admin.JWTSecret,
				TokenTTL: cfg.Admin.TokenTTL,
			})
			issued, err := auth.IssueToken(dto.IssueTokenRequest{Subject: subject})
			if err != nil {
				if errors.Is(err, service.ErrAuthDisabled) {
					return errors.New("ADMIN_JWT_SECRET is not set")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "operator", "Token subject")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var (
		name  string
		pages int
		force bool
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a generated multi-page PDF into the PDF folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, err := writeSample(cmd.Context(), cfg.PDF.Dir, name, pages, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d-page sample to %s\n", pages, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "sample.pdf", "File name inside the PDF folder")
	cmd.Flags().IntVarP(&pages, "pages", "p", 5, "Number of pages")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func writeSample(ctx context.Context, dir, name string, pages int, force bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	store, err := storage.NewPDFStore(dir)
	if err != nil {
		return "", fmt.Errorf("open pdf folder: %w", err)
	}
	path, err := store.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("sample name %q: %w", name, err)
	}
	if !force {
		exists, err := store.Exists(name)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	data, err := export.NewPDFExporter().RenderPages(pages, "Sample document")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write sample: %w", err)
	}
	return path, nil
}
