package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/config"
	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-import/internal/repository/storage"
	"github.com/dafibh/fortuna/fortuna-import/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type importOptions struct {
	timeout time.Duration
	asJSON  bool
}

func newImportCmd() *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a transaction CSV file",
		Long: `Import reads <file>, stores one transaction per valid row and deletes the
file afterwards. Malformed rows are skipped. When S3_BUCKET is set the file
is archived before it is deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "maximum time for the whole import")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the import result as JSON")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, path string, opts importOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}

	var archive domain.SourceArchive
	if cfg.S3.Enabled() {
		s3Archive, err := storage.NewS3SourceArchive(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("initialize archive: %w", err)
		}
		archive = s3Archive
	}

	importService := service.NewImportService(
		postgres.NewCategoryRepository(pool),
		postgres.NewTransactionRepository(pool),
		postgres.NewTransactor(pool),
		archive,
		nil,
		log.Logger,
	)

	result, err := importService.ImportFile(ctx, path)
	if err != nil {
		return err
	}

	return writeResult(out, result, opts.asJSON)
}

func writeResult(out io.Writer, result *domain.ImportResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Imported %d transactions\n", len(result.Transactions))
	if len(result.CreatedCategories) > 0 {
		fmt.Fprintf(out, "Created %d categories:\n", len(result.CreatedCategories))
		for _, c := range result.CreatedCategories {
			fmt.Fprintf(out, "  %s\n", c.Title)
		}
	}
	if result.ArchiveKey != "" {
		fmt.Fprintf(out, "Archived source as %s\n", result.ArchiveKey)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}
