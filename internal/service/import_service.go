package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dafibh/fortuna/fortuna-import/internal/csvimport"
	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/websocket"
	"github.com/rs/zerolog"
)

// ImportService reconciles parsed CSV rows against stored categories and
// persists the resulting transactions
type ImportService struct {
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
	transactor      domain.Transactor
	archive         domain.SourceArchive
	publisher       websocket.EventPublisher
	logger          zerolog.Logger
}

// NewImportService creates a new ImportService. archive may be nil, in which
// case sources are deleted without being archived.
func NewImportService(
	categoryRepo domain.CategoryRepository,
	transactionRepo domain.TransactionRepository,
	transactor domain.Transactor,
	archive domain.SourceArchive,
	publisher websocket.EventPublisher,
	logger zerolog.Logger,
) *ImportService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &ImportService{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		transactor:      transactor,
		archive:         archive,
		publisher:       publisher,
		logger:          logger.With().Str("component", "import_service").Logger(),
	}
}

// reconciliation is the outcome of one Import run
type reconciliation struct {
	transactions []*domain.Transaction
	created      []*domain.Category
	existing     []*domain.Category
}

// Import persists one transaction per row, creating the categories that don't
// exist yet. The returned transactions follow the order of rows.
func (s *ImportService) Import(ctx context.Context, rows []domain.RawRow) ([]*domain.Transaction, error) {
	result, err := s.reconcile(ctx, rows)
	if err != nil {
		return nil, err
	}
	return result.transactions, nil
}

// ImportFile parses the CSV at path, imports its rows and removes the file.
// Archive and delete failures after a successful import are reported as
// warnings on the result.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*domain.ImportResult, error) {
	rows, err := csvimport.ReadFile(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to read import source")
		return nil, err
	}

	reconciled, err := s.reconcile(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{
		Transactions:      reconciled.transactions,
		CreatedCategories: reconciled.created,
	}
	s.cleanup(ctx, path, result)

	s.publisher.Publish(websocket.TransactionsImported(result.Transactions))
	if len(result.CreatedCategories) > 0 {
		s.publisher.Publish(websocket.CategoriesCreated(result.CreatedCategories))
	}

	s.logger.Info().
		Str("path", path).
		Int("transactions", len(result.Transactions)).
		Int("created_categories", len(result.CreatedCategories)).
		Int("warnings", len(result.Warnings)).
		Msg("Import finished")

	return result, nil
}

func (s *ImportService) reconcile(ctx context.Context, rows []domain.RawRow) (*reconciliation, error) {
	if len(rows) == 0 {
		return &reconciliation{
			transactions: []*domain.Transaction{},
			created:      []*domain.Category{},
		}, nil
	}

	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row.CategoryLabel
	}

	result := &reconciliation{}
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.categoryRepo.FindByTitles(ctx, labels)
		if err != nil {
			return fmt.Errorf("%w: find categories: %w", domain.ErrStorageReadFailed, err)
		}

		created := []*domain.Category{}
		if missing := missingLabels(labels, existing); len(missing) > 0 {
			drafts := make([]*domain.Category, len(missing))
			for i, title := range missing {
				drafts[i] = &domain.Category{Title: title}
			}
			created, err = s.categoryRepo.CreateBatch(ctx, drafts)
			if err != nil {
				return fmt.Errorf("%w: create categories: %w", domain.ErrStorageWriteFailed, err)
			}
		}

		pool := make([]*domain.Category, 0, len(created)+len(existing))
		pool = append(pool, created...)
		pool = append(pool, existing...)

		drafts, err := buildTransactions(rows, pool)
		if err != nil {
			return err
		}

		persisted, err := s.transactionRepo.CreateBatch(ctx, drafts)
		if err != nil {
			return fmt.Errorf("%w: create transactions: %w", domain.ErrStorageWriteFailed, err)
		}
		if len(persisted) != len(drafts) {
			return fmt.Errorf("%w: stored %d of %d transactions", domain.ErrStorageWriteFailed, len(persisted), len(drafts))
		}
		for i, t := range persisted {
			if t.Category == nil {
				t.Category = drafts[i].Category
			}
		}

		result.existing = existing
		result.created = created
		result.transactions = persisted
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStorageReadFailed) && !errors.Is(err, domain.ErrStorageWriteFailed) && !errors.Is(err, domain.ErrInternalError) {
			err = fmt.Errorf("%w: %w", domain.ErrStorageWriteFailed, err)
		}
		s.logger.Error().Err(err).Int("rows", len(rows)).Msg("Import failed")
		return nil, err
	}

	s.logger.Debug().
		Int("rows", len(rows)).
		Int("existing_categories", len(result.existing)).
		Int("created_categories", len(result.created)).
		Msg("Import reconciled")

	return result, nil
}

// missingLabels returns the labels with no category in existing, once each,
// in the order they first appear
func missingLabels(labels []string, existing []*domain.Category) []string {
	known := make(map[string]bool, len(existing)+len(labels))
	for _, c := range existing {
		known[c.Title] = true
	}

	missing := make([]string, 0)
	for _, label := range labels {
		if known[label] {
			continue
		}
		known[label] = true
		missing = append(missing, label)
	}
	return missing
}

// buildTransactions drafts one transaction per row. When several categories
// in pool share a title, the first one wins.
func buildTransactions(rows []domain.RawRow, pool []*domain.Category) ([]*domain.Transaction, error) {
	byTitle := make(map[string]*domain.Category, len(pool))
	for _, c := range pool {
		if _, ok := byTitle[c.Title]; !ok {
			byTitle[c.Title] = c
		}
	}

	drafts := make([]*domain.Transaction, len(rows))
	for i, row := range rows {
		category, ok := byTitle[row.CategoryLabel]
		if !ok {
			return nil, fmt.Errorf("%w: no category for label %q", domain.ErrInternalError, row.CategoryLabel)
		}
		drafts[i] = &domain.Transaction{
			Title:      row.Title,
			Type:       row.Kind,
			Amount:     row.Amount,
			CategoryID: category.ID,
			Category:   category,
		}
	}
	return drafts, nil
}

// cleanup archives the source when an archive is configured, then deletes it
func (s *ImportService) cleanup(ctx context.Context, path string, result *domain.ImportResult) {
	if s.archive != nil {
		key, err := s.archiveSource(ctx, path)
		if err != nil {
			s.warn(result, path, fmt.Errorf("archive source: %w", err))
		} else {
			result.ArchiveKey = key
		}
	}

	if err := os.Remove(path); err != nil {
		s.warn(result, path, fmt.Errorf("delete source: %w", err))
	}
}

func (s *ImportService) archiveSource(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return s.archive.Archive(ctx, filepath.Base(path), f, size)
}

func (s *ImportService) warn(result *domain.ImportResult, path string, err error) {
	err = fmt.Errorf("%w: %w", domain.ErrCleanupFailed, err)
	s.logger.Warn().Err(err).Str("path", path).Msg("Import cleanup failed")
	result.Warnings = append(result.Warnings, err.Error())
}
