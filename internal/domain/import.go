package domain

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// RawRow is one parsed and trimmed line of an import source
type RawRow struct {
	Title         string
	Kind          TransactionType
	Amount        decimal.Decimal
	CategoryLabel string
}

// ImportResult describes a finished file import
type ImportResult struct {
	Transactions      []*Transaction `json:"transactions"`
	CreatedCategories []*Category    `json:"createdCategories"`
	ArchiveKey        string         `json:"archiveKey,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
}

// SourceArchive keeps a copy of an import source before it is deleted
type SourceArchive interface {
	Archive(ctx context.Context, name string, data io.Reader, size int64) (string, error)
}
