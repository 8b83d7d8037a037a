package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "importer "+Version)
	assert.Contains(t, out.String(), "Go Version:")
}

func TestImportCmd_RequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import"})

	err := root.Execute()
	assert.Error(t, err)
}

func TestImportCmd_Flags(t *testing.T) {
	cmd := newImportCmd()

	timeout := cmd.Flags().Lookup("timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "2m0s", timeout.DefValue)

	asJSON := cmd.Flags().Lookup("json")
	require.NotNil(t, asJSON)
	assert.Equal(t, "false", asJSON.DefValue)
}

func sampleResult() *domain.ImportResult {
	food := &domain.Category{ID: uuid.New(), Title: "Food"}
	return &domain.ImportResult{
		Transactions: []*domain.Transaction{
			{
				ID:         uuid.New(),
				Title:      "Lunch",
				Type:       domain.TransactionTypeOutcome,
				Amount:     decimal.RequireFromString("12.50"),
				CategoryID: food.ID,
				Category:   food,
			},
		},
		CreatedCategories: []*domain.Category{food},
		ArchiveKey:        "imports/2024/05/01/abc-file.csv",
		Warnings:          []string{"cleanup failed: remove file.csv: permission denied"},
	}
}

func TestWriteResult_Summary(t *testing.T) {
	out := &bytes.Buffer{}

	require.NoError(t, writeResult(out, sampleResult(), false))

	text := out.String()
	assert.Contains(t, text, "Imported 1 transactions")
	assert.Contains(t, text, "Created 1 categories:")
	assert.Contains(t, text, "  Food\n")
	assert.Contains(t, text, "Archived source as imports/2024/05/01/abc-file.csv")
	assert.Contains(t, text, "warning: cleanup failed")
}

func TestWriteResult_SummaryWithoutCategories(t *testing.T) {
	out := &bytes.Buffer{}
	result := &domain.ImportResult{
		Transactions:      []*domain.Transaction{},
		CreatedCategories: []*domain.Category{},
	}

	require.NoError(t, writeResult(out, result, false))
	assert.Equal(t, "Imported 0 transactions\n", out.String())
}

func TestWriteResult_JSON(t *testing.T) {
	out := &bytes.Buffer{}

	require.NoError(t, writeResult(out, sampleResult(), true))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded["transactions"], 1)
	assert.Len(t, decoded["createdCategories"], 1)
	assert.Equal(t, "imports/2024/05/01/abc-file.csv", decoded["archiveKey"])
}
