package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestExportCSV(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	category := seedCategory(t, store, user.ID, core.CategoryExpense)
	seedExpense(t, store, user.ID, category.ID, 1_234_50, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	svc := NewExportService(store)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), user.ID, ExportCSV, storage.TransactionFilter{}, &buf)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"id", "date", "category", "type", "description", "amount_cents", "amount"}, rows[0])
	row := rows[1]
	assert.Equal(t, "2025-06-10", row[1])
	assert.Equal(t, "groceries", row[2])
	assert.Equal(t, "expense", row[3])
	assert.Equal(t, "123450", row[5])
	assert.Equal(t, "-Gs 1,234", row[6])
}

func TestExportJSON(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	category := seedCategory(t, store, user.ID, core.CategoryExpense)
	seedExpense(t, store, user.ID, category.ID, 50_000, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	svc := NewExportService(store)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), user.ID, ExportJSON, storage.TransactionFilter{}, &buf)
	require.NoError(t, err)

	var records []ExportRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(50_000), records[0].AmountCents)
	assert.Equal(t, "-Gs 500", records[0].Amount)
}

func TestExportFilterByCategory(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	groceries := seedCategory(t, store, user.ID, core.CategoryExpense)
	transport, err := store.CreateCategory(context.Background(), core.Category{
		UserID: user.ID, Name: "transport", Type: core.CategoryExpense,
	})
	require.NoError(t, err)

	seedExpense(t, store, user.ID, groceries.ID, 10_000, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	seedExpense(t, store, user.ID, transport.ID, 20_000, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC))

	svc := NewExportService(store)

	var buf bytes.Buffer
	filter := storage.TransactionFilter{CategoryID: transport.ID}
	require.NoError(t, svc.Export(context.Background(), user.ID, ExportJSON, filter, &buf))

	var records []ExportRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "transport", records[0].Category)
}

func TestExportUnsupportedFormat(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)

	svc := NewExportService(store)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), user.ID, ExportFormat("xml"), storage.TransactionFilter{}, &buf)
	assert.Error(t, err)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "transactions_20250610.csv", ExportFilename(ExportCSV, now))
	assert.Equal(t, "transactions_20250610.json", ExportFilename(ExportJSON, now))
}
