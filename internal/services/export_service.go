package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ExportFormat selects the transaction export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ExportRecord is one exported transaction with both the raw cent
// magnitude and the formatted display amount.
type ExportRecord struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

// ExportService streams a user's transactions as CSV or JSON.
type ExportService struct {
	store storage.Store
}

func NewExportService(store storage.Store) *ExportService {
	return &ExportService{store: store}
}

// Export writes the user's transactions matching filter to w. Display
// amounts are signed and formatted in the user's currency.
func (s *ExportService) Export(ctx context.Context, userID int64, format ExportFormat, filter storage.TransactionFilter, w io.Writer) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	categories, err := s.store.ListCategories(ctx, userID, "")
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	txs, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	records := make([]ExportRecord, 0, len(txs))
	for _, tx := range txs {
		category := byID[tx.CategoryID]
		records = append(records, ExportRecord{
			ID:          tx.ID,
			Date:        tx.Date.Format("2006-01-02"),
			Category:    category.Name,
			Type:        string(category.Type),
			Description: tx.Description,
			AmountCents: tx.Amount.Cents,
			Amount:      tx.Amount.SignedFormat(user.Currency, category.Type),
		})
	}

	switch format {
	case ExportJSON:
		return writeJSON(w, records)
	case ExportCSV:
		return writeCSV(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeJSON(w io.Writer, records []ExportRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, records []ExportRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "date", "category", "type", "description", "amount_cents", "amount"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.Category,
			r.Type,
			r.Description,
			strconv.FormatInt(r.AmountCents, 10),
			r.Amount,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename suggests a download filename for the given format.
func ExportFilename(format ExportFormat, now time.Time) string {
	return fmt.Sprintf("transactions_%s.%s", now.Format("20060102"), format)
}
