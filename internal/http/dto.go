package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Currency string `json:"currency"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// transactionRequest accepts the amount either as raw cents or as a
// decimal string ("1.050,50" and "1050.50" both work).
type transactionRequest struct {
	CategoryID  int64  `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Recurring   bool   `json:"recurring"`
}

type budgetRequest struct {
	CategoryID  int64   `json:"category_id"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Notify      bool    `json:"notify"`
}

type adminUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   int64  `json:"role_id"`
	Active   *bool  `json:"active"`
	Currency string `json:"currency"`
}

type roleRequest struct {
	Name string `json:"name"`
}

type accountRequest struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
	Currency     string `json:"currency"`
	Active       *bool  `json:"active"`
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func parsePositiveInt(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// pathItemID reads the second id segment of nested admin routes
// (/admin/users/{id}/categories/{itemID}).
func pathItemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid item id")
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// amountCents resolves the two accepted amount encodings.
func amountCents(cents int64, decimal string) (int64, error) {
	if cents != 0 {
		return cents, nil
	}
	if strings.TrimSpace(decimal) == "" {
		return 0, nil
	}
	return core.ParseDecimalToCents(decimal)
}

// transactionFilterFromQuery builds a filter from list/export query params.
func transactionFilterFromQuery(r *http.Request) (storage.TransactionFilter, error) {
	var filter storage.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, errors.New("invalid category_id")
		}
		filter.CategoryID = id
	}
	if raw := q.Get("type"); raw != "" {
		t := core.CategoryType(raw)
		if !t.Valid() {
			return filter, errors.New("invalid type, want income or expense")
		}
		filter.Type = t
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errors.New("invalid offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}

func pageFromQuery(r *http.Request) storage.Page {
	var page storage.Page
	q := r.URL.Query()
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		page.Offset = offset
	}
	return page
}
