// Package worker evaluates budget usage in the background and records
// alerts for budgets that crossed the near-limit threshold.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AlertStore is the slice of storage.Store the worker needs.
type AlertStore interface {
	ListNotifyBudgets(ctx context.Context, userID, categoryID int64) ([]core.Budget, error)
	ListCategoryTransactions(ctx context.Context, userID, categoryID int64) ([]core.Transaction, error)
	InsertAlert(ctx context.Context, alert storage.Alert) (storage.Alert, error)
	HasAlertOn(ctx context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error)
}

// AlertMirror receives a copy of every recorded alert. Optional.
type AlertMirror interface {
	AppendAlert(ctx context.Context, alert storage.Alert, budget core.Budget) error
}

// AlertWorker recomputes budget usage on demand and on a periodic sweep.
// At most one alert per budget, level, and day is recorded.
type AlertWorker struct {
	store  AlertStore
	mirror AlertMirror
	now    func() time.Time
}

func NewAlertWorker(store AlertStore, mirror AlertMirror) *AlertWorker {
	return &AlertWorker{store: store, mirror: mirror, now: time.Now}
}

// HandleCheckMessage processes one budget check request from the queue.
func (w *AlertWorker) HandleCheckMessage(ctx context.Context, msg *amqp.BudgetCheckMessage) error {
	budgets, err := w.store.ListNotifyBudgets(ctx, msg.UserID, msg.CategoryID)
	if err != nil {
		return fmt.Errorf("list notify budgets: %w", err)
	}

	today := w.now()
	for _, b := range budgets {
		if err := w.evaluateBudget(ctx, b, today); err != nil {
			return err
		}
	}
	return nil
}

// Sweep re-evaluates every notify budget. This is a backup mechanism in
// case check messages are lost.
func (w *AlertWorker) Sweep(ctx context.Context) error {
	budgets, err := w.store.ListNotifyBudgets(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("list notify budgets: %w", err)
	}

	today := w.now()
	for _, b := range budgets {
		if err := w.evaluateBudget(ctx, b, today); err != nil {
			slog.ErrorContext(ctx, "Failed to evaluate budget",
				"budget_id", b.ID, "user_id", b.UserID, "error", err)
		}
	}
	return nil
}

// RunSweep runs Sweep on the given interval until ctx is done.
func (w *AlertWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Started budget sweep", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping budget sweep", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Budget sweep failed", "error", err)
			}
		}
	}
}

func (w *AlertWorker) evaluateBudget(ctx context.Context, b core.Budget, today time.Time) error {
	txs, err := w.store.ListCategoryTransactions(ctx, b.UserID, b.CategoryID)
	if err != nil {
		return fmt.Errorf("list budget transactions: %w", err)
	}

	usage := core.ComputeUsage(b, txs, today)
	if usage.Expired || usage.Status == core.BudgetSafe {
		return nil
	}

	exists, err := w.store.HasAlertOn(ctx, b.ID, usage.Status, today)
	if err != nil {
		return fmt.Errorf("check existing alert: %w", err)
	}
	if exists {
		return nil
	}

	alert, err := w.store.InsertAlert(ctx, storage.Alert{
		BudgetID:    b.ID,
		UserID:      b.UserID,
		Level:       usage.Status,
		PercentUsed: usage.PercentUsed,
		Spent:       usage.Spent,
		CreatedAt:   today,
	})
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	slog.InfoContext(ctx, "Recorded budget alert",
		"budget_id", b.ID,
		"user_id", b.UserID,
		"level", alert.Level,
		"percent_used", alert.PercentUsed)

	if w.mirror != nil {
		if err := w.mirror.AppendAlert(ctx, alert, b); err != nil {
			// The alert is persisted, mirroring is best effort.
			slog.ErrorContext(ctx, "Failed to mirror alert",
				"budget_id", b.ID, "error", err)
		}
	}
	return nil
}
