// Package services orchestrates domain operations across storage and messaging.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetCheckPublisher publishes budget check requests. A nil publisher
// disables messaging without failing writes.
type BudgetCheckPublisher interface {
	PublishBudgetCheck(ctx context.Context, userID, categoryID int64) error
}

// TransactionService handles transaction writes and triggers budget checks
// for expense categories.
type TransactionService struct {
	store     storage.Store
	publisher BudgetCheckPublisher
}

func NewTransactionService(store storage.Store, publisher BudgetCheckPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Create validates and saves a transaction, then publishes a budget check
// when the category tracks expenses.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	category, err := s.store.GetCategory(ctx, tx.UserID, tx.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.maybePublishCheck(ctx, category, created.UserID)
	return created, nil
}

// Update validates and updates a transaction, then publishes a budget check.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	category, err := s.store.GetCategory(ctx, tx.UserID, tx.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	updated, err := s.store.GetTransaction(ctx, tx.UserID, tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload transaction: %w", err)
	}

	s.maybePublishCheck(ctx, category, updated.UserID)
	return updated, nil
}

// Delete removes a transaction and publishes a budget check so usage is
// recomputed without the deleted amount.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	category, err := s.store.GetCategory(ctx, userID, tx.CategoryID)
	if err == nil {
		s.maybePublishCheck(ctx, category, userID)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, filter storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, filter)
}

func (s *TransactionService) maybePublishCheck(ctx context.Context, category core.Category, userID int64) {
	if s.publisher == nil || category.Type != core.CategoryExpense {
		return
	}
	if err := s.publisher.PublishBudgetCheck(ctx, userID, category.ID); err != nil {
		// The write already succeeded, the sweep will catch up.
		slog.ErrorContext(ctx, "Failed to publish budget check",
			"user_id", userID, "category_id", category.ID, "error", err)
	}
}
