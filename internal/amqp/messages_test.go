package amqp

import (
	"testing"
	"time"
)

func TestNewBudgetCheckMessage(t *testing.T) {
	msg := NewBudgetCheckMessage(7, 42)

	if msg.UserID != 7 {
		t.Errorf("UserID = %v, want 7", msg.UserID)
	}
	if msg.CategoryID != 42 {
		t.Errorf("CategoryID = %v, want 42", msg.CategoryID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestBudgetCheckMessage_JSON(t *testing.T) {
	msg := &BudgetCheckMessage{
		UserID:     7,
		CategoryID: 42,
		Timestamp:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := BudgetCheckMessageFromJSON(body)
	if err != nil {
		t.Fatalf("BudgetCheckMessageFromJSON() error = %v", err)
	}

	if parsed.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsed.UserID, msg.UserID)
	}
	if parsed.CategoryID != msg.CategoryID {
		t.Errorf("Parsed CategoryID = %v, want %v", parsed.CategoryID, msg.CategoryID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestBudgetCheckMessage_InvalidJSON(t *testing.T) {
	if _, err := BudgetCheckMessageFromJSON([]byte(`{"user_id": "nope"}`)); err == nil {
		t.Error("BudgetCheckMessageFromJSON() should fail with invalid JSON")
	}
}
