package amqp

import (
	"encoding/json"
	"time"
)

// BudgetCheckMessage asks the worker to re-evaluate budget usage for a
// user/category pair. It carries only identifiers, the worker fetches
// current state from the database.
type BudgetCheckMessage struct {
	UserID     int64     `json:"user_id"`
	CategoryID int64     `json:"category_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewBudgetCheckMessage creates a check message for a user/category pair.
func NewBudgetCheckMessage(userID, categoryID int64) *BudgetCheckMessage {
	return &BudgetCheckMessage{
		UserID:     userID,
		CategoryID: categoryID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetCheckMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetCheckMessageFromJSON creates a message from JSON bytes.
func BudgetCheckMessageFromJSON(data []byte) (*BudgetCheckMessage, error) {
	var msg BudgetCheckMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
