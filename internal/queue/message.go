package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message is a pointer to one delivery record. The worker loads everything
// else from the database, so a message published twice is harmless: only
// one claim on the record can succeed.
type Message struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessage(deliveryID uuid.UUID) *Message {
	return &Message{DeliveryID: deliveryID, CreatedAt: time.Now()}
}

var errNoDeliveryID = errors.New("message has no delivery id")

// Validate rejects messages that do not reference a record.
func (m *Message) Validate() error {
	if m.DeliveryID == uuid.Nil {
		return errNoDeliveryID
	}
	return nil
}

func encodeMessage(m *Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func decodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
