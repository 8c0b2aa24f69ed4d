package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage signals that the persisted row set changed. It
// deliberately carries no row payload: receivers must reload everything,
// never merge.
type LedgerChangedMessage struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(source string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
