package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces one committed ledger entry.
// It carries only the id; the consumer re-reads the row from storage so
// the export always reflects the committed state.
type TransactionRecordedMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		Version:   1,
		Timestamp: time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
