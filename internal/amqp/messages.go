package amqp

import (
	"encoding/json"
	"time"
)

// Refresh reasons carried by RefreshMessage.
const (
	ReasonUpload       = "upload"
	ReasonUploadRemove = "upload_remove"
	ReasonLedgerChange = "ledger_change"
	ReasonManual       = "manual"
)

// RefreshMessage asks the worker to recompute the dashboard and export it.
// It carries no payload; the worker reads the current state itself.
type RefreshMessage struct {
	Reason    string    `json:"reason"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage stamps a refresh request with the current time.
func NewRefreshMessage(reason, source string) *RefreshMessage {
	return &RefreshMessage{
		Reason:    reason,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes a message body.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
