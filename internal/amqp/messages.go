package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// SnapshotChangedMessage announces that a source was re-imported and cached
// snapshots of it are stale.
type SnapshotChangedMessage struct {
	Source    string    `json:"source"`
	Upserted  int       `json:"upserted"`
	Rejected  int       `json:"rejected"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrInvalidMessage = errors.New("invalid snapshot changed message")

func NewSnapshotChangedMessage(source string, upserted, rejected int) *SnapshotChangedMessage {
	return &SnapshotChangedMessage{
		Source:    source,
		Upserted:  upserted,
		Rejected:  rejected,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotChangedMessageFromJSON decodes and validates a message body.
func SnapshotChangedMessageFromJSON(data []byte) (*SnapshotChangedMessage, error) {
	var msg SnapshotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Source == "" || msg.Upserted < 0 || msg.Rejected < 0 {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
