package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DatasetChangedMessage announces that the data behind a source changed and
// cached tables for it should be dropped. An empty Source means every source.
type DatasetChangedMessage struct {
	Source     string    `json:"source"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Rows       int       `json:"rows"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDatasetChangedMessage creates a message stamped with the current time.
func NewDatasetChangedMessage(source, snapshotID string, rows int) *DatasetChangedMessage {
	return &DatasetChangedMessage{
		Source:     source,
		SnapshotID: snapshotID,
		Rows:       rows,
		Timestamp:  time.Now(),
	}
}

// AllSources reports whether the message targets every cached source.
func (m *DatasetChangedMessage) AllSources() bool { return m.Source == "" }

// ToJSON converts the message to JSON bytes
func (m *DatasetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetChangedMessageFromJSON creates a message from JSON bytes
func DatasetChangedMessageFromJSON(data []byte) (*DatasetChangedMessage, error) {
	var msg DatasetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Rows < 0 {
		return nil, errors.New("negative row count")
	}
	return &msg, nil
}
