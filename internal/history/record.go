package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notif_organizer/internal/model"
)

// ErrMalformedRecord is returned by Decode for records that cannot be restored.
var ErrMalformedRecord = errors.New("malformed log record")

type record struct {
	ID              string `json:"id"`
	SourceID        string `json:"packageName"`
	SenderLabel     string `json:"sender"`
	MessageText     string `json:"message"`
	OriginalEventID int    `json:"originalId"`
	CreatedAt       *int64 `json:"timestamp"`
}

// Encode serializes an entry into a flat JSON record.
// Timestamps are kept at millisecond precision.
func Encode(e model.LogEntry) (string, error) {
	ms := e.CreatedAt.UnixMilli()
	b, err := json.Marshal(record{
		ID:              e.ID,
		SourceID:        e.SourceID,
		SenderLabel:     e.SenderLabel,
		MessageText:     e.MessageText,
		OriginalEventID: e.OriginalEventID,
		CreatedAt:       &ms,
	})
	if err != nil {
		return "", fmt.Errorf("marshal log record: %w", err)
	}
	return string(b), nil
}

// Decode restores an entry produced by Encode.
func Decode(s string) (model.LogEntry, error) {
	var r record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return model.LogEntry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.ID == "" || r.CreatedAt == nil {
		return model.LogEntry{}, fmt.Errorf("%w: missing id or timestamp", ErrMalformedRecord)
	}
	return model.LogEntry{
		ID:              r.ID,
		SourceID:        r.SourceID,
		SenderLabel:     r.SenderLabel,
		MessageText:     r.MessageText,
		OriginalEventID: r.OriginalEventID,
		CreatedAt:       time.UnixMilli(*r.CreatedAt).UTC(),
	}, nil
}
