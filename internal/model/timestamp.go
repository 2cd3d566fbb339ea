package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a point in time serialized as integer epoch milliseconds,
// matching the format used by exported tracker files.
type Timestamp struct {
	time.Time
}

// At truncates t to millisecond precision so values survive a JSON round trip unchanged.
func At(t time.Time) Timestamp {
	return Timestamp{Time: time.UnixMilli(t.UnixMilli())}
}

// AtPtr is At for optional fields.
func AtPtr(t time.Time) *Timestamp {
	ts := At(t)
	return &ts
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var ms float64
	err := json.Unmarshal(data, &ms)
	if err != nil {
		return fmt.Errorf("timestamp must be epoch milliseconds: %w", err)
	}

	t.Time = time.UnixMilli(int64(ms))
	return nil
}
