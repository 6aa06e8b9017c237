package transfer

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

// flexString reads a string, a number or a bool as text.
type flexString struct {
	Value string
}

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Value)
	}
	s.Value = string(data)
	return nil
}

// flexFloat reads a number or a numeric string. Set records whether the
// field was present and non-null. Values that do not parse become 0.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		return nil
	}
	f.Set = true

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.Value = 0
		return nil
	}
	f.Value = v
	return nil
}

// flexTime reads an RFC 3339 string or Unix milliseconds. Anything else
// leaves the zero time so the store stamps the record.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text)); err == nil {
			t.Time = toTime(parsed)
		}
		return nil
	}
	if ms, err := strconv.ParseFloat(string(data), 64); err == nil && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		t.Time = time.UnixMilli(int64(ms)).UTC()
	}
	return nil
}
