package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// fields is one JSON object of the document. Known keys are taken out while
// decoding; what remains travels with the record untouched.
type fields map[string]json.RawMessage

func (f fields) take(key string) json.RawMessage {
	v, ok := f[key]
	if !ok {
		return nil
	}
	delete(f, key)
	return v
}

func (f fields) rest() map[string]json.RawMessage {
	if len(f) == 0 {
		return nil
	}
	return map[string]json.RawMessage(f)
}

// put marshals v under key. Values are plain data; a marshal failure can only
// come from a programming error and is stored as null.
func (f fields) put(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("null")
	}
	f[key] = b
}

// records decodes a JSON array of objects. Null entries are dropped.
func records(raw json.RawMessage) ([]fields, error) {
	if isNull(raw) {
		return nil, nil
	}
	var list []fields
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := list[:0]
	for _, f := range list {
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// scalar decodes a JSON number, string or bool; anything else is nil.
func scalar(raw json.RawMessage) any {
	if isNull(raw) {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func numberOf(raw json.RawMessage) (float64, bool) {
	switch v := scalar(raw).(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// intOf resolves missing, null, empty or non numeric values to 0.
func intOf(raw json.RawMessage) int64 {
	f, ok := numberOf(raw)
	if !ok {
		return 0
	}
	return int64(f)
}

func optIntOf(raw json.RawMessage) *int64 {
	f, ok := numberOf(raw)
	if !ok {
		return nil
	}
	v := int64(f)
	return &v
}

func optFloatOf(raw json.RawMessage) *float64 {
	f, ok := numberOf(raw)
	if !ok {
		return nil
	}
	return &f
}

func strOf(raw json.RawMessage) string {
	switch v := scalar(raw).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func boolOf(raw json.RawMessage) bool {
	switch v := scalar(raw).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

func stringsOf(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case map[string]any:
			// BGG link objects: {"id":..,"name":..}
			if name, ok := s["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// timeOf parses the ISO timestamps the club app writes. Unparseable values are
// the zero time, which sorts first in the waitlist.
func timeOf(raw json.RawMessage) time.Time {
	s, ok := scalar(raw).(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
