package wall

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Entries maps identity to note text. The remote basket is written whole,
// so every save sends the complete map.
type Entries map[string]string

// UnmarshalJSON accepts any JSON object. Values that are not strings are
// kept as their compact JSON text so a hand-edited basket still renders;
// null becomes the empty note.
func (e *Entries) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Entries, len(raw))
	for id, value := range raw {
		out[id] = noteText(value)
	}
	*e = out
	return nil
}

func noteText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// Clone returns a copy that is never nil.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e)+1)
	for id, text := range e {
		out[id] = text
	}
	return out
}

// With returns a copy with id's note set to text.
func (e Entries) With(id, text string) Entries {
	out := e.Clone()
	out[id] = text
	return out
}

// IDs lists identities in sorted order.
func (e Entries) IDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
