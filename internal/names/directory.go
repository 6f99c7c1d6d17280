package names

import (
	"encoding/json"
	"strconv"
)

// Assignment is one identity's claimed name. It is stored as the JSON
// tuple [name, seq].
type Assignment struct {
	Name string
	Seq  int
}

func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.Name, a.Seq})
}

// UnmarshalJSON accepts the tuple form. Anything else decodes to the zero
// Assignment, which renders as unnamed; a sequence that is missing or not
// a positive number becomes 1.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	*a = Assignment{}
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil || len(tuple) == 0 {
		return nil
	}
	if err := json.Unmarshal(tuple[0], &a.Name); err != nil {
		a.Name = ""
		return nil
	}
	a.Seq = 1
	if len(tuple) > 1 {
		if n := parseSeq(tuple[1]); n > 0 {
			a.Seq = n
		}
	}
	return nil
}

func parseSeq(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, _ := strconv.Atoi(s)
		return n
	}
	return 0
}

// Directory is the shared name table of one pantry: the highest sequence
// handed out per base name, and each identity's current assignment.
type Directory struct {
	Names map[string]int        `json:"names"`
	Users map[string]Assignment `json:"users"`
}

// Clone returns a deep copy with non-nil maps.
func (d Directory) Clone() Directory {
	out := Directory{
		Names: make(map[string]int, len(d.Names)),
		Users: make(map[string]Assignment, len(d.Users)),
	}
	for k, v := range d.Names {
		out.Names[k] = v
	}
	for k, v := range d.Users {
		out.Users[k] = v
	}
	return out
}

// LabelFor renders the display label of id, if it has claimed a name.
func (d Directory) LabelFor(id string) (string, bool) {
	a, ok := d.Users[id]
	if !ok {
		return "", false
	}
	label := Label(a)
	return label, label != ""
}

// Label renders an assignment: the bare name for sequence 1, else name(seq).
func Label(a Assignment) string {
	if a.Name == "" {
		return ""
	}
	if a.Seq > 1 {
		return a.Name + "(" + strconv.Itoa(a.Seq) + ")"
	}
	return a.Name
}
