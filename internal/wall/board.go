package wall

import (
	"pantrywall/internal/names"
)

const (
	// SelfLabel is how the viewer sees their own entry in the list.
	SelfLabel = "you"
	// AnonymousLabel is shown for identities without a claimed name.
	AnonymousLabel = "anonymous"
)

// Entry is one rendered wall line.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Self  bool   `json:"self"`
}

// Me describes the viewer.
type Me struct {
	ID      string `json:"id"`
	Display string `json:"display"`
	Note    string `json:"note"`
}

// Board is the wall as one viewer sees it.
type Board struct {
	Entries  []Entry `json:"entries"`
	Me       Me      `json:"me"`
	Degraded bool    `json:"degraded,omitempty"`
}

// LabelFor renders the list label of id for viewer self.
func LabelFor(dir names.Directory, self, id string) string {
	if id == self {
		return SelfLabel
	}
	if label, ok := dir.LabelFor(id); ok {
		return label
	}
	return AnonymousLabel
}

// DisplayFor is the viewer's own display name: the claimed label, or
// SelfLabel when none is claimed.
func DisplayFor(dir names.Directory, self string) string {
	if label, ok := dir.LabelFor(self); ok {
		return label
	}
	return SelfLabel
}

// BuildBoard renders entries for viewer self, sorted by identity.
func BuildBoard(entries Entries, dir names.Directory, self string) Board {
	board := Board{
		Entries: make([]Entry, 0, len(entries)),
		Me: Me{
			ID:      self,
			Display: DisplayFor(dir, self),
			Note:    entries[self],
		},
	}
	for _, id := range entries.IDs() {
		board.Entries = append(board.Entries, Entry{
			ID:    id,
			Label: LabelFor(dir, self, id),
			Text:  entries[id],
			Self:  id == self,
		})
	}
	return board
}
