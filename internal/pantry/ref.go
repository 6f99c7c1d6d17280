package pantry

import "strings"

// Ref identifies one basket inside a pantry. The JSON field names match the
// fragment protocol (#pid=...&key=...) so a stored Ref round-trips through
// the same names a shared link uses.
type Ref struct {
	PantryID string `json:"pid"`
	Basket   string `json:"key"`
}

// Valid reports whether both halves of the reference are set.
func (r Ref) Valid() bool {
	return strings.TrimSpace(r.PantryID) != "" && strings.TrimSpace(r.Basket) != ""
}

// WithBasket returns a reference to another basket in the same pantry.
func (r Ref) WithBasket(basket string) Ref {
	return Ref{PantryID: r.PantryID, Basket: basket}
}

// Trimmed returns a copy with surrounding whitespace removed from both fields.
func (r Ref) Trimmed() Ref {
	return Ref{PantryID: strings.TrimSpace(r.PantryID), Basket: strings.TrimSpace(r.Basket)}
}

func (r Ref) String() string {
	return r.PantryID + "/" + r.Basket
}
