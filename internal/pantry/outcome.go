package pantry

// Outcome is the result of a best-effort read. A degraded outcome carries
// the fallback value together with the error that caused the fallback, so
// callers that tolerate failure still see that it happened.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Ok wraps a value that was read successfully.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Degraded wraps the fallback used after err.
func Degraded[T any](fallback T, err error) Outcome[T] {
	return Outcome[T]{Value: fallback, Err: err}
}

// IsDegraded reports whether the value is a fallback.
func (o Outcome[T]) IsDegraded() bool {
	return o.Err != nil
}
