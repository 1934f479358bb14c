package core

// Outcome is the tagged result of a call to a fallible external service.
// A degraded outcome still carries a usable Value (the default that replaced
// the failed result) together with the reason it was degraded.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

// Ok wraps a successful result.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Degraded wraps a default value that replaced a failed result.
func Degraded[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Degraded: true, Err: err}
}

// IsOk reports whether the outcome holds a genuine result.
func (o Outcome[T]) IsOk() bool {
	return !o.Degraded
}
