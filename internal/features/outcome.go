package features

// Status distinguishes a clean fetch, a fetch that fell back to defaults,
// and a hard failure, instead of scattering catch-and-default blocks.
type Status int

const (
	StatusOK Status = iota
	StatusDegraded
	StatusFatal
)

type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusOK, Value: v}
}

// Degraded carries a usable default value alongside the error that caused
// the fallback.
func Degraded[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Status: StatusDegraded, Value: v, Err: err}
}

func Fatal[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusFatal, Err: err}
}
