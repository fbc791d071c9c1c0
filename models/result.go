package models

type ListState int

const (
	ListLoading ListState = iota
	ListLoaded
	ListEmpty
	ListFailed
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListEmpty:
		return "empty"
	case ListFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ListResult keeps "nothing found" and "fetch failed" apart.
type ListResult[T any] struct {
	State ListState
	Items []T
	Err   error
}

func Loading[T any]() ListResult[T] {
	return ListResult[T]{State: ListLoading}
}

// Loaded returns an Empty result when items is empty.
func Loaded[T any](items []T) ListResult[T] {
	if len(items) == 0 {
		return ListResult[T]{State: ListEmpty}
	}
	return ListResult[T]{State: ListLoaded, Items: items}
}

func Failed[T any](err error) ListResult[T] {
	return ListResult[T]{State: ListFailed, Err: err}
}
