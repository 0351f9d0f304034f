// Package options implements the generic functional-option pattern used by
// the configurable pathviz types (batch.Processor, path.Store, worker.Worker).
//
// Public packages alias Option[T] to their own option type and build setters
// with New (validating) or NoError (infallible):
//
//	type StoreOption = options.Option[*Store]
//
//	func WithCapacity(n int) StoreOption {
//	    return options.New(func(s *Store) error { return s.setCapacity(n) })
//	}
package options

// Option represents a functional option for configuring any type T.
type Option[T any] interface {
	apply(T) error
}

// Func is a generic functional option that wraps a function.
// It implements the Option interface for any type T.
type Func[T any] struct {
	applyFunc func(T) error
}

// apply implements the Option interface.
func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates a new functional option from a function that may fail.
// Validation errors surface from the constructor the option is passed to.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// Apply applies multiple options to a target object in order, stopping at
// the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}

// NoError creates a functional option from a function that doesn't return an error.
// This is a convenience function for options that can't fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}
