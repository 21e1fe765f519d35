package async

import "fmt"

// KeyError names the entry of an All combinator that failed first.
type KeyError[K comparable] struct {
	Key K
	Err error
}

func (e *KeyError[K]) Error() string {
	return fmt.Sprintf("%v: %v", e.Key, e.Err)
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (e *KeyError[K]) Unwrap() error {
	return e.Err
}

// PanicError rejects a future whose operation or continuation panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", e.Value)
}
