package gateway

import "errors"

var (
	ErrEmptyPool         = errors.New("providers array empty")
	ErrNetworkMismatch   = errors.New("networks mismatch")
	ErrInvalidEndpoint   = errors.New("invalid provider")
	ErrMethodUnsupported = errors.New("method not supported")
)

// BroadcastError is returned when every endpoint rejected a transaction.
// Errors is indexed like the pool.
type BroadcastError struct {
	Errors []error
}

// Error reports the first failure in pool order.
func (e *BroadcastError) Error() string {
	if first := e.First(); first != nil {
		return first.Error()
	}
	return "broadcast failed"
}

func (e *BroadcastError) First() error {
	for _, err := range e.Errors {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *BroadcastError) Unwrap() []error {
	return e.Errors
}
