package repositories

import (
	"context"
	"database/sql/driver"
	"net"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist. It is never used to mean "still loading".
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record already exists")
	// ErrCounterFloor is returned when a decrement was refused because the counter is already
	// below the amount. The item exists and nothing was written.
	ErrCounterFloor = errors.New("counter already at floor")
)

// TransientError marks a failure to reach the backing store. The operation may be retried.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": store unavailable: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// Retryable is what callers check to offer a retry.
func (e *TransientError) Retryable() bool { return true }

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classify maps driver errors to the repository taxonomy and annotates them with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), mongo.IsDuplicateKeyError(err):
		return ErrConflict
	case isUnreachable(err):
		return &TransientError{Op: op, Err: err}
	}
	return errors.Wrap(err, op)
}

func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
