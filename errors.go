package linktable

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for link-table operations.
var (
	// ErrConfiguration is returned when a relationship mapping is broken or
	// inconsistent, e.g. an inverse side whose back-reference does not resolve.
	ErrConfiguration = errors.New("linktable: invalid mapping configuration")

	// ErrUnsupported is returned when an operation is not supported by the
	// collection it was invoked on, e.g. a key lookup on a non-indexed collection.
	ErrUnsupported = errors.New("linktable: unsupported operation")

	// ErrNotManaged is returned by identity resolvers for entities that have no
	// persistent identity yet (new or detached entities).
	ErrNotManaged = errors.New("linktable: entity is not managed")

	// ErrOverlappingDiff is returned when an element appears in both the
	// insertions and the deletions of a change diff.
	ErrOverlappingDiff = errors.New("linktable: element present in both insert and delete diff")
)

// ConfigurationError represents a broken relationship or entity mapping.
type ConfigurationError struct {
	Entity string // Entity type the mapping belongs to
	Field  string // Field, column or association name (optional)
	Reason string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("linktable: mapping %s.%s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("linktable: mapping %s: %s", e.Entity, e.Reason)
}

// Is reports whether the target error matches ConfigurationError.
// This allows errors.Is(err, ErrConfiguration) to return true.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigurationError returns a new ConfigurationError with a formatted reason.
func NewConfigurationError(entity, field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// UnsupportedOperationError represents an operation invoked on a collection
// that cannot support it. It indicates programmer misuse.
type UnsupportedOperationError struct {
	Op     string // Operation (e.g., "containsKey", "get")
	Reason string
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("linktable: %s is not supported: %s", e.Op, e.Reason)
}

// Is reports whether the target error matches UnsupportedOperationError.
func (e *UnsupportedOperationError) Is(err error) bool {
	return err == ErrUnsupported
}

// NewUnsupportedOperationError returns a new UnsupportedOperationError.
func NewUnsupportedOperationError(op, format string, args ...any) *UnsupportedOperationError {
	return &UnsupportedOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsUnsupportedOperation returns true if the error is an UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperationError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupported)
}

// IsNotManaged returns true if the error reports an entity without persistent identity.
func IsNotManaged(err error) bool {
	return err != nil && errors.Is(err, ErrNotManaged)
}
