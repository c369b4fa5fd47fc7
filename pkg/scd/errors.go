package scd

import "fmt"

// ConfigError reports an invalid constructor argument. It is always raised
// before any I/O against the backing table.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scd: invalid config for %s: %s", e.Field, e.Message)
}

// NewConfigError creates a ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// SchemaError reports that the backing table is missing a required column,
// or that a column's values are incompatible with the encoding the engine
// expects (e.g. a non-boolean scd_current).
type SchemaError struct {
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("scd: schema error on column %s: %s", e.Column, e.Message)
}

// NewSchemaError creates a SchemaError.
func NewSchemaError(column, message string) *SchemaError {
	return &SchemaError{Column: column, Message: message}
}

// StorageError wraps a failure from the underlying store.Table. It is never
// retried by the engine; counters already incremented for fully-applied
// sub-batches (see Mutation Applier step ordering) remain as-is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("scd: storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError, or returns nil if err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// InvariantViolation indicates the engine detected a state that should be
// unreachable under correct use — duplicate current row per key,
// non-monotonic version, or a hash mismatch after write-back. It signals a
// bug in the engine or external tampering with the table, not a normal
// runtime condition.
type InvariantViolation struct {
	Invariant string
	Message   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("scd: invariant violated (%s): %s", e.Invariant, e.Message)
}

// NewInvariantViolation creates an InvariantViolation.
func NewInvariantViolation(invariant, message string) *InvariantViolation {
	return &InvariantViolation{Invariant: invariant, Message: message}
}
