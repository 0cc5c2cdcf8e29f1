package errors

import (
	"errors"
	"fmt"
	"strings"
)

// --- Replica Core Error Types ---

// ConfigError represents an error encountered while loading or parsing an
// exclusion profile file or while applying cloner options.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that a profile document (structure, schema
// version, field names) failed validation checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// InvalidConfigurationError is returned when a clone configuration is built
// with an unusable argument, such as an empty excluded field name. It is
// raised before any clone is attempted.
type InvalidConfigurationError struct {
	Argument string
	Reason   string
}

func NewInvalidConfigurationError(argument, reason string) *InvalidConfigurationError {
	return &InvalidConfigurationError{Argument: argument, Reason: reason}
}

func (e *InvalidConfigurationError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("invalid clone configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid clone configuration: %s: %s", e.Argument, e.Reason)
}

// UninstantiableTypeError reports that no way of constructing a fresh
// instance of a type succeeded. Attempted lists the signatures of every
// constructor that was tried, in order.
type UninstantiableTypeError struct {
	TypeName  string
	Attempted []string
	Cause     error
}

func NewUninstantiableTypeError(typeName string, attempted []string, cause error) *UninstantiableTypeError {
	return &UninstantiableTypeError{TypeName: typeName, Attempted: attempted, Cause: cause}
}

func (e *UninstantiableTypeError) Error() string {
	msg := fmt.Sprintf("no usable constructor found for: %s. Available constructors: [%s]",
		e.TypeName, strings.Join(e.Attempted, ", "))
	if e.Cause != nil {
		return fmt.Sprintf("%s: last failure: %v", msg, e.Cause)
	}
	return msg
}

func (e *UninstantiableTypeError) Unwrap() error { return e.Cause }

// FieldAccessError reports a field that could not be read or written even
// after access restrictions were lifted.
type FieldAccessError struct {
	TypeName  string
	FieldName string
	Cause     error
}

func NewFieldAccessError(typeName, fieldName string, cause error) *FieldAccessError {
	return &FieldAccessError{TypeName: typeName, FieldName: fieldName, Cause: cause}
}

func (e *FieldAccessError) Error() string {
	msg := fmt.Sprintf("cannot access field '%s' of %s", e.FieldName, e.TypeName)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *FieldAccessError) Unwrap() error { return e.Cause }

// CycleStateError signals a corrupted identity registry: an original was
// already mapped to a clone of an incompatible type. It indicates a bug, not
// bad input.
type CycleStateError struct {
	Expected string
	Found    string
}

func NewCycleStateError(expected, found string) *CycleStateError {
	return &CycleStateError{Expected: expected, Found: found}
}

func (e *CycleStateError) Error() string {
	return fmt.Sprintf("identity registry holds a %s clone where a %s was expected", e.Found, e.Expected)
}

// CloneError wraps any failure raised during a clone with the type of the
// top-level value and the path from the root to the offending value.
type CloneError struct {
	TypeName  string
	FieldPath string
	Cause     error
}

func NewCloneError(typeName, fieldPath string, cause error) *CloneError {
	return &CloneError{TypeName: typeName, FieldPath: fieldPath, Cause: cause}
}

func (e *CloneError) Error() string {
	if e.FieldPath == "" {
		return fmt.Sprintf("failed to deep clone object of type: %s: %v", e.TypeName, e.Cause)
	}
	return fmt.Sprintf("failed to deep clone object of type: %s at '%s': %v", e.TypeName, e.FieldPath, e.Cause)
}

func (e *CloneError) Unwrap() error { return e.Cause }

// IsInvalidConfiguration checks if err is or wraps an InvalidConfigurationError.
func IsInvalidConfiguration(err error) bool {
	var target *InvalidConfigurationError
	return errors.As(err, &target)
}

// IsUninstantiable checks if err is or wraps an UninstantiableTypeError.
func IsUninstantiable(err error) bool {
	var target *UninstantiableTypeError
	return errors.As(err, &target)
}

// IsFieldAccess checks if err is or wraps a FieldAccessError.
func IsFieldAccess(err error) bool {
	var target *FieldAccessError
	return errors.As(err, &target)
}

// IsCycleState checks if err is or wraps a CycleStateError.
func IsCycleState(err error) bool {
	var target *CycleStateError
	return errors.As(err, &target)
}
