package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/railtix/internal/logger"
	"gorm.io/gorm"
)

// SaveConflictMessage is shown to administrators when a write loses a race on
// a unique index.
const SaveConflictMessage = "Unable to save changes. Please check for duplicate URLs or slugs."

// ErrSaveConflict reports a unique constraint violation raised at commit time.
var ErrSaveConflict = errors.New("save conflict")

// FieldError is one message attached to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level failures. Nothing is written when an
// operation returns one.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field, keeping only the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Has(field) {
		return
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Map returns the errors keyed by field name.
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Merge copies field messages from a map, in key order.
func (e *ValidationError) Merge(fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Add(k, fields[k])
	}
}

// OrNil returns e as an error only when it holds at least one field.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// isConstraintViolation recognises unique index failures whether or not the
// gorm dialector translated them.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

// translateWriteError maps constraint violations onto ErrSaveConflict.
func translateWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		logger.Warn("Write rejected by unique index", map[string]interface{}{"op": op, "error": err.Error()})
		return ErrSaveConflict
	}
	return err
}
