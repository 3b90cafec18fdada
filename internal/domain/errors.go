package domain

import (
	"errors"
	"fmt"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Lookup errors
	ErrMsgNotFound          = "not found"
	ErrMsgSetNotFound       = "catalog set"
	ErrMsgPartNotFound      = "catalog part"
	ErrMsgColorNotFound     = "catalog color"
	ErrMsgMinifigNotFound   = "catalog minifigure"
	ErrMsgThemeNotFound     = "catalog theme"
	ErrMsgOwnedSetNotFound  = "owned set"
	ErrMsgOwnedPartNotFound = "owned part"
	ErrMsgSlotNotFound      = "storage slot"
	ErrMsgTemplateNotSynced = "set template composition"

	// Constraint errors
	ErrMsgDuplicate = "duplicate constraint violation"

	// Sync errors
	ErrMsgTransport       = "catalog source unavailable"
	ErrMsgMalformedRecord = "malformed record"

	// Validation errors
	ErrMsgValidation      = "validation failed"
	ErrMsgInvalidQuantity = "quantity must not be negative"
	ErrMsgInvalidStatus   = "invalid set status"
	ErrMsgInvalidField    = "invalid storage field"
	ErrMsgInvalidKind     = "invalid entity kind"
	ErrMsgMissingScope    = "scope is required for composition kinds"
	ErrMsgEmptyLocation   = "site, level and box are required"
	ErrMsgOutOfRange      = "value out of range"
	ErrMsgPushDisabled    = "account list push needs a user token"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrNotFound        = errors.New(ErrMsgNotFound)
	ErrDuplicate       = errors.New(ErrMsgDuplicate)
	ErrTransport       = errors.New(ErrMsgTransport)
	ErrMalformedRecord = errors.New(ErrMsgMalformedRecord)
	ErrValidation      = errors.New(ErrMsgValidation)
)

// Specific lookup failures; all match ErrNotFound with errors.Is
var (
	ErrSetNotFound       = fmt.Errorf("%s %w", ErrMsgSetNotFound, ErrNotFound)
	ErrPartNotFound      = fmt.Errorf("%s %w", ErrMsgPartNotFound, ErrNotFound)
	ErrColorNotFound     = fmt.Errorf("%s %w", ErrMsgColorNotFound, ErrNotFound)
	ErrMinifigNotFound   = fmt.Errorf("%s %w", ErrMsgMinifigNotFound, ErrNotFound)
	ErrThemeNotFound     = fmt.Errorf("%s %w", ErrMsgThemeNotFound, ErrNotFound)
	ErrOwnedSetNotFound  = fmt.Errorf("%s %w", ErrMsgOwnedSetNotFound, ErrNotFound)
	ErrOwnedPartNotFound = fmt.Errorf("%s %w", ErrMsgOwnedPartNotFound, ErrNotFound)
	ErrSlotNotFound      = fmt.Errorf("%s %w", ErrMsgSlotNotFound, ErrNotFound)
	// ErrTemplateNotSynced means the set exists but its part list was never fetched
	ErrTemplateNotSynced = fmt.Errorf("%s %w", ErrMsgTemplateNotSynced, ErrNotFound)
)

// Specific validation failures; all match ErrValidation with errors.Is
var (
	ErrInvalidQuantity = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidQuantity)
	ErrInvalidStatus   = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidStatus)
	ErrInvalidField    = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidField)
	ErrInvalidKind     = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidKind)
	ErrMissingScope    = fmt.Errorf("%w: %s", ErrValidation, ErrMsgMissingScope)
	ErrEmptyLocation   = fmt.Errorf("%w: %s", ErrValidation, ErrMsgEmptyLocation)
	ErrOutOfRange      = fmt.Errorf("%w: %s", ErrValidation, ErrMsgOutOfRange)
	ErrPushDisabled    = fmt.Errorf("%w: %s", ErrValidation, ErrMsgPushDisabled)
)
