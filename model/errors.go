package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindUnauthorized           ErrorKind = "UNAUTHORIZED"
	KindInvalidStateTransition ErrorKind = "INVALID_STATE_TRANSITION"
	KindValidation             ErrorKind = "VALIDATION_ERROR"
	KindPartialBatchFailure    ErrorKind = "PARTIAL_BATCH_FAILURE"
)

const (
	ReasonNothingToUndo          = "NOTHING_TO_UNDO"
	ReasonPeriodRolled           = "PERIOD_ROLLED"
	ReasonAlreadyOwnedByOther    = "ALREADY_OWNED_BY_OTHER_USER"
	ReasonUnknownFrequency       = "UNKNOWN_FREQUENCY"
	ReasonNegativeStreak         = "NEGATIVE_STREAK"
	ReasonInvalidItem            = "INVALID_ITEM"
	ReasonRoutineLinkUnavailable = "ROUTINE_LINK_UNAVAILABLE"
)

// Error is the engine's typed failure. Kind is machine readable, Reason narrows
// it further, Message is meant for humans.
type Error struct {
	Kind     ErrorKind
	Reason   string
	Message  string
	EntityID string
}

func (e *Error) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Kind, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches on Kind, and on Reason when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition, Message: "invalid state transition"}
	ErrValidation             = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrPartialBatchFailure    = &Error{Kind: KindPartialBatchFailure, Message: "batch finished with failures"}

	ErrNothingToUndo = &Error{Kind: KindInvalidStateTransition, Reason: ReasonNothingToUndo, Message: "nothing to undo"}
	ErrPeriodRolled  = &Error{Kind: KindInvalidStateTransition, Reason: ReasonPeriodRolled, Message: "period has already rolled over"}
	ErrNotOwner      = &Error{Kind: KindUnauthorized, Reason: ReasonAlreadyOwnedByOther, Message: "item belongs to another user"}
)

func NewError(kind ErrorKind, reason, entityID, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Reason:   reason,
		Message:  fmt.Sprintf(format, args...),
		EntityID: entityID,
	}
}

func NotFound(entityID string) *Error {
	return NewError(KindNotFound, "", entityID, "item not found")
}

// KindOf returns the engine kind of err, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the reason of an engine error, if any.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
