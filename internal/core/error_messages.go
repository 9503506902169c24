package core

// error_messages.go maps errors to user-friendly messages with codes for
// support reference. Codes are grouped by category:
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - Unknown unit: The unit is not defined for this category
//	          Action: Pick one of the units listed for the category
//	CONV002 - Invalid factor: The category data has a bad factor for this unit
//	          Action: Report the unit to the catalog maintainer
//	CONV003 - Division by zero: The target unit has a zero factor
//	          Action: Report the unit to the catalog maintainer
//	CONV004 - Overflow: The result is too large to represent
//	          Action: Convert a smaller value
//	CONV005 - Invalid value: The value is not a finite number
//	          Action: Enter a finite number
//
// # Category Errors (CAT001-CAT099)
//
//	CAT001 - Unknown category: The category does not exist
//	         Action: Pick one of the listed categories
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request: The request could not be read
//	         Patterns: "invalid request"
//	REQ002 - Batch too large: Too many items in one batch
//	         Patterns: "batch too large"
//	REQ003 - Too many batches: Too many batch conversions in progress
//	         Matched by: ErrTooManyBatches
//	REQ004 - Request cancelled
//	         Patterns: "context canceled"
//	REQ005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - History unavailable: Conversion history could not be read
//	          Patterns: "connection refused", "history"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Typed errors are matched with errors.Is before any string pattern.
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedMessages maps sentinel errors to user messages. Checked in order.
var typedMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrUnknownUnit, UserMessage{
		Message: "The unit is not defined for this category",
		Action:  "Pick one of the units listed for the category",
		Code:    "CONV001",
	}},
	{ErrInvalidFactor, UserMessage{
		Message: "The conversion factor for this unit is invalid",
		Action:  "Report the unit to the catalog maintainer",
		Code:    "CONV002",
	}},
	{ErrDivisionByZero, UserMessage{
		Message: "The target unit has a zero conversion factor",
		Action:  "Report the unit to the catalog maintainer",
		Code:    "CONV003",
	}},
	{ErrOverflow, UserMessage{
		Message: "The result is too large to represent",
		Action:  "Convert a smaller value",
		Code:    "CONV004",
	}},
	{ErrInvalidValue, UserMessage{
		Message: "The value is not a finite number",
		Action:  "Enter a finite number",
		Code:    "CONV005",
	}},
	{ErrUnknownCategory, UserMessage{
		Message: "The category does not exist",
		Action:  "Pick one of the listed categories",
		Code:    "CAT001",
	}},
	{ErrTooManyBatches, UserMessage{
		Message: "Too many batch conversions in progress",
		Action:  "Please wait a moment and try again",
		Code:    "REQ003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send category, from, to and a numeric value",
			Code:    "REQ001",
		},
	},
	{
		pattern: "batch too large",
		msg: UserMessage{
			Message: "Too many items in one batch",
			Action:  "Split the batch into smaller requests",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Conversion history is unavailable",
			Action:  "Conversions still work; try history again later",
			Code:    "HIST001",
		},
	},
	{
		pattern: "history",
		msg: UserMessage{
			Message: "Conversion history is unavailable",
			Action:  "Conversions still work; try history again later",
			Code:    "HIST001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, tm := range typedMessages {
		if errors.Is(err, tm.target) {
			return tm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// OffendingUnit returns the unit symbol a conversion error refers to, or ""
// if err is not about a specific unit.
func OffendingUnit(err error) string {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Unit
	}
	return ""
}

// IsRequestError reports whether err was caused by the caller's input (as
// opposed to bad catalog data or an internal failure).
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnknownUnit) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrOverflow) ||
		errors.Is(err, ErrUnknownCategory)
}
