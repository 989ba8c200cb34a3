// Package core provides the reconciliation engine and the service that runs it.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a reconciliation fails, users can quote the code so staff can tell a bad
// upload from a server fault without reading logs first.
//
// Typed engine errors are matched with errors.As before any text pattern is
// tried, so wrapping an engine error never changes its code.
//
// # Sheet Errors (SCH001-SCH099)
//
//	SCH001 - Missing column: A required column was not found in one of the files
//	         Action: Rename the column to one of the accepted headers and upload again
//	         Types: *SchemaError
//
//	SCH002 - No PRNs: Every row of a file had an empty or invalid PRN
//	         Action: Check that the PRN column is filled in
//	         Types: *NoValidIdentifiersError
//
//	SCH003 - Header not found: No header row within the first rows of a file
//	         Action: Make sure the column titles are in one of the first 10 rows
//	         Types: *HeaderNotFoundError
//
// # Reconciliation Errors (REC001-REC099)
//
//	REC001 - Empty roster: The Roll Call file has no students
//	         Action: Upload a Roll Call file with at least one student row
//	         Types: *EmptyRosterError, ErrEmptyRoster
//
//	REC002 - Attempt merge failed: Internal consistency check failed
//	         Action: Contact support with this code
//	         Types: *DeduplicationInvariantError
//
//	REC003 - Duplicate PRN: The master report would list a PRN twice
//	         Action: Remove repeated PRNs from the Roll Call file
//	         Types: *DuplicateIdentifierInvariantError
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	FILE002 - Unsupported type: Only .xlsx, .xlsm and .csv are accepted
//	FILE003 - Unreadable file: The workbook could not be opened
//	FILE004 - No file: One of the two files was not selected
//	FILE005 - Empty file: The uploaded file is empty
//	FILE006 - Invalid year: The academic year is not recognized
//	FILE007 - Not found: The requested report does not exist or has expired
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many reconciliations in progress
//	RUN002 - Request cancelled
//	RUN003 - Request timeout
//	RUN004 - Report write failed
//	RUN005 - Rate limited
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check the
// application logs for the original technical error.
package core

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

// typedMessages maps typed errors to their codes. Checked in order.
var typedMessages = []struct {
	match func(error) bool
	msg   func(error) UserMessage
}{
	{
		match: func(err error) bool { var e *SchemaError; return errors.As(err, &e) },
		msg: func(err error) UserMessage {
			var e *SchemaError
			errors.As(err, &e)
			return UserMessage{
				Message: fmt.Sprintf("Missing required column in %s file: %s", e.Source.Title(), strings.Join(e.Labels, ", ")),
				Action:  "Available columns: " + strings.Join(e.Headers, ", "),
				Code:    "SCH001",
			}
		},
	},
	{
		match: func(err error) bool { var e *NoValidIdentifiersError; return errors.As(err, &e) },
		msg: func(err error) UserMessage {
			var e *NoValidIdentifiersError
			errors.As(err, &e)
			return UserMessage{
				Message: fmt.Sprintf("No valid PRN values found in %s file", e.Source.Title()),
				Action:  "Check that the PRN column is filled in",
				Code:    "SCH002",
			}
		},
	},
	{
		match: func(err error) bool { var e *HeaderNotFoundError; return errors.As(err, &e) },
		msg: func(err error) UserMessage {
			return UserMessage{
				Message: "Could not find the header row",
				Action:  "Make sure the column titles are in one of the first 10 rows",
				Code:    "SCH003",
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, ErrEmptyRoster) },
		msg: func(error) UserMessage {
			return UserMessage{
				Message: "The Roll Call file has no students",
				Action:  "Upload a Roll Call file with at least one student row",
				Code:    "REC001",
			}
		},
	},
	{
		match: func(err error) bool { var e *DeduplicationInvariantError; return errors.As(err, &e) },
		msg: func(error) UserMessage {
			return UserMessage{
				Message: "Exam attempts could not be merged",
				Action:  "Please contact support with this code",
				Code:    "REC002",
			}
		},
	},
	{
		match: func(err error) bool { var e *DuplicateIdentifierInvariantError; return errors.As(err, &e) },
		msg: func(err error) UserMessage {
			var e *DuplicateIdentifierInvariantError
			errors.As(err, &e)
			return UserMessage{
				Message: "The Roll Call file lists the same PRN more than once: " + strings.Join(e.Identifiers, ", "),
				Action:  "Remove the repeated rows and upload again",
				Code:    "REC003",
			}
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused sheets or rows and upload again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Save the file as .xlsx or .csv and upload again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The file could not be read as a spreadsheet",
			Action:  "Open the file in Excel, save it as .xlsx and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Ensure the file is comma-separated with one header row",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Both FCTC file and Roll Call file are required",
			Action:  "Select both files before submitting",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and student rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid year",
		msg: UserMessage{
			Message: "Invalid academic year",
			Action:  "Choose one of I, II or III",
			Code:    "FILE006",
		},
	},
	{
		pattern: "output not found",
		msg: UserMessage{
			Message: "Report not found",
			Action:  "Reports expire after a while. Run the reconciliation again",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN005)
	// =========================================================================
	{
		pattern: "too many reconciliations",
		msg: UserMessage{
			Message: "System is busy processing other reports",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or try again later",
			Code:    "RUN003",
		},
	},
	{
		pattern: "write master report",
		msg: UserMessage{
			Message: "The report could not be saved",
			Action:  "Please try again or contact support",
			Code:    "RUN004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RUN005",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed engine errors are recognized first; then the known text patterns
// are searched case-insensitively. If nothing matches, a generic fallback
// message with code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("extract exam: %w", &SchemaError{...})
//	msg := MapError(err)
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, tm := range typedMessages {
		if tm.match(err) {
			return tm.msg(err)
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

// IsUserFacing checks if an error matches a known type or pattern and should
// be shown to users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
//
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
