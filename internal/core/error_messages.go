package core

// # Error Codes Reference
//
// User-facing messages carry a code that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Invalid CSV               Patterns: "invalid csv"
//	FILE003 - Unsupported format        table.ErrUnsupportedFormat
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE005 - Empty file                table.ErrNoHeader, "empty file"
//	FILE006 - Unreadable workbook       Patterns: "open workbook"
//	FILE007 - Invalid form              Patterns: "invalid form"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - No data rows               ErrEmptyTable
//	TBL002 - Too few columns            ErrInsufficientColumns
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Layout not recognized      ErrIndeterminateSchema
//	MAP002 - Invalid column selection   ErrInvalidMapping
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Non-numeric score          ErrNonNumericScore
//
// # Result Errors (RES001-RES099)
//
//	RES001 - No students found          ErrNoRecordsProduced
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy                Patterns: "too many concurrent runs"
//	RUN002 - Request cancelled          context.Canceled
//	RUN003 - Request timeout            context.DeadlineExceeded
//	RUN004 - Chart rendering failed     Patterns: "render chart"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Sentinel errors are matched first with errors.Is, in declaration order.
// Patterns are then matched case-insensitively with strings.Contains; the
// first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scorecharts/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		err: ErrEmptyTable,
		msg: UserMessage{
			Message: "The file has a header but no data rows",
			Action:  "Add one row per student below the header",
			Code:    "TBL001",
		},
	},
	{
		err: ErrInsufficientColumns,
		msg: UserMessage{
			Message: "The file needs at least 3 columns",
			Action:  "Use a student column followed by subject and percentage column pairs",
			Code:    "TBL002",
		},
	},
	{
		err: ErrIndeterminateSchema,
		msg: UserMessage{
			Message: "Subject and percentage columns could not be identified",
			Action:  "Select the student, subject and percentage columns manually",
			Code:    "MAP001",
		},
	},
	{
		err: ErrInvalidMapping,
		msg: UserMessage{
			Message: "The selected columns are not valid for this file",
			Action:  "Pick existing columns and use each column only once",
			Code:    "MAP002",
		},
	},
	{
		err: ErrNonNumericScore,
		msg: UserMessage{
			Message: "A percentage cell does not contain a number",
			Action:  "Fix the cell named in the details or leave it empty to skip it",
			Code:    "VAL001",
		},
	},
	{
		err: ErrNoRecordsProduced,
		msg: UserMessage{
			Message: "No student had a complete subject and percentage pair",
			Action:  "Check that the percentage columns are filled in",
			Code:    "RES001",
		},
	},
	{
		err: table.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx workbook or a .csv file",
			Code:    "FILE003",
		},
	},
	{
		err: table.ErrNoHeader,
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and one row per student",
			Code:    "FILE005",
		},
	},
	{
		err: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN002",
		},
	},
	{
		err: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN003",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the class list into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check for unbalanced quotes and save the file again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and one row per student",
			Code:    "FILE005",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file as .xlsx and upload it again",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "The submitted form could not be read",
			Action:  "Check the display options and upload the file again",
			Code:    "FILE007",
		},
	},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "System is busy generating other charts",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "render chart",
		msg: UserMessage{
			Message: "A chart could not be drawn",
			Action:  "Please try again or contact support",
			Code:    "RUN004",
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
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
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

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
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
