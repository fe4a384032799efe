// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package errors provides structured error handling for the scanner
// CLI.
//
// This package defines UserError, a type that carries what went wrong,
// why it happened, and how to fix it, together with consistent exit
// codes per error category. Core packages return their own typed
// errors; the CLI boundary maps them to UserError via Classify before
// showing them.
//
// # Exit Codes
//
//   - ExitSuccess (0): successful execution
//   - ExitConfig (1): configuration errors (missing/invalid config)
//   - ExitNetwork (3): archive/API errors (connection failed, timeout)
//   - ExitInput (4): invalid user input (bad arguments, bad paths)
//   - ExitPermission (5): permission denied (file access, API access)
//   - ExitCancelled (7): operator cancellation
//   - ExitInternal (10): internal errors (bugs, invariant violations)
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/SoftwareHeritage/swh-scanner/pkg/client"
)

// Exit codes for different error categories.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitNetwork    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitCancelled  = 7
	ExitInternal   = 10
)

// UserError represents an error with structured context for end users:
// what went wrong (Message), why (Cause), and how to fix it (Fix). It
// carries an exit code and optionally wraps an underlying error for
// errors.Is/As chains.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code
// ExitConfig.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfig, Err: err}
}

// NewNetworkError creates an archive communication error with exit
// code ExitNetwork.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNetwork, Err: err}
}

// NewInputError creates an input validation error with exit code
// ExitInput. Input errors do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInput}
}

// NewPermissionError creates a permission denied error with exit code
// ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPermission, Err: err}
}

// NewInternalError creates an internal error with exit code
// ExitInternal.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

// Classify maps a scan error to a UserError with the right category
// and a useful fix hint. UserErrors pass through unchanged.
func Classify(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}

	if errors.Is(err, context.Canceled) {
		return &UserError{
			Message:  "Scan cancelled",
			ExitCode: ExitCancelled,
			Err:      err,
		}
	}

	var noAccess *client.NoProvenanceAccessError
	if errors.As(err, &noAccess) {
		return NewPermissionError(
			"No access to the provenance API",
			"The archive rejected the provenance request; your account lacks provenance permission",
			"Request provenance access, or run the scan without --provenance",
			err,
		)
	}

	if errors.Is(err, client.ErrPayloadTooLarge) {
		return NewInternalError(
			"The archive rejected a query batch as too large",
			"The scanner never builds batches above the server ceiling, so this is a bug",
			"Please report it at https://gitlab.softwareheritage.org/swh/devel/swh-scanner/-/issues",
			err,
		)
	}

	var herr *client.HTTPError
	if errors.As(err, &herr) {
		return NewNetworkError(
			"The archive request failed",
			fmt.Sprintf("The archive replied %d %s on %s after all retries", herr.Status, herr.Reason, herr.Endpoint),
			"Check the API URL and your network, then try again",
			err,
		)
	}

	var perr *fs.PathError
	if errors.As(err, &perr) {
		if errors.Is(err, fs.ErrPermission) {
			return NewPermissionError(
				"Cannot read a file in the working copy",
				fmt.Sprintf("Permission denied for %s", perr.Path),
				"Fix the file permissions or exclude the path with -x",
				err,
			)
		}
		return NewInputError(
			"Cannot read the working copy",
			fmt.Sprintf("Reading %s failed: %v", perr.Path, perr.Err),
			"Make sure the scan root is a readable directory",
		)
	}

	return NewInternalError("Scan failed", err.Error(), "", err)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a colored terminal rendering of the error. Color
// output respects NO_COLOR and the noColor parameter; empty Cause and
// Fix lines are omitted.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the machine-readable rendering of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to its JSON form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints the error and exits with its code. Non-UserErrors
// are classified first. This function never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	ue := Classify(err)
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(os.Stderr, ue.Format(false))
	}
	os.Exit(ue.ExitCode)
}
