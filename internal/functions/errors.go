package functions

import (
	"errors"

	"github.com/tsflow/sidecar/internal/credential"
	"github.com/tsflow/sidecar/internal/seeq"
	"github.com/tsflow/sidecar/internal/sheet"
)

// Kind buckets every way a spreadsheet function can fail. The add-in shows
// these as cell text, so each kind keeps a message a spreadsheet user can
// act on.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindNotAuthenticated
	KindWindowTooShort
	KindRemoteFailure
	KindNoData
)

const signInMessage = "Not signed in to Seeq. Open the TSFlow task pane and sign in, then try again."

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) hint() string {
	switch e.Kind {
	case KindNotAuthenticated:
		return "Use the task pane's Connection tab to sign in."
	case KindWindowTooShort:
		return "Widen the window or request fewer points."
	}
	return ""
}

// classify folds the lower layers' error types into the function taxonomy.
// Anything already classified passes through untouched.
func classify(err error) error {
	var fnErr *Error
	if errors.As(err, &fnErr) {
		return err
	}
	var parseErr *sheet.ParseError
	if errors.As(err, &parseErr) {
		return &Error{Kind: KindInvalidInput, Message: parseErr.Error(), cause: err}
	}
	var resErr *sheet.ResolutionError
	if errors.As(err, &resErr) {
		kind := KindInvalidInput
		if resErr.Kind == sheet.WindowTooShort {
			kind = KindWindowTooShort
		}
		return &Error{Kind: kind, Message: resErr.Error(), cause: err}
	}
	if errors.Is(err, credential.ErrNoCredentials) {
		return &Error{Kind: KindNotAuthenticated, Message: signInMessage, cause: err}
	}
	var remoteErr *seeq.RemoteError
	if errors.As(err, &remoteErr) {
		return &Error{Kind: KindRemoteFailure, Message: remoteErr.Error(), cause: err}
	}
	return &Error{Kind: KindRemoteFailure, Message: err.Error(), cause: err}
}

// ErrorTable renders a function failure as spillable rows. Failures reach
// the sheet as cell text, never as a transport error.
func ErrorTable(err error) sheet.Table {
	var fnErr *Error
	if errors.As(err, &fnErr) {
		lines := []string{"Error: " + fnErr.Message}
		if hint := fnErr.hint(); hint != "" {
			lines = append(lines, hint)
		}
		return sheet.MessageTable(lines...)
	}
	return sheet.MessageTable("Error: " + err.Error())
}

// ErrorString renders a function failure for single-cell functions.
func ErrorString(err error) string {
	var fnErr *Error
	if errors.As(err, &fnErr) {
		return "Error: " + fnErr.Message
	}
	return "Error: " + err.Error()
}
