package ban

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no record exists for an address.
var ErrNotFound = errors.New("ban record not found")

// ErrorCode categorizes failures.
type ErrorCode string

const (
	// ErrCodeConfig indicates missing or invalid configuration. Fatal to the run.
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeFirewallQuery indicates the current enforcement state could not be
	// determined. Aborts the current pass without any mutation.
	ErrCodeFirewallQuery ErrorCode = "FIREWALL_QUERY"

	// ErrCodeFirewallAction indicates a single ban/unban call failed.
	ErrCodeFirewallAction ErrorCode = "FIREWALL_ACTION"

	// ErrCodeStoreWrite indicates persistence failed for one record.
	ErrCodeStoreWrite ErrorCode = "STORE_WRITE"

	// ErrCodeStoreRead indicates stored records could not be listed or read.
	ErrCodeStoreRead ErrorCode = "STORE_READ"

	// ErrCodeSourceRead indicates a log file was missing or unreadable.
	ErrCodeSourceRead ErrorCode = "SOURCE_READ"

	// ErrCodePatternCompile indicates a malformed pattern.
	ErrCodePatternCompile ErrorCode = "PATTERN_COMPILE"
)

// Error is the error type shared by all logwarden components.
//
// Address is set for per-item failures (a single ban, unban or store write).
// Subject names the offending file or pattern for source and pattern errors.
type Error struct {
	Code    ErrorCode
	Message string
	Address string
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Address != "":
		msg += fmt.Sprintf(" (address=%s)", e.Address)
	case e.Subject != "":
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewItemError creates an Error for a failure concerning one address.
func NewItemError(code ErrorCode, address, message string, err error) *Error {
	return &Error{Code: code, Message: message, Address: address, Err: err}
}

// CodeOf returns the code of the first Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFirewallQueryError reports whether err means the enforcement state is unknown.
func IsFirewallQueryError(err error) bool {
	return CodeOf(err) == ErrCodeFirewallQuery
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return CodeOf(err) == ErrCodeConfig
}

// AddressOf returns the address attached to err, or "" if none.
func AddressOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Address
	}
	return ""
}
