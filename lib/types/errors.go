package types

import "fmt"

// ErrCode classifies a CmdError.
type ErrCode uint16

const (
	ErrCodeUnknown ErrCode = iota
	ErrCodeUnknownDatabase
	ErrCodeInvalidCommand
)

// String returns the name of the error code.
func (c ErrCode) String() string {
	switch c {
	case ErrCodeUnknownDatabase:
		return "UnknownDatabase"
	case ErrCodeInvalidCommand:
		return "InvalidCommand"
	default:
		return "Unknown"
	}
}

// CmdError is a deterministic command rejection. It is part of the applied
// result, so every replica records the same error for the same entry.
type CmdError struct {
	Code ErrCode `json:"code"`
	Msg  string  `json:"msg"`
}

func (e *CmdError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewCmdError creates a CmdError with a formatted message.
func NewCmdError(code ErrCode, format string, args ...any) *CmdError {
	return &CmdError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
