package tooluse

import (
	"errors"
	"fmt"
)

// Sentinel errors for tooluse. Use errors.Is to check.
var (
	ErrUnknownTool        = errors.New("unknown tool")
	ErrMalformedArguments = errors.New("malformed tool arguments")
	ErrInvalidParams      = errors.New("invalid tool parameters")
	ErrToolNotFound       = errors.New("tool not registered")
	ErrTimeout            = errors.New("tool execution timeout")
	ErrShutdown           = errors.New("registry is shutting down")
)

// ClientError is an error that should be sent back to the model for self-correction
// (unknown tool, undecodable arguments, missing parameter).
// Do not expose stack traces or internal details to the model.
// Err optionally wraps a sentinel (e.g. ErrInvalidParams) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrInvalidParams)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, host fault, etc.).
// The model should not see the underlying error message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// MissingParamError reports a required parameter that is absent or empty.
type MissingParamError struct {
	Tool  ToolName
	Param ParamName
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing value for required parameter '%s' of %s", e.Param, e.Tool)
}

// Is makes errors.Is(err, ErrInvalidParams) hold for missing parameters.
func (e *MissingParamError) Is(target error) bool { return target == ErrInvalidParams }

// Missing returns a MissingParamError for tool and param.
func Missing(tool ToolName, param ParamName) error {
	return &MissingParamError{Tool: tool, Param: param}
}

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// FormatToolError renders msg the way failed calls are shown to the model.
func FormatToolError(msg string) string {
	return "The tool execution failed with the following error:\n<error>\n" + msg + "\n</error>"
}

// FormatMissingParam renders the model-facing text for a missing parameter.
func FormatMissingParam(tool ToolName, param ParamName) string {
	return fmt.Sprintf("Missing value for required parameter '%s'. Please retry with complete response.\n\n"+
		"Tool uses are formatted using XML-style tags or a native function call. "+
		"Use the %s tool with all of its required parameters.", param, tool)
}

// modelMessage picks the text shown to the model for err. SystemError details stay hidden.
func modelMessage(name ToolName, err error) string {
	var mp *MissingParamError
	if errors.As(err, &mp) {
		return FormatMissingParam(mp.Tool, mp.Param)
	}
	if IsSystemError(err) {
		return FormatToolError(err.Error())
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return FormatToolError(ce.Reason)
	}
	return FormatToolError(fmt.Sprintf("%s: %v", name, err))
}

// FormatDenied renders the model-facing text for a rejected approval.
func FormatDenied(feedback string) string {
	if feedback == "" {
		return "The user denied this operation."
	}
	return "The user denied this operation and provided the following feedback:\n<feedback>\n" + feedback + "\n</feedback>"
}
