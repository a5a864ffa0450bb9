package bridge

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// ErrUnknownAction is returned by transports when Execute reports an unhandled action
var ErrUnknownAction = errors.New("method not found")

// ErrorDocument is the structured error delivered to callers
type ErrorDocument struct {
	Error      string `json:"error"`
	Stacktrace string `json:"stacktrace"`
}

// NewErrorDocument captures err with the stack of the caller
func NewErrorDocument(err error) ErrorDocument {
	if err == nil {
		err = errors.New("unknown error")
	}
	wrapped := goerrors.Wrap(err, 1)
	return ErrorDocument{
		Error:      err.Error(),
		Stacktrace: string(wrapped.Stack()),
	}
}

// panicDocument converts a recovered panic value
func panicDocument(r interface{}) ErrorDocument {
	wrapped := goerrors.Wrap(r, 2)
	return ErrorDocument{
		Error:      fmt.Sprintf("panic: %v", r),
		Stacktrace: string(wrapped.Stack()),
	}
}
