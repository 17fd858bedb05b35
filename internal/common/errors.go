package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error kinds shared by the pipeline stages. Wrap them with %w; the gRPC
// layer turns them into status codes through ToStatus.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")

	// ErrBadRecord: an exam JSON file that does not match the record schema.
	ErrBadRecord = errors.New("malformed exam record")
	// ErrUnsupportedLayout: no layout rule covers the paper.
	ErrUnsupportedLayout = errors.New("unsupported layout")
	// ErrMissingFile: the record names no PDF, or the PDF cannot be fetched.
	ErrMissingFile = errors.New("missing source file")
	// ErrCountMismatch: the question and answer sheets disagree on length.
	ErrCountMismatch = errors.New("question/answer count mismatch")
)

// ConfigError names the environment variable that failed a command's checks.
type ConfigError struct {
	Var     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Var == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.Var, e.Message)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidInput }

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func InvalidArgumentErrorf(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func InternalErrorf(format string, args ...any) error {
	return status.Errorf(codes.Internal, format, args...)
}

// ToStatus maps an error kind onto a gRPC status carrying message.
func ToStatus(err error, message string) error {
	var code codes.Code
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, ErrBadRecord), errors.Is(err, ErrUnsupportedLayout),
		errors.Is(err, ErrMissingFile), errors.Is(err, ErrCountMismatch):
		code = codes.FailedPrecondition
	case errors.Is(err, ErrDatabase):
		code = codes.Unavailable
	default:
		code = codes.Internal
	}
	return status.Error(code, message)
}
