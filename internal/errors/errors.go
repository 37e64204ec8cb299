// Package errors provides unified error handling with structured error codes.
// Codes map onto gRPC status codes for the health/control plane and onto HTTP
// statuses for the REST surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is reported in errdetails.ErrorInfo.
const Domain = "screenrec"

// Code identifies the kind of failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeNotFound
	CodeConfigInvalid
	CodeSourceEnumerationFailed
	CodeSourceSelectionCancelled
	CodeStreamAcquisitionFailed
	CodeRecorderNotBound
	CodeEncoderFailed
	CodeSaveCancelled
	CodeFileWriteFailed
)

var codeNames = map[Code]string{
	CodeUnknown:                  "UNKNOWN",
	CodeInternal:                 "INTERNAL",
	CodeInvalidArgument:          "INVALID_ARGUMENT",
	CodeNotFound:                 "NOT_FOUND",
	CodeConfigInvalid:            "CONFIG_INVALID",
	CodeSourceEnumerationFailed:  "SOURCE_ENUMERATION_FAILED",
	CodeSourceSelectionCancelled: "SOURCE_SELECTION_CANCELLED",
	CodeStreamAcquisitionFailed:  "STREAM_ACQUISITION_FAILED",
	CodeRecorderNotBound:         "RECORDER_NOT_BOUND",
	CodeEncoderFailed:            "ENCODER_FAILED",
	CodeSaveCancelled:            "SAVE_CANCELLED",
	CodeFileWriteFailed:          "FILE_WRITE_FAILED",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// grpcCodeMap maps error codes to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:                  codes.Unknown,
	CodeInternal:                 codes.Internal,
	CodeInvalidArgument:          codes.InvalidArgument,
	CodeNotFound:                 codes.NotFound,
	CodeConfigInvalid:            codes.InvalidArgument,
	CodeSourceEnumerationFailed:  codes.Unavailable,
	CodeSourceSelectionCancelled: codes.Canceled,
	CodeStreamAcquisitionFailed:  codes.Unavailable,
	CodeRecorderNotBound:         codes.FailedPrecondition,
	CodeEncoderFailed:            codes.Internal,
	CodeSaveCancelled:            codes.Canceled,
	CodeFileWriteFailed:          codes.Internal,
}

var httpStatusMap = map[Code]int{
	CodeInvalidArgument:          http.StatusBadRequest,
	CodeConfigInvalid:            http.StatusBadRequest,
	CodeNotFound:                 http.StatusNotFound,
	CodeSourceEnumerationFailed:  http.StatusServiceUnavailable,
	CodeSourceSelectionCancelled: http.StatusConflict,
	CodeStreamAcquisitionFailed:  http.StatusServiceUnavailable,
	CodeRecorderNotBound:         http.StatusConflict,
	CodeSaveCancelled:            http.StatusConflict,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// HTTPStatus returns the status code the control server answers with.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatusMap[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns a gRPC status with an ErrorInfo detail attached.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Error())
	info := &errdetails.ErrorInfo{Reason: e.Code.String(), Domain: Domain, Metadata: e.Metadata}
	if withInfo, err := st.WithDetails(info); err == nil {
		return withInfo
	}
	return st
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code anywhere in its chain.
func IsCode(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }
