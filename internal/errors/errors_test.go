package errors

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeFileWriteFailed, "write artifact").WithMetadata("path", "/tmp/out.webm")

	msg := err.Error()
	for _, want := range []string{"[FILE_WRITE_FAILED]", "write artifact", "/tmp/out.webm", "unexpected EOF"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeRecorderNotBound, "no source selected")
	wrapped := fmt.Errorf("start: %w", base)

	if !IsCode(wrapped, CodeRecorderNotBound) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode matched the wrong code")
	}
	if got := CodeOf(io.EOF); got != CodeUnknown {
		t.Errorf("CodeOf(io.EOF) = %v, want %v", got, CodeUnknown)
	}
}

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		code     Code
		grpcCode codes.Code
		httpCode int
	}{
		{CodeRecorderNotBound, codes.FailedPrecondition, http.StatusConflict},
		{CodeStreamAcquisitionFailed, codes.Unavailable, http.StatusServiceUnavailable},
		{CodeSourceEnumerationFailed, codes.Unavailable, http.StatusServiceUnavailable},
		{CodeNotFound, codes.NotFound, http.StatusNotFound},
		{CodeInvalidArgument, codes.InvalidArgument, http.StatusBadRequest},
		{CodeFileWriteFailed, codes.Internal, http.StatusInternalServerError},
		{Code(99), codes.Unknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := New(tt.code, "x")
		if got := err.GRPCCode(); got != tt.grpcCode {
			t.Errorf("%v.GRPCCode() = %v, want %v", tt.code, got, tt.grpcCode)
		}
		if got := err.HTTPStatus(); got != tt.httpCode {
			t.Errorf("%v.HTTPStatus() = %d, want %d", tt.code, got, tt.httpCode)
		}
	}
}

func TestGRPCStatusDetails(t *testing.T) {
	st := New(CodeStreamAcquisitionFailed, "permission denied").WithMetadata("source", "screen:0").GRPCStatus()

	if st.Code() != codes.Unavailable {
		t.Errorf("Code() = %v, want %v", st.Code(), codes.Unavailable)
	}
	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("Details() = %v, want one ErrorInfo", details)
	}
	info, ok := details[0].(*errdetails.ErrorInfo)
	if !ok {
		t.Fatalf("detail = %T, want *errdetails.ErrorInfo", details[0])
	}
	if info.Reason != "STREAM_ACQUISITION_FAILED" || info.Domain != Domain {
		t.Errorf("ErrorInfo = %s/%s, want STREAM_ACQUISITION_FAILED/%s", info.Domain, info.Reason, Domain)
	}
	if info.Metadata["source"] != "screen:0" {
		t.Errorf("Metadata[source] = %q, want %q", info.Metadata["source"], "screen:0")
	}
}

func TestCodeString(t *testing.T) {
	if got := CodeSaveCancelled.String(); got != "SAVE_CANCELLED" {
		t.Errorf("String() = %q, want %q", got, "SAVE_CANCELLED")
	}
	if got := Code(42).String(); got != "CODE(42)" {
		t.Errorf("String() = %q, want %q", got, "CODE(42)")
	}
}
