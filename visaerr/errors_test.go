package visaerr

import (
	"errors"
	"testing"
)

func TestOf_RecognizesVariants(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{&ParseError{Input: "X", Reason: "bad"}, CodeParseError},
		{&InvalidSession{Op: "read"}, CodeInvalidSession},
		{&Timeout{Op: "read", TimeoutMS: 10}, CodeTimeout},
		{&ProtocolError{Reason: "no sentinel"}, CodeProtocolError},
		{errors.New("opaque"), CodeIOError},
		{nil, ""},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Errorf("Of(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestHandlerError_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	he := &HandlerError{EventType: "service_request", Cause: cause}
	if !errors.Is(he, cause) {
		t.Fatalf("HandlerError should unwrap to its cause")
	}
}
