package errcode

import (
	"fmt"
	"testing"

	"copro-go/drivers/rp2040"
)

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Error("nil should map to ok")
	}
	if Of(Busy) != Busy {
		t.Error("bare code should pass through")
	}
	wrapped := &E{C: Timeout, Op: "backlight", Err: rp2040.ErrTimeout}
	if Of(wrapped) != Timeout {
		t.Error("wrapper code should be extracted")
	}
	if Of(fmt.Errorf("boom")) != Error {
		t.Error("unknown error should map to generic error")
	}
}

func TestMapDriverErr(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{rp2040.ErrTimeout, Timeout},
		{rp2040.ErrUnsupported, Unsupported},
		{rp2040.ErrOutOfRange, InvalidParams},
		{rp2040.ErrVersion, NotReady},
		{fmt.Errorf("wrapped: %w", rp2040.ErrTimeout), Timeout},
		{fmt.Errorf("boom"), Error},
	}
	for _, c := range cases {
		if got := MapDriverErr(c.err); got != c.want {
			t.Errorf("MapDriverErr(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestEError(t *testing.T) {
	e := &E{C: InvalidParams, Msg: "led position 12"}
	if e.Error() != "invalid_params: led position 12" {
		t.Errorf("unexpected message %q", e.Error())
	}
	if (&E{C: Busy}).Error() != "busy" {
		t.Errorf("bare code message wrong")
	}
}
