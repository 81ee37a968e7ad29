package protocol

import (
	"errors"
	"testing"
)

func TestEncodeDecodeInput(t *testing.T) {
	b, err := Encode(MsgInput, Input{Ax: -1, Ay: 0.5})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.T != MsgInput {
		t.Fatalf("type = %q, want %q", env.T, MsgInput)
	}
	in, err := DecodePayload[Input](env)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if in.Ax != -1 || in.Ay != 0.5 {
		t.Fatalf("decoded %+v", in)
	}
}

func TestEncodeRejectsMissingParts(t *testing.T) {
	if _, err := Encode("", Input{}); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if _, err := Encode(MsgState, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeEnvelope(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("err = %v, want ErrEmptyPayload", err)
	}
	if _, err := DecodeEnvelope([]byte(`{"p":{}}`)); err == nil {
		t.Fatalf("expected error for envelope without type")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
	if _, err := DecodePayload[Start](Envelope{T: MsgStart}); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("err = %v, want ErrEmptyPayload", err)
	}
}
