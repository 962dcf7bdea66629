package cacheinfra

import (
	"testing"
)

type sampleUser struct {
	ID    string
	Name  string
	Score int
}

func TestMsgpackCodec_RoundTrip(t *testing.T) {
	codec := MsgpackCodec{}

	in := sampleUser{ID: "42", Name: "Alice", Score: 7}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out sampleUser
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed value: %+v -> %+v", in, out)
	}
}

func TestMsgpackCodec_UnmarshalGarbage(t *testing.T) {
	codec := MsgpackCodec{}
	var out sampleUser
	if err := codec.Unmarshal([]byte{0xc1, 0xff}, &out); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestMsgpackCodec_Name(t *testing.T) {
	if got := (MsgpackCodec{}).Name(); got != "msgpack" {
		t.Errorf("expected msgpack, got %q", got)
	}
}

func TestDefaultCodec_IsMsgpack(t *testing.T) {
	if DefaultCodec.Name() != "msgpack" {
		t.Errorf("unexpected default codec %q", DefaultCodec.Name())
	}
}
