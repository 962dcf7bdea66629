package cacheinfra

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec is the wire codec remote backends serialize values with. The
// orchestration core never touches it; values cross the Backend boundary
// as cache.Raw and are decoded at the typed edge where the concrete result
// type is known.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// DefaultCodec is the codec backends and the typed wrappers agree on.
var DefaultCodec Codec = MsgpackCodec{}

// MsgpackCodec serializes values with msgpack. Compact, fast, and it
// round-trips exported struct fields without tags.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "msgpack marshal")
	}
	return data, nil
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "msgpack unmarshal")
	}
	return nil
}

func (MsgpackCodec) Name() string { return "msgpack" }
