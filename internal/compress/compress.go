package compress

import (
	"errors"
	"fmt"
)

var ErrUnknownCodec = errors.New("unknown compression codec")

// Compress encodes record content at rest.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	Name() string
}

// New returns the codec registered under name. An empty name is the nop codec.
func New(name string) (Compress, error) {
	switch name {
	case "", NopName:
		return NewNop(), nil
	case GZipName:
		return NewGZip(), nil
	case BrotliName:
		return NewBrotli(), nil
	case LZ4Name:
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}
