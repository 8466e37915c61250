package gltfio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
)

// ErrUnsupportedURI is returned for buffer URIs that cannot be resolved.
var ErrUnsupportedURI = errors.New("unsupported buffer URI")

// Resolver fetches an external buffer referenced by a relative or absolute URI.
type Resolver func(uri string) ([]byte, error)

// IsDataURI reports whether uri is a data URI.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}

// DecodeDataURI decodes a base64 data URI of any media type.
func DecodeDataURI(uri string) ([]byte, error) {
	if !IsDataURI(uri) {
		return nil, fmt.Errorf("%w: not a data URI", ErrUnsupportedURI)
	}
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: only base64 data URIs are supported", ErrUnsupportedURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURI, err)
	}
	return data, nil
}

// ResolveBuffers loads every buffer the decoder left empty. Data URIs of
// media types other than application/octet-stream are decoded in place and
// anything else goes through resolve, which may be nil. Loaded data is cut
// to the declared byte length.
func ResolveBuffers(doc *gltf.Document, resolve Resolver) error {
	for i, b := range doc.Buffers {
		if b.Data != nil {
			continue
		}
		var (
			data []byte
			err  error
		)
		switch {
		case b.URI == "":
			return fmt.Errorf("%w: buffer %d has no URI and no BIN chunk", ErrUnsupportedURI, i)
		case IsDataURI(b.URI):
			data, err = DecodeDataURI(b.URI)
		case resolve == nil:
			return fmt.Errorf("%w: buffer %d: external URI %q with no resolver", ErrUnsupportedURI, i, b.URI)
		default:
			data, err = resolve(b.URI)
		}
		if err != nil {
			return fmt.Errorf("loading buffer %d: %w", i, err)
		}
		if len(data) < b.ByteLength {
			return fmt.Errorf("%w: buffer %d has %d bytes, expected %d", ErrInvalidAccessor, i, len(data), b.ByteLength)
		}
		b.Data = data[:b.ByteLength:b.ByteLength]
	}
	return nil
}
