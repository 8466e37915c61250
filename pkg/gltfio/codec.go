// Package gltfio adapts github.com/qmuntal/gltf to the avatar pipeline:
// byte-slice encoding and decoding with a version check, resolution of
// buffers the decoder leaves unloaded, and bounds-checked accessor reads
// that wrap every failure in a sentinel error.
package gltfio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

// Version is the glTF asset version written and accepted.
const Version = "2.0"

// Document errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported glTF version")
	ErrInvalidDocument    = errors.New("invalid glTF document")
)

// glbMagic opens every GLB container.
var glbMagic = []byte("glTF")

// IsGLB reports whether data starts with the GLB magic.
func IsGLB(data []byte) bool {
	return bytes.HasPrefix(data, glbMagic)
}

// Encode writes doc as a GLB container when binary is set. Otherwise it
// writes glTF JSON, embedding URI-less buffers as data URIs; a non-empty
// indent pretty-prints the JSON.
func Encode(doc *gltf.Document, binary bool, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = binary
	if indent != "" && !binary {
		enc.SetJSONIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding glTF: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses GLB or glTF JSON data. Embedded buffers and the GLB BIN
// chunk are loaded; external buffers keep a nil Data until ResolveBuffers
// runs.
func Decode(data []byte) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Asset.Version != Version {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Asset.Version)
	}
	return doc, nil
}
