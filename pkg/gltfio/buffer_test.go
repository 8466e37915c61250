package gltfio

import (
	"errors"
	"testing"

	"github.com/qmuntal/gltf"
)

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr error
	}{
		{"octet stream", "data:application/octet-stream;base64,aGk=", "hi", nil},
		{"gltf buffer", "data:application/gltf-buffer;base64,aGk=", "hi", nil},
		{"not base64", "data:text/plain,hi", "", ErrUnsupportedURI},
		{"bad payload", "data:application/octet-stream;base64,***", "", ErrUnsupportedURI},
		{"not a data URI", "body.bin", "", ErrUnsupportedURI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURI(tt.uri)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveBuffers(t *testing.T) {
	loaded := []byte{1, 2, 3, 4}
	doc := &gltf.Document{Buffers: []*gltf.Buffer{
		{ByteLength: 4, Data: loaded},
		{ByteLength: 2, URI: "data:application/gltf-buffer;base64,aGk="},
		{ByteLength: 3, URI: "parts/skin.bin"},
	}}

	var asked []string
	err := ResolveBuffers(doc, func(uri string) ([]byte, error) {
		asked = append(asked, uri)
		return []byte("abcdef"), nil
	})
	if err != nil {
		t.Fatalf("ResolveBuffers: %v", err)
	}
	if len(asked) != 1 || asked[0] != "parts/skin.bin" {
		t.Errorf("expected one external fetch, got %v", asked)
	}
	if &doc.Buffers[0].Data[0] != &loaded[0] {
		t.Errorf("expected loaded buffer to be kept")
	}
	if string(doc.Buffers[1].Data) != "hi" {
		t.Errorf("expected data URI decoded, got %q", doc.Buffers[1].Data)
	}
	if string(doc.Buffers[2].Data) != "abc" {
		t.Errorf("expected external data cut to byteLength, got %q", doc.Buffers[2].Data)
	}
}

func TestResolveBuffers_Errors(t *testing.T) {
	errFetch := errors.New("fetch failed")
	fetch := func(string) ([]byte, error) { return nil, errFetch }
	short := func(string) ([]byte, error) { return []byte{1}, nil }

	tests := []struct {
		name    string
		buffer  *gltf.Buffer
		resolve Resolver
		wantErr error
	}{
		{"no URI", &gltf.Buffer{ByteLength: 4}, fetch, ErrUnsupportedURI},
		{"no resolver", &gltf.Buffer{ByteLength: 4, URI: "a.bin"}, nil, ErrUnsupportedURI},
		{"fetch error", &gltf.Buffer{ByteLength: 4, URI: "a.bin"}, fetch, errFetch},
		{"short data", &gltf.Buffer{ByteLength: 4, URI: "a.bin"}, short, ErrInvalidAccessor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &gltf.Document{Buffers: []*gltf.Buffer{tt.buffer}}
			if err := ResolveBuffers(doc, tt.resolve); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
