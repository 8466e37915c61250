// Package sink delivers serialized avatars to their destination.
package sink

import (
	"context"
	"fmt"
)

// Sink kinds accepted by New.
const (
	KindFile = "file"
	KindHTTP = "http"
	KindLog  = "log"
)

// Content types of exported payloads.
const (
	ContentTypeGLB  = "model/gltf-binary"
	ContentTypeGLTF = "model/gltf+json"
)

// Payload is one serialized avatar.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
	Digest      uint64
}

// Sink delivers payloads. Implementations must not retain Data after
// Deliver returns.
type Sink interface {
	Deliver(ctx context.Context, p Payload) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, p Payload) error

// Deliver calls f.
func (f Func) Deliver(ctx context.Context, p Payload) error {
	return f(ctx, p)
}

// Deps are the shared resources sinks are built from.
type Deps struct {
	File *File
	HTTP *HTTP
	Log  *Log
}

// New picks the sink for kind.
func New(kind string, deps Deps) (Sink, error) {
	configured := false
	var s Sink
	switch kind {
	case KindFile:
		s, configured = deps.File, deps.File != nil
	case KindHTTP:
		s, configured = deps.HTTP, deps.HTTP != nil
	case KindLog:
		s, configured = deps.Log, deps.Log != nil
	default:
		return nil, fmt.Errorf("unknown sink %q", kind)
	}
	if !configured {
		return nil, fmt.Errorf("sink %q is not configured", kind)
	}
	return s, nil
}
