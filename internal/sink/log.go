package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Log writes payloads to the diagnostic log. Text documents are logged in
// full; binary payloads by size and digest.
type Log struct {
	log *zap.Logger
}

// NewLog creates a log sink.
func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log}
}

// Deliver logs p.
func (l *Log) Deliver(_ context.Context, p Payload) error {
	fields := []zap.Field{
		zap.String("name", p.Name),
		zap.Int("bytes", len(p.Data)),
		zap.String("digest", fmt.Sprintf("%016x", p.Digest)),
	}
	if p.ContentType == ContentTypeGLTF {
		fields = append(fields, zap.ByteString("document", p.Data))
	}
	l.log.Info("avatar export", fields...)
	return nil
}
