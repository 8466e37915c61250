package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUpload is returned when the upload endpoint rejects a payload.
var ErrUpload = errors.New("upload failed")

// HTTP uploads payloads with PUT to <base>/<name>, retrying transport
// failures and 5xx/429 responses with exponential backoff.
type HTTP struct {
	client  *resty.Client
	base    string
	log     *zap.Logger
	backoff func() backoff.BackOff
}

// NewHTTP creates an upload sink. A nil client gets a default one.
func NewHTTP(client *resty.Client, base string, log *zap.Logger) *HTTP {
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		client:  client,
		base:    strings.TrimRight(base, "/"),
		log:     log,
		backoff: newBackoff,
	}
}

func newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	b.Reset()
	return b
}

// Client returns the underlying resty client.
func (h *HTTP) Client() *resty.Client {
	return h.client
}

// Deliver uploads p. A nil Data uploads an empty body.
func (h *HTTP) Deliver(ctx context.Context, p Payload) error {
	target := h.base + "/" + p.Name
	body := p.Data
	if body == nil {
		body = []byte{}
	}
	attempt := 0
	op := func() error {
		attempt++
		res, err := h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", p.ContentType).
			SetHeader("X-Avatar-Digest", fmt.Sprintf("%016x", p.Digest)).
			SetBody(body).
			Put(target)
		if err != nil {
			return classify(ctx, target, err)
		}
		switch code := res.StatusCode(); {
		case res.IsSuccess():
			return nil
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s returned %d", ErrUpload, target, code)
		default:
			return backoff.Permanent(fmt.Errorf("%w: %s returned %d", ErrUpload, target, code))
		}
	}
	notify := func(err error, wait time.Duration) {
		h.log.Warn("retrying upload", zap.String("url", target), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(h.backoff(), ctx), notify); err != nil {
		return err
	}
	h.log.Info("uploaded avatar", zap.String("url", target), zap.Int("bytes", len(p.Data)), zap.Int("attempts", attempt))
	return nil
}

// classify marks request errors as retryable only when they come from the
// transport and ctx is still live.
func classify(ctx context.Context, target string, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(err)
	}
	var transport *url.Error
	if errors.As(err, &transport) {
		return err
	}
	return backoff.Permanent(fmt.Errorf("%w: building request for %s: %v", ErrUpload, target, err))
}
