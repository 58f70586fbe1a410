package worker

import (
	"context"
	"sync"

	"github.com/edgespell/spellbridge/internal/codec"
	"github.com/edgespell/spellbridge/pkg/suggest"
)

// Client is the controller-side helper over a worker's channels. It waits
// for the ready sentinel, enforces the one-request-in-flight contract by
// serializing callers, and decodes raw result payloads with its own decoder.
type Client struct {
	worker *Worker
	dec    *codec.Decoder

	mu    sync.Mutex
	ready bool
}

// NewClient wraps a started worker. The framing must match the contract the
// worker's guest module was built against.
func NewClient(w *Worker, framing codec.TermLenFraming) *Client {
	return &Client{
		worker: w,
		dec:    codec.NewDecoder(framing),
	}
}

// WaitReady blocks until the worker reports ready. Any error message before
// the sentinel is fatal: the worker is gone and must be discarded.
func (c *Client) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp, ok := <-c.worker.Responses():
		if !ok {
			return &InitError{Message: "worker exited before ready"}
		}
		switch m := resp.(type) {
		case Ready:
			c.ready = true
			return nil
		case Error:
			return &InitError{Message: m.Message}
		default:
			return &InitError{Message: "unexpected message before ready"}
		}
	}
}

// Lookup sends one request and decodes its response. Word routing (compound
// vs single-term) happens worker-side; opts nil uses the worker's defaults.
func (c *Client) Lookup(ctx context.Context, word string, opts *suggest.LookupOptions) (*codec.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return nil, &InitError{Message: "worker not ready"}
	}

	select {
	case c.worker.Requests() <- Request{Word: word, Options: opts}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case <-ctx.Done():
		// The response, when it arrives, is dropped; there is no way to
		// abort the in-flight guest call.
		return nil, ctx.Err()
	case resp, ok := <-c.worker.Responses():
		if !ok {
			return nil, &GoneError{}
		}
		switch m := resp.(type) {
		case Result:
			return c.dec.Decode(m.Payload, 0, uint32(len(m.Payload)))
		case Error:
			return nil, &RequestError{Message: m.Message}
		default:
			return nil, &RequestError{Message: "unexpected response type"}
		}
	}
}

// Close stops the worker.
func (c *Client) Close() {
	c.worker.Stop()
}
