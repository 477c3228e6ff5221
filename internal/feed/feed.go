// Package feed hosts tick transports: a JSONL stdio session for driving the
// engine from a pipe, and a websocket session for a live simulator endpoint.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"basketbot-go/internal/exchange"
)

const (
	// ProviderStdio reads tick requests as JSON lines from an input stream
	// and writes responses to an output stream.
	ProviderStdio = "stdio"
	// ProviderWebsocket connects to a simulator websocket endpoint and
	// exchanges tick requests and responses over the same connection.
	ProviderWebsocket = "websocket"
)

// Feed is a pluggable tick transport. Run delivers requests; Send returns
// the engine's response for the most recent tick.
type Feed struct {
	provider string
	log      zerolog.Logger
	url      string

	in  io.Reader
	out io.Writer

	mu   sync.Mutex
	enc  *json.Encoder
	conn wsConn
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithStreams overrides the stdio feed's input and output streams.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(f *Feed) {
		if in != nil {
			f.in = in
		}
		if out != nil {
			f.out = out
		}
	}
}

// WithURL sets the websocket endpoint.
func WithURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.url = url
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStdio
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		log:      log,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes tick requests onto the provided channel until the input is
// exhausted or the context is canceled. The stdio provider returns nil at
// end of input; the websocket provider reconnects until canceled.
func (f *Feed) Run(ctx context.Context, out chan<- exchange.TickRequest) error {
	switch f.provider {
	case ProviderWebsocket:
		return f.runWebsocket(ctx, out)
	default:
		return f.runStdio(ctx, out)
	}
}

// Send writes the engine's response for the most recent tick back to the
// session.
func (f *Feed) Send(resp exchange.TickResponse) error {
	if f.provider == ProviderWebsocket {
		return f.sendWebsocket(resp)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enc == nil {
		f.enc = json.NewEncoder(f.out)
	}
	return f.enc.Encode(resp)
}

func (f *Feed) runStdio(ctx context.Context, out chan<- exchange.TickRequest) error {
	scanner := bufio.NewScanner(f.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var req exchange.TickRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode tick request line")
			continue
		}
		select {
		case out <- req:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tick stream: %w", err)
	}
	return nil
}
