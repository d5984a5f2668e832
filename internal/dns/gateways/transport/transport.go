// Package transport serves DNS over UDP and TCP. Transports move raw messages
// between sockets and a responder.ReplyBuilder; they never look inside a message
// beyond the TCP length prefix.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/udnsd/udns/internal/dns/services/responder"
)

// DefaultMaxInflight caps concurrent UDP handlers and open TCP connections when
// no limit is configured.
const DefaultMaxInflight = 1024

// ServerTransport is a listener that hands each request to a ReplyBuilder.
type ServerTransport interface {
	// Start binds the socket and begins serving in the background. Cancelling
	// ctx stops accepting new requests; Stop must still be called.
	Start(ctx context.Context, handler responder.ReplyBuilder) error

	// Stop stops accepting requests and waits for in-flight ones until ctx is
	// done. Requests that finish in time are answered.
	Stop(ctx context.Context) error

	// Address returns the bound address once started, the configured one before.
	Address() string
}

// TransportType represents the different types of DNS transport protocols supported.
type TransportType string

const (
	// TransportUDP is DNS over UDP (RFC 1035 §4.2.1)
	TransportUDP TransportType = "udp"

	// TransportTCP is DNS over TCP with a 2-byte length prefix (RFC 1035 §4.2.2)
	TransportTCP TransportType = "tcp"
)

// Options tune a transport. Zero values pick the defaults.
type Options struct {
	// MaxInflight bounds concurrent UDP handlers or open TCP connections.
	MaxInflight int
	// ReadTimeout bounds how long a TCP connection may take to send its query.
	// Zero means no limit.
	ReadTimeout time.Duration
}

func (o Options) maxInflight() int {
	if o.MaxInflight <= 0 {
		return DefaultMaxInflight
	}
	return o.MaxInflight
}

var errAlreadyRunning = errors.New("transport already running")

// waitGroup waits for wg or returns ctx.Err() when the grace period runs out.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("in-flight requests did not finish: %w", ctx.Err())
	}
}

// ignoreClosed drops the error returned when a socket was already closed by
// context cancellation.
func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
