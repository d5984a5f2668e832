package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/gateways/wire"
	"github.com/udnsd/udns/internal/dns/services/responder"
)

// TCPTransport implements ServerTransport for DNS over TCP. Each connection
// carries exactly one length-prefixed query, read with a single Read, and
// is closed after the reply is written.
type TCPTransport struct {
	addr        string
	listener    net.Listener
	logger      log.Logger
	maxConns    int
	readTimeout time.Duration

	mu         sync.Mutex
	running    bool
	stopOnDone func() bool
	conns      map[net.Conn]struct{}
	wg         sync.WaitGroup
}

// NewTCPTransport creates a new TCP transport instance.
func NewTCPTransport(addr string, opts Options, logger log.Logger) *TCPTransport {
	return &TCPTransport{
		addr:        addr,
		logger:      logger,
		maxConns:    opts.maxInflight(),
		readTimeout: opts.ReadTimeout,
		conns:       make(map[net.Conn]struct{}),
	}
}

// Start binds the TCP listener and starts accepting connections.
func (t *TCPTransport) Start(ctx context.Context, handler responder.ReplyBuilder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP %w", errAlreadyRunning)
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", t.addr, err)
	}
	ln = netutil.LimitListener(ln, t.maxConns)

	t.listener = ln
	t.running = true
	t.stopOnDone = context.AfterFunc(ctx, func() { _ = ln.Close() })

	t.logger.Info(map[string]any{
		"transport":   "tcp",
		"address":     ln.Addr().String(),
		"connections": t.maxConns,
	}, "DNS transport started")

	t.wg.Add(1)
	go t.acceptLoop(ln, handler)

	return nil
}

// Stop closes the listener and waits for open connections until ctx is done.
// Connections still open when ctx ends are closed.
func (t *TCPTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.stopOnDone()
	closeErr := ignoreClosed(t.listener.Close())
	t.mu.Unlock()

	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr,
		}, "Error closing TCP listener")
	}

	waitErr := waitGroup(ctx, &t.wg)
	if waitErr != nil {
		t.mu.Lock()
		for conn := range t.conns {
			_ = conn.Close()
		}
		t.mu.Unlock()
	}

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "DNS transport stopped")

	return errors.Join(closeErr, waitErr)
}

// Address returns the network address the transport is bound to.
func (t *TCPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

func (t *TCPTransport) acceptLoop(ln net.Listener, handler responder.ReplyBuilder) {
	defer t.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				t.logger.Debug(nil, "TCP transport stopping")
				return
			}
			t.logger.Warn(map[string]any{
				"error": err,
			}, "Failed to accept TCP connection")
			continue
		}

		t.track(conn, true)
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.track(conn, false)
			t.handleConn(conn, handler)
		}()
	}
}

func (t *TCPTransport) track(conn net.Conn, add bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if add {
		t.conns[conn] = struct{}{}
	} else {
		delete(t.conns, conn)
	}
}

// handleConn serves one query on conn and closes it. Nothing is sent back on
// failure.
func (t *TCPTransport) handleConn(conn net.Conn, handler responder.ReplyBuilder) {
	defer conn.Close()

	client := conn.RemoteAddr().String()
	t.logger.Info(map[string]any{
		"transport": "tcp",
		"client":    client,
	}, "Request")

	fail := func(err error, msg string) {
		t.logger.Error(map[string]any{
			"transport": "tcp",
			"client":    client,
			"error":     err,
		}, msg)
	}

	if t.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			fail(err, "Failed to set TCP read deadline")
			return
		}
	}

	buf := make([]byte, wire.StreamReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		fail(err, "Failed to read TCP query")
		return
	}

	query, err := wire.DecodeStreamFrame(wire.TrimPadding(buf[:n]))
	if err != nil {
		fail(err, "Failed to decode TCP frame")
		return
	}

	reply, err := handler.BuildReply(query)
	if err != nil {
		fail(err, "Failed to build DNS reply")
		return
	}

	framed, err := wire.EncodeStreamFrame(reply)
	if err != nil {
		fail(err, "Failed to frame DNS reply")
		return
	}

	if _, err := conn.Write(framed); err != nil {
		fail(err, "Failed to send DNS reply")
		return
	}

	t.logger.Debug(map[string]any{
		"transport": "tcp",
		"client":    client,
		"size":      len(reply),
	}, "Sent DNS reply")
}

var _ ServerTransport = (*TCPTransport)(nil)
