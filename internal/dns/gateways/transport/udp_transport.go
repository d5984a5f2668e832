package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/gateways/wire"
	"github.com/udnsd/udns/internal/dns/services/responder"
)

// udpBufferSize fits the largest possible datagram.
const udpBufferSize = 65535

// UDPTransport implements ServerTransport for standard DNS over UDP (RFC 1035).
// Every datagram is answered by its own goroutine; at most MaxInflight run at once
// and the read loop waits for a free slot.
type UDPTransport struct {
	addr   string
	conn   *net.UDPConn
	logger log.Logger
	sem    *semaphore.Weighted

	mu         sync.RWMutex
	running    bool
	stopping   atomic.Bool
	cancelLoop context.CancelFunc
	stopOnDone func() bool
	readers    sync.WaitGroup
	wg         sync.WaitGroup
}

// NewUDPTransport creates a new UDP transport instance.
func NewUDPTransport(addr string, opts Options, logger log.Logger) *UDPTransport {
	return &UDPTransport{
		addr:   addr,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(opts.maxInflight())),
	}
}

// Start binds the UDP socket and starts the packet handling loop.
func (t *UDPTransport) Start(ctx context.Context, handler responder.ReplyBuilder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP %w", errAlreadyRunning)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	t.conn = conn
	t.running = true
	t.stopping.Store(false)
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancelLoop = cancel
	t.stopOnDone = context.AfterFunc(ctx, func() { t.stopReading(conn) })

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   conn.LocalAddr().String(),
	}, "DNS transport started")

	t.readers.Add(1)
	go t.listenLoop(loopCtx, conn, handler)

	return nil
}

// Stop ends the read loop, waits for running handlers until ctx is done and
// then closes the socket. Handlers that finish in time still send their reply.
func (t *UDPTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.stopOnDone()
	t.cancelLoop()
	conn := t.conn
	t.mu.Unlock()

	t.stopReading(conn)
	t.readers.Wait()
	waitErr := waitGroup(ctx, &t.wg)

	closeErr := ignoreClosed(conn.Close())
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr,
		}, "Error closing UDP connection")
	}

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport stopped")

	return errors.Join(closeErr, waitErr)
}

// Address returns the network address the transport is bound to.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

// stopReading unblocks the read loop without closing the socket, so handlers
// already running can still write their replies.
func (t *UDPTransport) stopReading(conn *net.UDPConn) {
	t.stopping.Store(true)
	_ = conn.SetReadDeadline(time.Now())
}

// listenLoop reads datagrams until the transport is stopping.
func (t *UDPTransport) listenLoop(ctx context.Context, conn *net.UDPConn, handler responder.ReplyBuilder) {
	defer t.readers.Done()
	buffer := make([]byte, udpBufferSize)

	for {
		n, clientAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if t.stopping.Load() || errors.Is(err, net.ErrClosed) {
				t.logger.Debug(nil, "UDP transport stopping")
				return
			}
			t.logger.Warn(map[string]any{
				"error": err,
			}, "Failed to read UDP packet")
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])

		if err := t.sem.Acquire(ctx, 1); err != nil {
			return
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.sem.Release(1)
			t.handlePacket(conn, packet, clientAddr, handler)
		}()
	}
}

// handlePacket answers a single datagram. Nothing is sent back on failure.
func (t *UDPTransport) handlePacket(conn *net.UDPConn, data []byte, clientAddr *net.UDPAddr, handler responder.ReplyBuilder) {
	client := clientAddr.String()
	t.logger.Info(map[string]any{
		"transport": "udp",
		"client":    client,
	}, "Request")

	reply, err := handler.BuildReply(wire.TrimPadding(data))
	if err != nil {
		t.logger.Error(map[string]any{
			"transport": "udp",
			"client":    client,
			"size":      len(data),
			"error":     err,
		}, "Failed to build DNS reply")
		return
	}

	if _, err := conn.WriteToUDP(reply, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"transport": "udp",
			"client":    client,
			"error":     err,
		}, "Failed to send DNS reply")
		return
	}

	t.logger.Debug(map[string]any{
		"transport": "udp",
		"client":    client,
		"size":      len(reply),
	}, "Sent DNS reply")
}

var _ ServerTransport = (*UDPTransport)(nil)
