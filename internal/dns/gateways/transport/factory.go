package transport

import (
	"fmt"

	"github.com/udnsd/udns/internal/dns/common/log"
)

// NewTransport creates a new transport instance based on the specified type.
func NewTransport(transportType TransportType, addr string, opts Options, logger log.Logger) (ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, opts, logger), nil
	case TransportTCP:
		return NewTCPTransport(addr, opts, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns the transports a server runs, in start order.
func GetSupportedTransports() []TransportType {
	return []TransportType{
		TransportUDP,
		TransportTCP,
	}
}

