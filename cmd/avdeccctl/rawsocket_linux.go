//go:build linux

package main

import (
	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
	"github.com/gopatchy/avdecc/transport"
)

func newRawSocketTransport(iface string, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) (protocolInterface, error) {
	return transport.NewRawSocketTransport(iface, localEID, tolerance, logger)
}
