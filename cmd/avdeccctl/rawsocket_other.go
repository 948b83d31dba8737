//go:build !linux

package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

func newRawSocketTransport(iface string, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) (protocolInterface, error) {
	return nil, fmt.Errorf("cmd/avdeccctl: rawsocket backend requires linux")
}
