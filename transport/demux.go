package transport

import (
	"encoding/binary"
	"net"

	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/protocol"
)

// dispatchFrame decodes a raw Ethernet II frame carrying the AVDECC
// EtherType and fans it out to obs, shared by every ProtocolInterface
// backend so the demux logic isn't duplicated per transport.
func dispatchFrame(frame []byte, tolerance protocol.ToleranceFlags, state *adpState, obs []Observer, logger *zap.Logger) {
	if len(frame) < 18 {
		return
	}
	if binary.BigEndian.Uint16(frame[12:14]) != protocol.EtherType {
		return
	}

	subtype := frame[14] & 0x7F
	switch subtype {
	case protocol.SubtypeADP:
		handleAdp(frame, tolerance, state, obs, logger)
	case protocol.SubtypeACMP:
		handleAcmp(frame, tolerance, state, obs, logger)
	case protocol.SubtypeAECP:
		handleAecp(frame, obs, logger)
	}
}

func handleAdp(frame []byte, tolerance protocol.ToleranceFlags, state *adpState, obs []Observer, logger *zap.Logger) {
	pdu, err := protocol.ParseAdp(frame, tolerance)
	if err != nil {
		if logger != nil {
			logger.Debug("dropping malformed ADP frame", zap.Error(err))
		}
		return
	}
	mac := net.HardwareAddr(append([]byte(nil), frame[6:12]...))
	dispatchAdp(obs, state, pdu, mac)
}

func handleAcmp(frame []byte, tolerance protocol.ToleranceFlags, state *adpState, obs []Observer, logger *zap.Logger) {
	pdu, err := protocol.ParseAcmp(frame, tolerance)
	if err != nil {
		if logger != nil {
			logger.Debug("dropping malformed ACMP frame", zap.Error(err))
		}
		return
	}

	for _, o := range obs {
		o.OnAcmpMessage(pdu)
	}

	// This controller never answers ACMP commands (Talker/Listener roles
	// are out of scope), so every command observed is sniffed traffic.
	// A response not addressed to this controller's entity id is sniffed
	// too.
	if !pdu.MessageType.IsResponse() {
		for _, o := range obs {
			o.OnAcmpSniffedCommand(pdu)
		}
		return
	}
	if pdu.ControllerEntityID != state.localEID {
		for _, o := range obs {
			o.OnAcmpSniffedResponse(pdu)
		}
	}
}

func handleAecp(frame []byte, obs []Observer, logger *zap.Logger) {
	// Only the common header is decoded here; family-specific parsing
	// (AEM/AA/MVU) happens in package router once the message is claimed.
	if len(frame) < 18+18 {
		return
	}
	messageType := protocol.AecpMessageType(frame[15] & 0x0F)
	common := protocol.AecpCommonHeader{
		MessageType: messageType,
	}

	switch messageType {
	case protocol.AecpAemResponse, protocol.AecpAddressAccessResponse, protocol.AecpVendorUniqueResponse:
		for _, o := range obs {
			o.OnAecpResponse(common, frame)
		}
	case protocol.AecpAemCommand, protocol.AecpAddressAccessCommand, protocol.AecpVendorUniqueCommand:
		for _, o := range obs {
			if o.OnAecpCommand(common, frame) {
				break
			}
		}
	}
}
