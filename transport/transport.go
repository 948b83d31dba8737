// Package transport implements the AVDECC transport adapter (C2): sending
// and receiving raw Ethernet II frames for the AVDECC EtherType, and
// dispatching parsed PDUs to registered observers.
package transport

import (
	"net"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// Observer receives events from a ProtocolInterface. Implementations must
// not block; heavy work belongs to the caller, per the design's "response
// handlers run on the transport's receive thread" rule.
type Observer interface {
	// OnLocalEntityOnline/Offline/Updated fire for advertisements whose
	// EntityID matches this transport's configured local entity id.
	OnLocalEntityOnline(adv protocol.Adpdu, mac net.HardwareAddr)
	OnLocalEntityOffline(eid avdeccid.UniqueID)
	OnLocalEntityUpdated(adv protocol.Adpdu, mac net.HardwareAddr)

	// OnRemoteEntityOnline/Offline/Updated fire for every other advertised
	// entity seen on the wire. mac is the frame's source MAC, recorded by
	// the registry alongside adv's InterfaceIndex as an interface
	// descriptor (§3's "one or more interface descriptors").
	OnRemoteEntityOnline(adv protocol.Adpdu, mac net.HardwareAddr)
	OnRemoteEntityOffline(eid avdeccid.UniqueID)
	OnRemoteEntityUpdated(adv protocol.Adpdu, mac net.HardwareAddr)

	// OnAecpCommand delivers an inbound AECP command frame not yet claimed
	// by another subscriber; return true once claimed (a reply was sent).
	OnAecpCommand(common protocol.AecpCommonHeader, frame []byte) bool

	// OnAecpResponse delivers every inbound AEM/AA/MVU response frame,
	// solicited or unsolicited; the router (C6) fully decodes the
	// sub-family header to tell them apart, since the unsolicited bit
	// lives at a different offset in each sub-family.
	OnAecpResponse(common protocol.AecpCommonHeader, frame []byte)

	// OnAcmpMessage delivers every ACMP command or response seen on the
	// multicast channel, solicited or sniffed; the caller (dispatcher)
	// distinguishes by matching against its own pending table.
	OnAcmpMessage(pdu protocol.Acmpdu)

	// OnAcmpSniffedCommand and OnAcmpSniffedResponse deliver ACMP traffic
	// not addressed to this controller: every command (this controller
	// never answers ACMP commands, since Talker/Listener roles are out of
	// scope) and every response whose ControllerEntityID doesn't match
	// this transport's local entity id.
	OnAcmpSniffedCommand(pdu protocol.Acmpdu)
	OnAcmpSniffedResponse(pdu protocol.Acmpdu)

	// OnTransportError reports an unrecoverable transport failure.
	OnTransportError(err error)
}

// ProtocolInterface is the abstraction the core protocol engine consumes
// (§6): send ADP/ACMP/AECP frames, learn the local MAC, and serialize
// access to shared state (registry, pending-command table) behind a single
// lock.
type ProtocolInterface interface {
	SendAdp(pdu protocol.Adpdu) error
	SendAcmp(pdu protocol.Acmpdu) error
	SendAecp(frame []byte) error

	LocalMAC() net.HardwareAddr

	// Lock/Unlock take the transport's write mutex, the one every Send*
	// call holds while writing a frame. Inbound dispatch to observers does
	// not take it; the registry and the dispatcher guard their own state
	// with their own mutexes.
	Lock()
	Unlock()

	RegisterObserver(obs Observer)

	Close() error
}
