package transport

import (
	"net"
	"testing"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

type fakeObserver struct {
	acmpMessages      []protocol.Acmpdu
	sniffedCommands   []protocol.Acmpdu
	sniffedResponses  []protocol.Acmpdu
}

func (f *fakeObserver) OnLocalEntityOnline(protocol.Adpdu, net.HardwareAddr)   {}
func (f *fakeObserver) OnLocalEntityOffline(avdeccid.UniqueID)                 {}
func (f *fakeObserver) OnLocalEntityUpdated(protocol.Adpdu, net.HardwareAddr)  {}
func (f *fakeObserver) OnRemoteEntityOnline(protocol.Adpdu, net.HardwareAddr)  {}
func (f *fakeObserver) OnRemoteEntityOffline(avdeccid.UniqueID)                {}
func (f *fakeObserver) OnRemoteEntityUpdated(protocol.Adpdu, net.HardwareAddr) {}
func (f *fakeObserver) OnAecpCommand(protocol.AecpCommonHeader, []byte) bool   { return false }
func (f *fakeObserver) OnAecpResponse(protocol.AecpCommonHeader, []byte)       {}
func (f *fakeObserver) OnTransportError(error)                                {}

func (f *fakeObserver) OnAcmpMessage(pdu protocol.Acmpdu) {
	f.acmpMessages = append(f.acmpMessages, pdu)
}
func (f *fakeObserver) OnAcmpSniffedCommand(pdu protocol.Acmpdu) {
	f.sniffedCommands = append(f.sniffedCommands, pdu)
}
func (f *fakeObserver) OnAcmpSniffedResponse(pdu protocol.Acmpdu) {
	f.sniffedResponses = append(f.sniffedResponses, pdu)
}

func testMACs() (dst, src net.HardwareAddr) {
	dst, _ = net.ParseMAC("91:e0:f0:01:00:00")
	src, _ = net.ParseMAC("00:11:22:33:44:55")
	return dst, src
}

func TestHandleAcmpRoutesCommandsToSniffedHook(t *testing.T) {
	dst, src := testMACs()
	obs := &fakeObserver{}
	state := newAdpState(avdeccid.UniqueID(1))

	frame := protocol.BuildAcmp(dst, src, protocol.Acmpdu{
		MessageType:        protocol.AcmpConnectRxCommand,
		ControllerEntityID: avdeccid.UniqueID(1),
	})

	handleAcmp(frame, protocol.ToleranceFlags{}, state, []Observer{obs}, nil)

	if len(obs.acmpMessages) != 1 {
		t.Fatalf("expected OnAcmpMessage to still fire for every ACMP frame, got %d", len(obs.acmpMessages))
	}
	if len(obs.sniffedCommands) != 1 {
		t.Fatalf("expected every ACMP command to be routed as sniffed, got %d", len(obs.sniffedCommands))
	}
	if len(obs.sniffedResponses) != 0 {
		t.Fatalf("expected no sniffed responses for a command frame")
	}
}

func TestHandleAcmpRoutesForeignResponsesToSniffedHook(t *testing.T) {
	dst, src := testMACs()
	obs := &fakeObserver{}
	state := newAdpState(avdeccid.UniqueID(1))

	frame := protocol.BuildAcmp(dst, src, protocol.Acmpdu{
		MessageType:        protocol.AcmpConnectRxResponse,
		ControllerEntityID: avdeccid.UniqueID(2),
	})

	handleAcmp(frame, protocol.ToleranceFlags{}, state, []Observer{obs}, nil)

	if len(obs.sniffedResponses) != 1 {
		t.Fatalf("expected a response addressed to another controller to be sniffed, got %d", len(obs.sniffedResponses))
	}
	if len(obs.sniffedCommands) != 0 {
		t.Fatalf("expected no sniffed commands for a response frame")
	}
}

func TestHandleAcmpDoesNotSniffSelfAddressedResponse(t *testing.T) {
	dst, src := testMACs()
	obs := &fakeObserver{}
	state := newAdpState(avdeccid.UniqueID(1))

	frame := protocol.BuildAcmp(dst, src, protocol.Acmpdu{
		MessageType:        protocol.AcmpConnectRxResponse,
		ControllerEntityID: avdeccid.UniqueID(1),
	})

	handleAcmp(frame, protocol.ToleranceFlags{}, state, []Observer{obs}, nil)

	if len(obs.sniffedResponses) != 0 {
		t.Fatalf("expected a response addressed to this controller not to be sniffed, got %d", len(obs.sniffedResponses))
	}
	if len(obs.acmpMessages) != 1 {
		t.Fatalf("expected OnAcmpMessage to still fire for correlation, got %d", len(obs.acmpMessages))
	}
}
