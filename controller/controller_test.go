package controller

import (
	"testing"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/dispatcher"
	"github.com/gopatchy/avdecc/protocol"
	"github.com/gopatchy/avdecc/registry"
	"github.com/gopatchy/avdecc/router"
)

type fakeDispatch struct {
	lastTarget  avdeccid.UniqueID
	lastCmdType protocol.AemCommandType
	lastPayload []byte
	respond     router.AecpResult

	lastAcmpTarget avdeccid.UniqueID
	lastAcmpPdu    protocol.Acmpdu
	acmpRespond    router.AcmpResult

	sniffDelegate dispatcher.SniffDelegate
}

func (f *fakeDispatch) SetSniffDelegate(d dispatcher.SniffDelegate) {
	f.sniffDelegate = d
}

func (f *fakeDispatch) SendAem(target avdeccid.UniqueID, cmdType protocol.AemCommandType, payload []byte, handler router.AecpHandler) {
	f.lastTarget = target
	f.lastCmdType = cmdType
	f.lastPayload = payload
	handler(f.respond)
}

func (f *fakeDispatch) SendAa(target avdeccid.UniqueID, payload protocol.AaPayload, handler router.AecpHandler) {
	f.lastTarget = target
	handler(f.respond)
}

func (f *fakeDispatch) SendGetMilanInfo(target avdeccid.UniqueID, handler router.AecpHandler) {
	f.lastTarget = target
	handler(f.respond)
}

func (f *fakeDispatch) SendAcmp(target avdeccid.UniqueID, pdu protocol.Acmpdu, handler router.AcmpHandler) {
	f.lastAcmpTarget = target
	f.lastAcmpPdu = pdu
	handler(f.acmpRespond)
}

func TestAcquireEntitySerializesAndDelivers(t *testing.T) {
	dispatch := &fakeDispatch{
		respond: router.AecpResult{
			Status: protocol.AecpStatusSuccess,
			Value:  protocol.AcquireEntityPayload{OwnerID: avdeccid.UniqueID(9)},
		},
	}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	var got protocol.AcquireEntityPayload
	var gotErr error
	c.AcquireEntity(avdeccid.UniqueID(1), protocol.AcquireFlagPersistent, avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity}, func(p protocol.AcquireEntityPayload, status protocol.AecpStatus, err error) {
		got = p
		gotErr = err
	})

	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if got.OwnerID != 9 {
		t.Fatalf("expected owner id 9, got %v", got.OwnerID)
	}
	if dispatch.lastCmdType != protocol.AemAcquireEntity {
		t.Fatalf("expected AemAcquireEntity, got %v", dispatch.lastCmdType)
	}
}

func TestTypedHandlerSurfacesDispatchError(t *testing.T) {
	dispatch := &fakeDispatch{respond: router.AecpResult{Err: router.ErrTimeout}}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	var gotErr error
	c.GetName(avdeccid.UniqueID(1), protocol.NamePayload{}, func(_ protocol.NamePayload, _ protocol.AecpStatus, err error) {
		gotErr = err
	})

	if gotErr != router.ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", gotErr)
	}
}

func TestTypedHandlerRejectsMismatchedValueType(t *testing.T) {
	dispatch := &fakeDispatch{
		respond: router.AecpResult{Value: protocol.NamePayload{}},
	}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	var gotErr error
	c.GetSamplingRate(avdeccid.UniqueID(1), avdeccid.DescriptorRef{}, func(_ protocol.SamplingRatePayload, _ protocol.AecpStatus, err error) {
		gotErr = err
	})

	if gotErr != router.ErrProtocolError {
		t.Fatalf("expected ErrProtocolError for mismatched value type, got %v", gotErr)
	}
}

func TestReadDescriptorPassesThroughDecodedValue(t *testing.T) {
	dispatch := &fakeDispatch{
		respond: router.AecpResult{Value: protocol.EntityDescriptor{EntityID: avdeccid.UniqueID(3)}},
	}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	var got interface{}
	c.ReadDescriptor(avdeccid.UniqueID(1), avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity}, func(descriptor interface{}, _ protocol.AecpStatus, _ error) {
		got = descriptor
	})

	ed, ok := got.(protocol.EntityDescriptor)
	if !ok {
		t.Fatalf("expected EntityDescriptor, got %T", got)
	}
	if ed.EntityID != 3 {
		t.Fatalf("expected entity id 3, got %v", ed.EntityID)
	}
}

func TestConnectStreamAddressesListenerWithRxCommand(t *testing.T) {
	dispatch := &fakeDispatch{acmpRespond: router.AcmpResult{Status: protocol.AcmpStatusSuccess}}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	talker := avdeccid.UniqueID(10)
	listener := avdeccid.UniqueID(20)

	var got router.AcmpResult
	c.ConnectStream(talker, listener, 0, 1, func(res router.AcmpResult) {
		got = res
	})

	if dispatch.lastAcmpTarget != listener {
		t.Fatalf("expected CONNECT_RX to target the listener, got %v", dispatch.lastAcmpTarget)
	}
	if dispatch.lastAcmpPdu.MessageType != protocol.AcmpConnectRxCommand {
		t.Fatalf("expected AcmpConnectRxCommand, got %v", dispatch.lastAcmpPdu.MessageType)
	}
	if dispatch.lastAcmpPdu.ListenerUniqueID != 1 {
		t.Fatalf("expected listener unique id 1, got %v", dispatch.lastAcmpPdu.ListenerUniqueID)
	}
	if got.Status != protocol.AcmpStatusSuccess {
		t.Fatalf("expected success status, got %v", got.Status)
	}
}

func TestEntitiesDelegatesToRegistry(t *testing.T) {
	reg := registry.New()
	c := New(&fakeDispatch{}, router.New(nil, protocol.ToleranceFlags{}, nil), reg)

	if len(c.Entities()) != 0 {
		t.Fatalf("expected empty registry snapshot")
	}
	if _, ok := c.Entity(avdeccid.UniqueID(1)); ok {
		t.Fatalf("expected unknown entity lookup to miss")
	}
}

type fakeSniffDelegate struct {
	commands  []protocol.Acmpdu
	responses []protocol.Acmpdu
}

func (f *fakeSniffDelegate) OnAcmpSniffedCommand(pdu protocol.Acmpdu)  { f.commands = append(f.commands, pdu) }
func (f *fakeSniffDelegate) OnAcmpSniffedResponse(pdu protocol.Acmpdu) { f.responses = append(f.responses, pdu) }

func TestSetAcmpSniffDelegateInstallsOnDispatch(t *testing.T) {
	dispatch := &fakeDispatch{}
	c := New(dispatch, router.New(nil, protocol.ToleranceFlags{}, nil), registry.New())

	delegate := &fakeSniffDelegate{}
	c.SetAcmpSniffDelegate(delegate)

	if dispatch.sniffDelegate != delegate {
		t.Fatalf("expected sniff delegate to be installed on the dispatcher")
	}
}
