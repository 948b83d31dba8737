package router

import (
	"net"
	"testing"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

type fakeSender struct {
	sent []byte
	mac  net.HardwareAddr
}

func (f *fakeSender) SendAecp(frame []byte) error {
	f.sent = frame
	return nil
}

func (f *fakeSender) LocalMAC() net.HardwareAddr { return f.mac }

type fakeDelegate struct {
	streamFormatTarget avdeccid.UniqueID
	streamFormat       protocol.StreamFormat
	unsolicited        []protocol.AemCommandType

	entityNameTarget      avdeccid.UniqueID
	entityName            protocol.FixedString
	entityNameCalls       int
	entityGroupNameCalls  int
	objectNameTarget      avdeccid.UniqueID
	objectNameRef         avdeccid.DescriptorRef
	objectName            protocol.FixedString
	objectNameCalls       int
}

func (d *fakeDelegate) OnStreamFormatChanged(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, format protocol.StreamFormat) {
	d.streamFormatTarget = target
	d.streamFormat = format
}
func (d *fakeDelegate) OnStreamInfoChanged(avdeccid.UniqueID, protocol.StreamInfoPayload) {}
func (d *fakeDelegate) OnEntityNameChanged(target avdeccid.UniqueID, name protocol.FixedString) {
	d.entityNameTarget = target
	d.entityName = name
	d.entityNameCalls++
}
func (d *fakeDelegate) OnEntityGroupNameChanged(avdeccid.UniqueID, protocol.FixedString) {
	d.entityGroupNameCalls++
}
func (d *fakeDelegate) OnObjectNameChanged(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, name protocol.FixedString) {
	d.objectNameTarget = target
	d.objectNameRef = ref
	d.objectName = name
	d.objectNameCalls++
}
func (d *fakeDelegate) OnSamplingRateChanged(avdeccid.UniqueID, protocol.SamplingRatePayload)         {}
func (d *fakeDelegate) OnClockSourceChanged(avdeccid.UniqueID, protocol.ClockSourcePayload)           {}
func (d *fakeDelegate) OnControlValueChanged(avdeccid.UniqueID, protocol.ControlValuePayload)         {}
func (d *fakeDelegate) OnIdentifyNotification(avdeccid.UniqueID, protocol.IdentifyNotificationPayload) {}
func (d *fakeDelegate) OnOperationStatus(avdeccid.UniqueID, protocol.OperationStatusPayload)          {}
func (d *fakeDelegate) OnUnsolicitedNotification(target avdeccid.UniqueID, cmdType protocol.AemCommandType, value interface{}) {
	d.unsolicited = append(d.unsolicited, cmdType)
}

func TestHandleSolicitedSuccess(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)

	payload := protocol.BuildAcquireEntityPayload(protocol.AcquireEntityPayload{
		OwnerID: avdeccid.UniqueID(42),
		Ref:     avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity},
	})

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusSuccess, protocol.AemAcquireEntity, payload, func(res AecpResult) {
		got = res
	})

	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
	v, ok := got.Value.(protocol.AcquireEntityPayload)
	if !ok {
		t.Fatalf("expected AcquireEntityPayload, got %T", got.Value)
	}
	if v.OwnerID != 42 {
		t.Fatalf("expected owner id 42, got %v", v.OwnerID)
	}
}

func TestHandleSolicitedUnknownCommandType(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusSuccess, protocol.AemCommandType(0x7000), nil, func(res AecpResult) {
		got = res
	})

	if got.Err != ErrInternalError {
		t.Fatalf("expected ErrInternalError, got %v", got.Err)
	}
}

func TestHandleSolicitedMalformedPayload(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusSuccess, protocol.AemAcquireEntity, []byte{0x01}, func(res AecpResult) {
		got = res
	})

	if got.Err != ErrProtocolError {
		t.Fatalf("expected ErrProtocolError, got %v", got.Err)
	}
}

func TestHandleSolicitedTolerantNonSuccess(t *testing.T) {
	tolerance := protocol.ToleranceFlags{AcceptInvalidNonSuccessResponse: true}
	r := New(&fakeSender{}, tolerance, nil)

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusNoSuchDescriptor, protocol.AemAcquireEntity, []byte{0x01}, func(res AecpResult) {
		got = res
	})

	if got.Err != nil {
		t.Fatalf("expected tolerated non-success with no error, got %v", got.Err)
	}
	if got.Status != protocol.AecpStatusNoSuchDescriptor {
		t.Fatalf("expected status to be delivered, got %v", got.Status)
	}
}

func TestReadDescriptorPassesThroughUnknownType(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)

	body := []byte{0xAA, 0xBB, 0xCC}
	payload := protocol.BuildReadDescriptorResponsePayload(protocol.ReadDescriptorResponsePayload{
		Ref:  avdeccid.DescriptorRef{Type: avdeccid.DescriptorClockSource},
		Body: body,
	})

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusSuccess, protocol.AemReadDescriptor, payload, func(res AecpResult) {
		got = res
	})

	if got.Err != nil {
		t.Fatalf("unexpected error for opaque pass-through descriptor type: %v", got.Err)
	}
	v, ok := got.Value.(protocol.ReadDescriptorResponsePayload)
	if !ok {
		t.Fatalf("expected opaque ReadDescriptorResponsePayload pass-through, got %T", got.Value)
	}
	if v.Ref.Type != avdeccid.DescriptorClockSource || string(v.Body) != string(body) {
		t.Fatalf("expected opaque body to round-trip untouched, got %+v", v)
	}
}

func TestStreamFormatRejectsNonStreamDescriptor(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)

	payload := protocol.BuildStreamFormatPayload(protocol.StreamFormatPayload{
		Ref: avdeccid.DescriptorRef{Type: avdeccid.DescriptorClockDomain},
	})

	var got AecpResult
	r.HandleSolicited(protocol.AecpStatusSuccess, protocol.AemSetStreamFormat, payload, func(res AecpResult) {
		got = res
	})

	if got.Err != ErrProtocolError {
		t.Fatalf("expected ErrProtocolError for non-stream descriptor type, got %v", got.Err)
	}
}

func TestHandleUnsolicitedFansOutToDelegate(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)
	delegate := &fakeDelegate{}
	r.SetDelegate(delegate)

	payload := protocol.BuildStreamFormatPayload(protocol.StreamFormatPayload{
		Ref:    avdeccid.DescriptorRef{Type: avdeccid.DescriptorStreamInput},
		Format: protocol.StreamFormat(0x1234),
	})

	target := avdeccid.UniqueID(7)
	r.HandleUnsolicited(target, protocol.AecpStatusSuccess, protocol.AemSetStreamFormat, payload)

	if delegate.streamFormatTarget != target || delegate.streamFormat != protocol.StreamFormat(0x1234) {
		t.Fatalf("expected delegate to be notified, got %+v", delegate)
	}
}

func TestHandleUnsolicitedDropsNonSuccessStatus(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)
	delegate := &fakeDelegate{}
	r.SetDelegate(delegate)

	payload := protocol.BuildStreamFormatPayload(protocol.StreamFormatPayload{
		Ref:    avdeccid.DescriptorRef{Type: avdeccid.DescriptorStreamInput},
		Format: protocol.StreamFormat(0x1234),
	})

	r.HandleUnsolicited(avdeccid.UniqueID(7), protocol.AecpStatusEntityMisbehaving, protocol.AemSetStreamFormat, payload)

	if delegate.streamFormatTarget != 0 || delegate.streamFormat != 0 {
		t.Fatalf("expected non-SUCCESS unsolicited message not to reach the delegate, got %+v", delegate)
	}
}

func TestHandleUnsolicitedNameMultiplex(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)
	delegate := &fakeDelegate{}
	r.SetDelegate(delegate)

	target := avdeccid.UniqueID(7)
	var name protocol.FixedString
	copy(name[:], "unit-1")

	entityName := protocol.NamePayload{Ref: avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity}, NameIndex: 0, Name: name}
	r.HandleUnsolicited(target, protocol.AecpStatusSuccess, protocol.AemSetName, protocol.BuildNamePayload(entityName))
	if delegate.entityNameCalls != 1 || delegate.entityNameTarget != target || delegate.entityName != name {
		t.Fatalf("expected entity_name delivered, got %+v", delegate)
	}

	groupName := protocol.NamePayload{Ref: avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity}, NameIndex: 1, Name: name}
	r.HandleUnsolicited(target, protocol.AecpStatusSuccess, protocol.AemSetName, protocol.BuildNamePayload(groupName))
	if delegate.entityGroupNameCalls != 1 {
		t.Fatalf("expected group_name delivered, got %+v", delegate)
	}

	objectName := protocol.NamePayload{Ref: avdeccid.DescriptorRef{Type: avdeccid.DescriptorStreamInput, Index: 3}, NameIndex: 0, Name: name}
	r.HandleUnsolicited(target, protocol.AecpStatusSuccess, protocol.AemSetName, protocol.BuildNamePayload(objectName))
	if delegate.objectNameCalls != 1 || delegate.objectNameRef != objectName.Ref {
		t.Fatalf("expected object_name delivered, got %+v", delegate)
	}
}

func TestHandleUnsolicitedNameMultiplexDropsUnknownNameIndex(t *testing.T) {
	r := New(&fakeSender{}, protocol.ToleranceFlags{}, nil)
	delegate := &fakeDelegate{}
	r.SetDelegate(delegate)

	unknown := protocol.NamePayload{Ref: avdeccid.DescriptorRef{Type: avdeccid.DescriptorEntity}, NameIndex: 2}
	r.HandleUnsolicited(avdeccid.UniqueID(7), protocol.AecpStatusSuccess, protocol.AemSetName, protocol.BuildNamePayload(unknown))

	if delegate.entityNameCalls != 0 || delegate.entityGroupNameCalls != 0 || delegate.objectNameCalls != 0 {
		t.Fatalf("expected name-idx=2 on Entity to be logged and dropped, got %+v", delegate)
	}
}

func TestOnAecpCommandRepliesToControllerAvailable(t *testing.T) {
	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	peerMAC, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	sender := &fakeSender{mac: mac}
	r := New(sender, protocol.ToleranceFlags{}, nil)

	common := protocol.AecpCommonHeader{
		MessageType:        protocol.AecpAemCommand,
		TargetEntityID:     avdeccid.UniqueID(1),
		ControllerEntityID: avdeccid.UniqueID(2),
		SequenceID:         5,
	}
	frame, err := protocol.BuildAemFrame(mac, peerMAC, common, protocol.AemCommandHeader{CommandType: protocol.AemControllerAvailable}, nil, protocol.ToleranceFlags{})
	if err != nil {
		t.Fatalf("BuildAemFrame: %v", err)
	}

	claimed := r.OnAecpCommand(protocol.AecpCommonHeader{}, frame)
	if !claimed {
		t.Fatalf("expected CONTROLLER_AVAILABLE to be claimed")
	}
	if sender.sent == nil {
		t.Fatalf("expected a reply to be sent")
	}

	respCommon, aem, _, err := protocol.ParseAemFrame(sender.sent, protocol.ToleranceFlags{})
	if err != nil {
		t.Fatalf("ParseAemFrame on reply: %v", err)
	}
	if respCommon.MessageType != protocol.AecpAemResponse || respCommon.Status != protocol.AecpStatusSuccess {
		t.Fatalf("expected SUCCESS response, got %+v", respCommon)
	}
	if aem.CommandType != protocol.AemControllerAvailable {
		t.Fatalf("expected CONTROLLER_AVAILABLE echoed back, got %v", aem.CommandType)
	}
}

func TestOnAecpCommandLeavesOtherCommandsUnclaimed(t *testing.T) {
	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	peerMAC, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	sender := &fakeSender{mac: mac}
	r := New(sender, protocol.ToleranceFlags{}, nil)

	common := protocol.AecpCommonHeader{MessageType: protocol.AecpAemCommand}
	frame, err := protocol.BuildAemFrame(mac, peerMAC, common, protocol.AemCommandHeader{CommandType: protocol.AemAcquireEntity}, nil, protocol.ToleranceFlags{})
	if err != nil {
		t.Fatalf("BuildAemFrame: %v", err)
	}

	if r.OnAecpCommand(protocol.AecpCommonHeader{}, frame) {
		t.Fatalf("expected ACQUIRE_ENTITY to be left unclaimed")
	}
}
