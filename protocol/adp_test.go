package protocol

import (
	"net"
	"testing"

	"github.com/gopatchy/avdecc/avdeccid"
)

func testMACs() (net.HardwareAddr, net.HardwareAddr) {
	dst, _ := net.ParseMAC("91:e0:f0:01:00:00")
	src, _ := net.ParseMAC("00:1b:c5:0a:c1:23")
	return dst, src
}

func TestAdpRoundTrip(t *testing.T) {
	dst, src := testMACs()
	pdu := Adpdu{
		MessageType:            AdpEntityAvailable,
		ValidTime:              10,
		EntityID:               avdeccid.UniqueID(0x0102030405060708),
		EntityModelID:          avdeccid.UniqueID(0xAABBCCDD11223344),
		EntityCapabilities:     0x00000008,
		TalkerStreamSources:    2,
		TalkerCapabilities:     0x4001,
		ListenerStreamSinks:    1,
		ListenerCapabilities:   0x4001,
		ControllerCapabilities: ControllerCapabilityImplemented,
		AvailableIndex:         42,
		GptpGrandmasterID:      avdeccid.UniqueID(0x1122334455667788),
		GptpDomainNumber:       0,
		IdentifyControlIndex:   3,
		InterfaceIndex:         0,
		AssociationID:          avdeccid.Undefined,
	}

	frame := BuildAdp(dst, src, pdu)
	got, err := ParseAdp(frame, DefaultTolerance())
	if err != nil {
		t.Fatalf("ParseAdp: %v", err)
	}
	if got != pdu {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, pdu)
	}
}

func TestAdpRejectsShortFrame(t *testing.T) {
	_, err := ParseAdp(make([]byte, 10), DefaultTolerance())
	if err != ErrPacketTooShort {
		t.Fatalf("expected ErrPacketTooShort, got %v", err)
	}
}

func TestAdpRejectsWrongSubtype(t *testing.T) {
	dst, src := testMACs()
	frame := BuildAcmp(dst, src, Acmpdu{MessageType: AcmpConnectRxCommand})
	_, err := ParseAdp(frame, DefaultTolerance())
	if err != ErrUnknownSubtype {
		t.Fatalf("expected ErrUnknownSubtype, got %v", err)
	}
}

func FuzzAdpRoundTrip(f *testing.F) {
	dst, src := testMACs()
	f.Add(uint8(0), uint64(0x0102030405060708), uint32(10), uint8(2))
	f.Add(uint8(2), uint64(0), uint32(0), uint8(0))
	f.Add(uint8(1), uint64(0xFFFFFFFFFFFFFFFF), uint32(0xFFFFFFFF), uint8(31))

	f.Fuzz(func(t *testing.T, msgType uint8, entityID uint64, availIdx uint32, validTime uint8) {
		pdu := Adpdu{
			MessageType:    AdpMessageType(msgType & 0x0F),
			ValidTime:      validTime & 0x1F,
			EntityID:       avdeccid.UniqueID(entityID),
			AvailableIndex: availIdx,
		}
		frame := BuildAdp(dst, src, pdu)
		got, err := ParseAdp(frame, DefaultTolerance())
		if err != nil {
			t.Fatalf("ParseAdp failed on our own output: %v", err)
		}
		if got.MessageType != pdu.MessageType || got.EntityID != pdu.EntityID ||
			got.AvailableIndex != pdu.AvailableIndex || got.ValidTime != pdu.ValidTime {
			t.Fatalf("round trip mismatch: got=%+v want=%+v", got, pdu)
		}
	})
}
