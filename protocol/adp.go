package protocol

import (
	"encoding/binary"
	"net"

	"github.com/gopatchy/avdecc/avdeccid"
)

// AdpMessageType is the ADP message-type field (carried in the AVTP
// control-data nibble).
type AdpMessageType uint8

const (
	AdpEntityAvailable AdpMessageType = 0
	AdpEntityDeparting AdpMessageType = 1
	AdpEntityDiscover  AdpMessageType = 2
)

func (t AdpMessageType) String() string {
	switch t {
	case AdpEntityAvailable:
		return "ENTITY_AVAILABLE"
	case AdpEntityDeparting:
		return "ENTITY_DEPARTING"
	case AdpEntityDiscover:
		return "ENTITY_DISCOVER"
	default:
		return "UNKNOWN"
	}
}

// EntityCapabilities, TalkerCapabilities, ListenerCapabilities and
// ControllerCapabilities are the four ADP capability bitsets.
type EntityCapabilities uint32
type TalkerCapabilities uint16
type ListenerCapabilities uint16
type ControllerCapabilities uint32

const (
	ControllerCapabilityImplemented ControllerCapabilities = 1 << 0
)

// adpBodyLen is the fixed ADP body length (Clause 6.2.1), after the common
// frame header and before any trailer.
const adpBodyLen = 60

// Adpdu is a fully decoded ADP advertisement or discovery message.
type Adpdu struct {
	MessageType            AdpMessageType
	ValidTime              uint8 // units of 2 seconds, per Clause 6.2.1.7
	EntityID               avdeccid.UniqueID
	EntityModelID          avdeccid.UniqueID
	EntityCapabilities     EntityCapabilities
	TalkerStreamSources    uint16
	TalkerCapabilities     TalkerCapabilities
	ListenerStreamSinks    uint16
	ListenerCapabilities   ListenerCapabilities
	ControllerCapabilities ControllerCapabilities
	AvailableIndex         uint32
	GptpGrandmasterID      avdeccid.UniqueID
	GptpDomainNumber       uint8
	IdentifyControlIndex   uint16
	InterfaceIndex         uint16
	AssociationID          avdeccid.UniqueID
}

// BuildAdp serializes an ADP frame ready to send.
func BuildAdp(dst, src net.HardwareAddr, pdu Adpdu) []byte {
	buf := make([]byte, frameHeaderLen+adpBodyLen)

	buildFrameHeader(buf, FrameHeader{
		DstMAC:      dst,
		SrcMAC:      src,
		Subtype:     SubtypeADP,
		StreamValid: false,
		Version:     0,
		ControlData: uint8(pdu.MessageType),
		Status:      pdu.ValidTime, // ADP overloads the status field as valid_time
	}, adpBodyLen)

	body := buf[frameHeaderLen:]
	binary.BigEndian.PutUint64(body[0:8], uint64(pdu.EntityID))
	binary.BigEndian.PutUint64(body[8:16], uint64(pdu.EntityModelID))
	binary.BigEndian.PutUint32(body[16:20], uint32(pdu.EntityCapabilities))
	binary.BigEndian.PutUint16(body[20:22], pdu.TalkerStreamSources)
	binary.BigEndian.PutUint16(body[22:24], uint16(pdu.TalkerCapabilities))
	binary.BigEndian.PutUint16(body[24:26], pdu.ListenerStreamSinks)
	binary.BigEndian.PutUint16(body[26:28], uint16(pdu.ListenerCapabilities))
	binary.BigEndian.PutUint32(body[28:32], uint32(pdu.ControllerCapabilities))
	binary.BigEndian.PutUint32(body[32:36], pdu.AvailableIndex)
	binary.BigEndian.PutUint64(body[36:44], uint64(pdu.GptpGrandmasterID))
	body[44] = pdu.GptpDomainNumber
	// body[45..48) reserved
	binary.BigEndian.PutUint16(body[48:50], pdu.IdentifyControlIndex)
	binary.BigEndian.PutUint16(body[50:52], pdu.InterfaceIndex)
	binary.BigEndian.PutUint64(body[52:60], uint64(pdu.AssociationID))

	return buf
}

// ParseAdp decodes a raw ADP frame (header already stripped by the caller's
// ethertype/subtype check is not required; ParseAdp validates the subtype
// itself).
func ParseAdp(data []byte, tolerance ToleranceFlags) (Adpdu, error) {
	h, body, err := parseFrameHeader(data)
	if err != nil {
		return Adpdu{}, err
	}
	if h.Subtype != SubtypeADP {
		return Adpdu{}, ErrUnknownSubtype
	}
	if len(body) < adpBodyLen {
		return Adpdu{}, ErrPacketTooShort
	}
	if err := checkControlDataLength(h, adpBodyLen, tolerance); err != nil {
		return Adpdu{}, err
	}

	var pdu Adpdu
	pdu.MessageType = AdpMessageType(h.ControlData & 0x0F)
	pdu.ValidTime = h.Status
	pdu.EntityID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[0:8]))
	pdu.EntityModelID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[8:16]))
	pdu.EntityCapabilities = EntityCapabilities(binary.BigEndian.Uint32(body[16:20]))
	pdu.TalkerStreamSources = binary.BigEndian.Uint16(body[20:22])
	pdu.TalkerCapabilities = TalkerCapabilities(binary.BigEndian.Uint16(body[22:24]))
	pdu.ListenerStreamSinks = binary.BigEndian.Uint16(body[24:26])
	pdu.ListenerCapabilities = ListenerCapabilities(binary.BigEndian.Uint16(body[26:28]))
	pdu.ControllerCapabilities = ControllerCapabilities(binary.BigEndian.Uint32(body[28:32]))
	pdu.AvailableIndex = binary.BigEndian.Uint32(body[32:36])
	pdu.GptpGrandmasterID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[36:44]))
	pdu.GptpDomainNumber = body[44]
	pdu.IdentifyControlIndex = binary.BigEndian.Uint16(body[48:50])
	pdu.InterfaceIndex = binary.BigEndian.Uint16(body[50:52])
	pdu.AssociationID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[52:60]))

	return pdu, nil
}
