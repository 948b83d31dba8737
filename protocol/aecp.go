package protocol

import (
	"encoding/binary"
	"net"

	"github.com/gopatchy/avdecc/avdeccid"
)

// AecpMessageType is the AECP message-type field, shared across the AEM,
// Address Access, and Vendor-Unique (MVU) sub-families.
type AecpMessageType uint8

const (
	AecpAemCommand              AecpMessageType = 0
	AecpAemResponse             AecpMessageType = 1
	AecpAddressAccessCommand    AecpMessageType = 2
	AecpAddressAccessResponse   AecpMessageType = 3
	AecpVendorUniqueCommand     AecpMessageType = 6
	AecpVendorUniqueResponse    AecpMessageType = 7
)

func (t AecpMessageType) IsResponse() bool {
	return t%2 == 1
}

// AecpStatus is the common AECP status code. AEM, AA, and MVU each reuse
// this numeric space (with family-specific extensions above 9).
type AecpStatus uint8

const (
	AecpStatusSuccess                AecpStatus = 0
	AecpStatusNotImplemented         AecpStatus = 1
	AecpStatusNoSuchDescriptor       AecpStatus = 2
	AecpStatusEntityLocked           AecpStatus = 3
	AecpStatusEntityAcquired         AecpStatus = 4
	AecpStatusNotAuthenticated       AecpStatus = 5
	AecpStatusAuthenticationDisabled AecpStatus = 6
	AecpStatusBadArguments           AecpStatus = 7
	AecpStatusNoResources            AecpStatus = 8
	AecpStatusInProgress             AecpStatus = 9
	AecpStatusEntityMisbehaving      AecpStatus = 10
	AecpStatusNotSupported           AecpStatus = 11
	AecpStatusStreamIsRunning        AecpStatus = 12
)

func (s AecpStatus) String() string {
	switch s {
	case AecpStatusSuccess:
		return "SUCCESS"
	case AecpStatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case AecpStatusNoSuchDescriptor:
		return "NO_SUCH_DESCRIPTOR"
	case AecpStatusEntityLocked:
		return "ENTITY_LOCKED"
	case AecpStatusEntityAcquired:
		return "ENTITY_ACQUIRED"
	case AecpStatusNotAuthenticated:
		return "NOT_AUTHENTICATED"
	case AecpStatusAuthenticationDisabled:
		return "AUTHENTICATION_DISABLED"
	case AecpStatusBadArguments:
		return "BAD_ARGUMENTS"
	case AecpStatusNoResources:
		return "NO_RESOURCES"
	case AecpStatusInProgress:
		return "IN_PROGRESS"
	case AecpStatusEntityMisbehaving:
		return "ENTITY_MISBEHAVING"
	case AecpStatusNotSupported:
		return "NOT_SUPPORTED"
	case AecpStatusStreamIsRunning:
		return "STREAM_IS_RUNNING"
	default:
		return "UNKNOWN"
	}
}

const aecpCommonHeaderLen = 18

// AecpCommonHeader is the header shared by every AECP sub-family, sitting
// between the AVTP control header and the sub-family-specific payload.
//
//	[0..8)   target entity id
//	[8..16)  controller entity id
//	[16..18) sequence id
type AecpCommonHeader struct {
	MessageType    AecpMessageType
	Status         AecpStatus
	TargetEntityID avdeccid.UniqueID
	ControllerEntityID avdeccid.UniqueID
	SequenceID     uint16
}

func buildAecpCommon(buf []byte, dst, src net.HardwareAddr, subtype uint8, h AecpCommonHeader, payloadLen int) {
	bodyLen := aecpCommonHeaderLen + payloadLen
	buildFrameHeader(buf, FrameHeader{
		DstMAC:      dst,
		SrcMAC:      src,
		Subtype:     subtype,
		StreamValid: false,
		Version:     0,
		ControlData: uint8(h.MessageType),
		Status:      uint8(h.Status),
	}, bodyLen)

	body := buf[frameHeaderLen:]
	binary.BigEndian.PutUint64(body[0:8], uint64(h.TargetEntityID))
	binary.BigEndian.PutUint64(body[8:16], uint64(h.ControllerEntityID))
	binary.BigEndian.PutUint16(body[16:18], h.SequenceID)
}

func parseAecpCommon(data []byte, subtype uint8, tolerance ToleranceFlags) (AecpCommonHeader, []byte, error) {
	fh, body, err := parseFrameHeader(data)
	if err != nil {
		return AecpCommonHeader{}, nil, err
	}
	if fh.Subtype != subtype {
		return AecpCommonHeader{}, nil, ErrUnknownSubtype
	}
	if len(body) < aecpCommonHeaderLen {
		return AecpCommonHeader{}, nil, ErrPacketTooShort
	}

	maxPayload := MaxAecpPayloadSize
	if tolerance.AcceptOversizeAecpIn {
		maxPayload = len(body) - aecpCommonHeaderLen
	}
	payloadLen := int(fh.ControlDataLength) - aecpCommonHeaderLen
	if payloadLen < 0 {
		return AecpCommonHeader{}, nil, ErrMalformedField
	}
	if payloadLen > maxPayload && !tolerance.AcceptInvalidControlDataLength {
		return AecpCommonHeader{}, nil, ErrIncorrectPayloadSize
	}

	h := AecpCommonHeader{
		MessageType:        AecpMessageType(fh.ControlData),
		Status:             AecpStatus(fh.Status),
		TargetEntityID:     avdeccid.UniqueID(binary.BigEndian.Uint64(body[0:8])),
		ControllerEntityID: avdeccid.UniqueID(binary.BigEndian.Uint64(body[8:16])),
		SequenceID:         binary.BigEndian.Uint16(body[16:18]),
	}

	return h, body[aecpCommonHeaderLen:], nil
}
