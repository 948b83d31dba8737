package protocol

import (
	"encoding/binary"
	"net"

	"github.com/gopatchy/avdecc/avdeccid"
)

// AcmpMessageType is the ACMP message-type field.
type AcmpMessageType uint8

const (
	AcmpConnectTxCommand       AcmpMessageType = 0
	AcmpConnectTxResponse      AcmpMessageType = 1
	AcmpDisconnectTxCommand    AcmpMessageType = 2
	AcmpDisconnectTxResponse   AcmpMessageType = 3
	AcmpGetTxStateCommand      AcmpMessageType = 4
	AcmpGetTxStateResponse     AcmpMessageType = 5
	AcmpConnectRxCommand       AcmpMessageType = 6
	AcmpConnectRxResponse      AcmpMessageType = 7
	AcmpDisconnectRxCommand    AcmpMessageType = 8
	AcmpDisconnectRxResponse   AcmpMessageType = 9
	AcmpGetRxStateCommand      AcmpMessageType = 10
	AcmpGetRxStateResponse     AcmpMessageType = 11
	AcmpGetTxConnectionCommand AcmpMessageType = 12
	AcmpGetTxConnectionResponse AcmpMessageType = 13
)

// IsResponse reports whether the message type is a *_RESPONSE variant.
func (t AcmpMessageType) IsResponse() bool {
	return t%2 == 1
}

// AcmpStatus is the ACMP status code carried in every response.
type AcmpStatus uint8

const (
	AcmpStatusSuccess                 AcmpStatus = 0
	AcmpStatusListenerUnknownID       AcmpStatus = 1
	AcmpStatusTalkerUnknownID         AcmpStatus = 2
	AcmpStatusTalkerDestMacFail       AcmpStatus = 3
	AcmpStatusTalkerNoStreamIndex     AcmpStatus = 4
	AcmpStatusTalkerNoBandwidth       AcmpStatus = 5
	AcmpStatusTalkerExclusive         AcmpStatus = 6
	AcmpStatusListenerTalkerTimeout   AcmpStatus = 7
	AcmpStatusListenerExclusive       AcmpStatus = 8
	AcmpStatusStateUnavailable        AcmpStatus = 9
	AcmpStatusNotConnected            AcmpStatus = 10
	AcmpStatusNoSuchConnection        AcmpStatus = 11
	AcmpStatusCouldNotSendMessage     AcmpStatus = 12
	AcmpStatusTalkerMisbehaving       AcmpStatus = 13
	AcmpStatusListenerMisbehaving     AcmpStatus = 14
	AcmpStatusControllerNotAuthorized AcmpStatus = 16
	AcmpStatusIncompatibleRequest     AcmpStatus = 17
	AcmpStatusNotSupported            AcmpStatus = 31
)

// AcmpFlags are the flags field bits of an ACMP PDU.
type AcmpFlags uint16

const (
	AcmpFlagClassB               AcmpFlags = 1 << 0
	AcmpFlagFastConnect          AcmpFlags = 1 << 1
	AcmpFlagSavedState           AcmpFlags = 1 << 2
	AcmpFlagStreamingWait        AcmpFlags = 1 << 3
	AcmpFlagSupportsEncrypted    AcmpFlags = 1 << 4
	AcmpFlagEncryptedPdu         AcmpFlags = 1 << 5
	AcmpFlagTalkerFailed         AcmpFlags = 1 << 6
)

const acmpBodyLen = 44

// Acmpdu is a fully decoded ACMP command or response. Field layout follows
// the 44-byte wire body: controller_entity_id, talker_entity_id,
// listener_entity_id, talker_unique_id, listener_unique_id,
// stream_dest_mac, connection_count, sequence_id, flags, stream_vlan_id,
// reserved.
type Acmpdu struct {
	MessageType        AcmpMessageType
	Status             AcmpStatus
	ControllerEntityID avdeccid.UniqueID
	TalkerEntityID     avdeccid.UniqueID
	ListenerEntityID   avdeccid.UniqueID
	TalkerUniqueID     uint16
	ListenerUniqueID   uint16
	DestMAC            net.HardwareAddr // stream_dest_mac, the multicast stream address
	ConnectionCount    uint16
	SequenceID         uint16
	Flags              AcmpFlags
	StreamVlanID       uint16
}

// BuildAcmp serializes an ACMP frame.
func BuildAcmp(dst, src net.HardwareAddr, pdu Acmpdu) []byte {
	buf := make([]byte, frameHeaderLen+acmpBodyLen)

	buildFrameHeader(buf, FrameHeader{
		DstMAC:      dst,
		SrcMAC:      src,
		Subtype:     SubtypeACMP,
		StreamValid: false,
		Version:     0,
		ControlData: uint8(pdu.MessageType),
		Status:      uint8(pdu.Status),
	}, acmpBodyLen)

	body := buf[frameHeaderLen:]
	binary.BigEndian.PutUint64(body[0:8], uint64(pdu.ControllerEntityID))
	binary.BigEndian.PutUint64(body[8:16], uint64(pdu.TalkerEntityID))
	binary.BigEndian.PutUint64(body[16:24], uint64(pdu.ListenerEntityID))
	binary.BigEndian.PutUint16(body[24:26], pdu.TalkerUniqueID)
	binary.BigEndian.PutUint16(body[26:28], pdu.ListenerUniqueID)
	if len(pdu.DestMAC) == 6 {
		copy(body[28:34], pdu.DestMAC)
	}
	binary.BigEndian.PutUint16(body[34:36], pdu.ConnectionCount)
	binary.BigEndian.PutUint16(body[36:38], pdu.SequenceID)
	binary.BigEndian.PutUint16(body[38:40], uint16(pdu.Flags))
	binary.BigEndian.PutUint16(body[40:42], pdu.StreamVlanID)
	// body[42:44] is reserved.

	return buf
}

// ParseAcmp decodes a raw ACMP frame.
func ParseAcmp(data []byte, tolerance ToleranceFlags) (Acmpdu, error) {
	h, body, err := parseFrameHeader(data)
	if err != nil {
		return Acmpdu{}, err
	}
	if h.Subtype != SubtypeACMP {
		return Acmpdu{}, ErrUnknownSubtype
	}
	if len(body) < acmpBodyLen {
		return Acmpdu{}, ErrPacketTooShort
	}
	if err := checkControlDataLength(h, acmpBodyLen, tolerance); err != nil {
		return Acmpdu{}, err
	}

	var pdu Acmpdu
	pdu.MessageType = AcmpMessageType(h.ControlData)
	pdu.Status = AcmpStatus(h.Status)
	pdu.ControllerEntityID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[0:8]))
	pdu.TalkerEntityID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[8:16]))
	pdu.ListenerEntityID = avdeccid.UniqueID(binary.BigEndian.Uint64(body[16:24]))
	pdu.TalkerUniqueID = binary.BigEndian.Uint16(body[24:26])
	pdu.ListenerUniqueID = binary.BigEndian.Uint16(body[26:28])
	pdu.DestMAC = net.HardwareAddr(append([]byte(nil), body[28:34]...))
	pdu.ConnectionCount = binary.BigEndian.Uint16(body[34:36])
	pdu.SequenceID = binary.BigEndian.Uint16(body[36:38])
	pdu.Flags = AcmpFlags(binary.BigEndian.Uint16(body[38:40]))
	pdu.StreamVlanID = binary.BigEndian.Uint16(body[40:42])

	return pdu, nil
}
