package protocol

import (
	"encoding/binary"
	"net"
)

// MvuCommandType is the Milan Vendor-Unique command-type field, reusing
// the same 14-bit space as AEM but scoped to Milan's own command set.
type MvuCommandType uint16

const (
	MvuGetMilanInfo MvuCommandType = 0x0000
)

// milanProtocolID is the 5-byte MVU vendor-unique protocol identifier
// Milan-certified entities check against (ProtocolID field, Milan spec
// §5.4.4).
var milanProtocolID = [5]byte{0x00, 0x1B, 0xC5, 0x0A, 0xC1}

const mvuHeaderLen = 5 + 2 // protocol id + (unsolicited bit | command type)

// MvuCommandHeader is the vendor-id-prefixed variant of AemCommandHeader
// used by the MVU sub-family.
type MvuCommandHeader struct {
	Unsolicited bool
	CommandType MvuCommandType
}

// BuildMvuFrame assembles a full MVU command/response frame. The MVU header
// plus payload must not exceed MaxAecpPayloadSize unless
// tolerance.AcceptOversizeAecpOut is set (§8: "A 525-byte outbound is
// rejected unless accept_oversize_aecp_out").
func BuildMvuFrame(dst, src net.HardwareAddr, common AecpCommonHeader, mvu MvuCommandHeader, payload []byte, tolerance ToleranceFlags) ([]byte, error) {
	aecpPayloadLen := mvuHeaderLen + len(payload)
	if aecpPayloadLen > MaxAecpPayloadSize && !tolerance.AcceptOversizeAecpOut {
		return nil, ErrIncorrectPayloadSize
	}

	buf := make([]byte, frameHeaderLen+aecpCommonHeaderLen+aecpPayloadLen)
	buildAecpCommon(buf, dst, src, SubtypeAECP, common, aecpPayloadLen)

	body := buf[frameHeaderLen+aecpCommonHeaderLen:]
	copy(body[0:5], milanProtocolID[:])
	v := uint16(mvu.CommandType) & 0x7FFF
	if mvu.Unsolicited {
		v |= 0x8000
	}
	binary.BigEndian.PutUint16(body[5:7], v)
	copy(body[7:], payload)

	return buf, nil
}

// ParseMvuFrame decodes the common AECP header, validates the Milan
// protocol id, and returns the command header plus remaining payload.
func ParseMvuFrame(data []byte, tolerance ToleranceFlags) (AecpCommonHeader, MvuCommandHeader, []byte, error) {
	common, rest, err := parseAecpCommon(data, SubtypeAECP, tolerance)
	if err != nil {
		return AecpCommonHeader{}, MvuCommandHeader{}, nil, err
	}
	if len(rest) < mvuHeaderLen {
		return AecpCommonHeader{}, MvuCommandHeader{}, nil, ErrPacketTooShort
	}
	for i, b := range milanProtocolID {
		if rest[i] != b {
			return AecpCommonHeader{}, MvuCommandHeader{}, nil, ErrMalformedField
		}
	}
	v := binary.BigEndian.Uint16(rest[5:7])
	mvu := MvuCommandHeader{
		Unsolicited: v&0x8000 != 0,
		CommandType: MvuCommandType(v & 0x7FFF),
	}
	return common, mvu, rest[mvuHeaderLen:], nil
}

// MilanInfo is GET_MILAN_INFO's response payload: Milan compatibility
// metadata an entity advertises.
type MilanInfo struct {
	ProtocolVersion    uint32
	FeaturesFlags      uint32
	CertificationVersion uint32
}

func BuildMilanInfoPayload(p MilanInfo) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], p.ProtocolVersion)
	binary.BigEndian.PutUint32(buf[4:8], p.FeaturesFlags)
	binary.BigEndian.PutUint32(buf[8:12], p.CertificationVersion)
	return buf
}

func ParseMilanInfoPayload(data []byte) (MilanInfo, error) {
	if len(data) < 12 {
		return MilanInfo{}, ErrIncorrectPayloadSize
	}
	return MilanInfo{
		ProtocolVersion:      binary.BigEndian.Uint32(data[0:4]),
		FeaturesFlags:        binary.BigEndian.Uint32(data[4:8]),
		CertificationVersion: binary.BigEndian.Uint32(data[8:12]),
	}, nil
}
