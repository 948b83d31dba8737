package protocol

import (
	"encoding/binary"
	"net"
)

// AaMode is the 3-bit mode field of an Address Access TLV.
type AaMode uint8

const (
	AaModeRead      AaMode = 0
	AaModeWrite     AaMode = 1
	AaModeExecute   AaMode = 2
)

// AaTLV is a single Address Access TLV: mode(3 bits) | length(13 bits),
// then a 64-bit address, then that many bytes of data.
type AaTLV struct {
	Mode    AaMode
	Address uint64
	Data    []byte
}

func (tlv AaTLV) encodedLen() int {
	return 2 + 8 + len(tlv.Data)
}

// AaPayload is the full TLV list carried by an Address Access command or
// response.
type AaPayload struct {
	TLVs []AaTLV
}

func BuildAaPayload(p AaPayload) []byte {
	total := 0
	for _, tlv := range p.TLVs {
		total += tlv.encodedLen()
	}
	buf := make([]byte, total)
	off := 0
	for _, tlv := range p.TLVs {
		modeLen := (uint16(tlv.Mode&0x7) << 13) | (uint16(len(tlv.Data)) & 0x1FFF)
		binary.BigEndian.PutUint16(buf[off:off+2], modeLen)
		binary.BigEndian.PutUint64(buf[off+2:off+10], tlv.Address)
		copy(buf[off+10:], tlv.Data)
		off += tlv.encodedLen()
	}
	return buf
}

func ParseAaPayload(data []byte) (AaPayload, error) {
	var p AaPayload
	off := 0
	for off < len(data) {
		if len(data)-off < 10 {
			return AaPayload{}, ErrIncorrectPayloadSize
		}
		modeLen := binary.BigEndian.Uint16(data[off : off+2])
		mode := AaMode((modeLen >> 13) & 0x7)
		length := int(modeLen & 0x1FFF)
		address := binary.BigEndian.Uint64(data[off+2 : off+10])
		off += 10
		if len(data)-off < length {
			return AaPayload{}, ErrIncorrectPayloadSize
		}
		p.TLVs = append(p.TLVs, AaTLV{
			Mode:    mode,
			Address: address,
			Data:    append([]byte(nil), data[off:off+length]...),
		})
		off += length
	}
	return p, nil
}

// BuildAaFrame assembles a full Address Access command/response frame. The
// TLV list must not exceed MaxAecpPayloadSize unless
// tolerance.AcceptOversizeAecpOut is set (§8: "A 525-byte outbound is
// rejected unless accept_oversize_aecp_out").
func BuildAaFrame(dst, src net.HardwareAddr, common AecpCommonHeader, payload AaPayload, tolerance ToleranceFlags) ([]byte, error) {
	body := BuildAaPayload(payload)
	if len(body) > MaxAecpPayloadSize && !tolerance.AcceptOversizeAecpOut {
		return nil, ErrIncorrectPayloadSize
	}
	buf := make([]byte, frameHeaderLen+aecpCommonHeaderLen+len(body))
	buildAecpCommon(buf, dst, src, SubtypeAECP, common, len(body))
	copy(buf[frameHeaderLen+aecpCommonHeaderLen:], body)
	return buf, nil
}

// ParseAaFrame decodes the common AECP header and the Address Access TLV
// list.
func ParseAaFrame(data []byte, tolerance ToleranceFlags) (AecpCommonHeader, AaPayload, error) {
	common, rest, err := parseAecpCommon(data, SubtypeAECP, tolerance)
	if err != nil {
		return AecpCommonHeader{}, AaPayload{}, err
	}
	payload, err := ParseAaPayload(rest)
	if err != nil {
		return AecpCommonHeader{}, AaPayload{}, err
	}
	return common, payload, nil
}
