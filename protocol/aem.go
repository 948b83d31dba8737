package protocol

import (
	"encoding/binary"
	"net"
)

// AemCommandType is the AEM command-type field (14 bits on the wire,
// stored widened to 16 for convenience).
type AemCommandType uint16

// AEM command types, IEEE 1722.1 Clause 7.4. Only the subset spec.md's
// command table (plus the SUPPLEMENTED FEATURES additions in SPEC_FULL.md)
// gets a typed payload codec in this package; the rest are still valid,
// routable values so the dispatch table in package router stays exhaustive.
const (
	AemAcquireEntity                       AemCommandType = 0x0000
	AemLockEntity                          AemCommandType = 0x0001
	AemEntityAvailable                     AemCommandType = 0x0002
	AemControllerAvailable                 AemCommandType = 0x0003
	AemReadDescriptor                      AemCommandType = 0x0004
	AemWriteDescriptor                     AemCommandType = 0x0005
	AemSetConfiguration                    AemCommandType = 0x0006
	AemGetConfiguration                    AemCommandType = 0x0007
	AemSetStreamFormat                     AemCommandType = 0x0008
	AemGetStreamFormat                     AemCommandType = 0x0009
	AemSetStreamInfo                       AemCommandType = 0x000E
	AemGetStreamInfo                       AemCommandType = 0x000F
	AemSetName                             AemCommandType = 0x0010
	AemGetName                             AemCommandType = 0x0011
	AemSetSamplingRate                     AemCommandType = 0x0014
	AemGetSamplingRate                     AemCommandType = 0x0015
	AemSetClockSource                      AemCommandType = 0x0016
	AemGetClockSource                      AemCommandType = 0x0017
	AemSetControl                          AemCommandType = 0x0018
	AemGetControl                          AemCommandType = 0x0019
	AemStartStreaming                      AemCommandType = 0x0022
	AemStopStreaming                       AemCommandType = 0x0023
	AemRegisterUnsolicitedNotification     AemCommandType = 0x0024
	AemDeregisterUnsolicitedNotification   AemCommandType = 0x0025
	AemIdentifyNotification                AemCommandType = 0x0026
	AemGetAvbInfo                          AemCommandType = 0x0027
	AemGetAsPath                           AemCommandType = 0x0028
	AemGetCounters                         AemCommandType = 0x0029
	AemGetAudioMap                         AemCommandType = 0x002B
	AemAddAudioMappings                    AemCommandType = 0x002C
	AemRemoveAudioMappings                 AemCommandType = 0x002D
	AemStartOperation                      AemCommandType = 0x0034
	AemAbortOperation                      AemCommandType = 0x0035
	AemOperationStatus                     AemCommandType = 0x0036
	AemSetMemoryObjectLength               AemCommandType = 0x004C
	AemGetMemoryObjectLength               AemCommandType = 0x004D
	AemExpansion                           AemCommandType = 0x7FFF
)

const aemCommandHeaderLen = 2

// AemCommandHeader is the 2-byte header prefixing every AEM payload: the
// unsolicited bit plus a 14-bit command type.
type AemCommandHeader struct {
	Unsolicited bool
	CommandType AemCommandType
}

func buildAemCommandHeader(buf []byte, h AemCommandHeader) {
	v := uint16(h.CommandType) & 0x7FFF
	if h.Unsolicited {
		v |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[0:2], v)
}

func parseAemCommandHeader(data []byte) (AemCommandHeader, []byte, error) {
	if len(data) < aemCommandHeaderLen {
		return AemCommandHeader{}, nil, ErrPacketTooShort
	}
	v := binary.BigEndian.Uint16(data[0:2])
	h := AemCommandHeader{
		Unsolicited: v&0x8000 != 0,
		CommandType: AemCommandType(v & 0x7FFF),
	}
	return h, data[aemCommandHeaderLen:], nil
}

// BuildAemFrame assembles a full AEM command/response frame: common frame
// header, AECP common header, AEM command header, and payload. The AEM
// header plus payload must not exceed MaxAecpPayloadSize unless
// tolerance.AcceptOversizeAecpOut is set (§8: "A 525-byte outbound is
// rejected unless accept_oversize_aecp_out").
func BuildAemFrame(dst, src net.HardwareAddr, common AecpCommonHeader, aem AemCommandHeader, payload []byte, tolerance ToleranceFlags) ([]byte, error) {
	aecpPayloadLen := aemCommandHeaderLen + len(payload)
	if aecpPayloadLen > MaxAecpPayloadSize && !tolerance.AcceptOversizeAecpOut {
		return nil, ErrIncorrectPayloadSize
	}

	total := frameHeaderLen + aecpCommonHeaderLen + aecpPayloadLen
	buf := make([]byte, total)

	buildAecpCommon(buf, dst, src, SubtypeAECP, common, aecpPayloadLen)
	aemBuf := buf[frameHeaderLen+aecpCommonHeaderLen:]
	buildAemCommandHeader(aemBuf, aem)
	copy(aemBuf[aemCommandHeaderLen:], payload)

	return buf, nil
}

// ParseAemFrame decodes the common AECP + AEM command headers and returns
// the remaining raw command-type-specific payload for further decoding by
// package router's per-command deserializers.
func ParseAemFrame(data []byte, tolerance ToleranceFlags) (AecpCommonHeader, AemCommandHeader, []byte, error) {
	common, rest, err := parseAecpCommon(data, SubtypeAECP, tolerance)
	if err != nil {
		return AecpCommonHeader{}, AemCommandHeader{}, nil, err
	}
	aem, payload, err := parseAemCommandHeader(rest)
	if err != nil {
		return AecpCommonHeader{}, AemCommandHeader{}, nil, err
	}
	return common, aem, payload, nil
}
