package protocol

import (
	"encoding/binary"

	"github.com/gopatchy/avdecc/avdeccid"
)

// GetAvbInfoCommandPayload requests AVB interface state.
type GetAvbInfoCommandPayload struct {
	Ref avdeccid.DescriptorRef
}

func BuildGetAvbInfoCommandPayload(p GetAvbInfoCommandPayload) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	return buf
}

func ParseGetAvbInfoCommandPayload(data []byte) (GetAvbInfoCommandPayload, error) {
	if len(data) < 4 {
		return GetAvbInfoCommandPayload{}, ErrIncorrectPayloadSize
	}
	return GetAvbInfoCommandPayload{
		Ref: avdeccid.DescriptorRef{
			Type:  avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2])),
			Index: binary.BigEndian.Uint16(data[2:4]),
		},
	}, nil
}

// AvbInfoFlags are the flags bits of the AvbInfo structure.
type AvbInfoFlags uint8

const (
	AvbInfoFlagAsCapable       AvbInfoFlags = 1 << 0
	AvbInfoFlagGptpEnabled     AvbInfoFlags = 1 << 1
	AvbInfoFlagSrpEnabled      AvbInfoFlags = 1 << 2
)

// AvbInfo describes a AVB_INTERFACE descriptor's live gPTP/SRP state.
type AvbInfo struct {
	GptpGrandmasterID avdeccid.UniqueID
	PropagationDelay  uint32
	GptpDomainNumber  uint8
	Flags             AvbInfoFlags
	// MsrpMappings is intentionally omitted: it's a variable-length list of
	// (traffic-class, priority, vlan-id) tuples defined by the entity model,
	// which is out of this codec's scope per spec.md §1.
}

// GetAvbInfoResponsePayload is GET_AVB_INFO's response: the command's
// descriptor ref plus the AvbInfo struct.
type GetAvbInfoResponsePayload struct {
	Ref  avdeccid.DescriptorRef
	Info AvbInfo
}

const avbInfoResponseLen = 4 + 8 + 4 + 1 + 1 + 2 // ref + gm + delay + domain + flags + mapping-count(2)

func BuildGetAvbInfoResponsePayload(p GetAvbInfoResponsePayload) []byte {
	buf := make([]byte, avbInfoResponseLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	binary.BigEndian.PutUint64(buf[4:12], uint64(p.Info.GptpGrandmasterID))
	binary.BigEndian.PutUint32(buf[12:16], p.Info.PropagationDelay)
	buf[16] = p.Info.GptpDomainNumber
	buf[17] = uint8(p.Info.Flags)
	// buf[18:20) mappings_count, left 0 (no mappings carried by this codec)
	return buf
}

func ParseGetAvbInfoResponsePayload(data []byte) (GetAvbInfoResponsePayload, error) {
	if len(data) < avbInfoResponseLen {
		return GetAvbInfoResponsePayload{}, ErrIncorrectPayloadSize
	}
	var p GetAvbInfoResponsePayload
	p.Ref.Type = avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2]))
	p.Ref.Index = binary.BigEndian.Uint16(data[2:4])
	p.Info.GptpGrandmasterID = avdeccid.UniqueID(binary.BigEndian.Uint64(data[4:12]))
	p.Info.PropagationDelay = binary.BigEndian.Uint32(data[12:16])
	p.Info.GptpDomainNumber = data[16]
	p.Info.Flags = AvbInfoFlags(data[17])
	return p, nil
}

// GetAsPathCommandPayload requests an AVB interface's gPTP AS path.
type GetAsPathCommandPayload struct {
	AvbInterfaceIndex uint16
}

func BuildGetAsPathCommandPayload(p GetAsPathCommandPayload) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], p.AvbInterfaceIndex)
	return buf
}

func ParseGetAsPathCommandPayload(data []byte) (GetAsPathCommandPayload, error) {
	if len(data) < 4 {
		return GetAsPathCommandPayload{}, ErrIncorrectPayloadSize
	}
	return GetAsPathCommandPayload{AvbInterfaceIndex: binary.BigEndian.Uint16(data[0:2])}, nil
}

// GetAsPathResponsePayload carries an ordered list of clock identities
// (grandmaster path) as reported by gPTP.
type GetAsPathResponsePayload struct {
	Path []avdeccid.UniqueID
}

func BuildGetAsPathResponsePayload(p GetAsPathResponsePayload) []byte {
	buf := make([]byte, 4+8*len(p.Path))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(p.Path)*8))
	for i, id := range p.Path {
		binary.BigEndian.PutUint64(buf[4+i*8:12+i*8], uint64(id))
	}
	return buf
}

func ParseGetAsPathResponsePayload(data []byte) (GetAsPathResponsePayload, error) {
	if len(data) < 4 {
		return GetAsPathResponsePayload{}, ErrIncorrectPayloadSize
	}
	pathLen := int(binary.BigEndian.Uint16(data[0:2]))
	if pathLen%8 != 0 || len(data) < 4+pathLen {
		return GetAsPathResponsePayload{}, ErrIncorrectPayloadSize
	}
	count := pathLen / 8
	path := make([]avdeccid.UniqueID, count)
	for i := 0; i < count; i++ {
		path[i] = avdeccid.UniqueID(binary.BigEndian.Uint64(data[4+i*8 : 12+i*8]))
	}
	return GetAsPathResponsePayload{Path: path}, nil
}

// GetCountersCommandPayload requests a descriptor's counter block.
type GetCountersCommandPayload struct {
	Ref avdeccid.DescriptorRef
}

func BuildGetCountersCommandPayload(p GetCountersCommandPayload) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	return buf
}

func ParseGetCountersCommandPayload(data []byte) (GetCountersCommandPayload, error) {
	if len(data) < 4 {
		return GetCountersCommandPayload{}, ErrIncorrectPayloadSize
	}
	return GetCountersCommandPayload{
		Ref: avdeccid.DescriptorRef{
			Type:  avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2])),
			Index: binary.BigEndian.Uint16(data[2:4]),
		},
	}, nil
}

// GetCountersResponsePayload is a fixed 32-bit validity bitmap followed by
// 32 uint32 counter slots, only the valid ones meaningful.
type GetCountersResponsePayload struct {
	Ref          avdeccid.DescriptorRef
	ValidCounters uint32
	Counters     [32]uint32
}

const countersResponseLen = 4 + 4 + 32*4

func BuildGetCountersResponsePayload(p GetCountersResponsePayload) []byte {
	buf := make([]byte, countersResponseLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	binary.BigEndian.PutUint32(buf[4:8], p.ValidCounters)
	for i, c := range p.Counters {
		binary.BigEndian.PutUint32(buf[8+i*4:12+i*4], c)
	}
	return buf
}

func ParseGetCountersResponsePayload(data []byte) (GetCountersResponsePayload, error) {
	if len(data) < countersResponseLen {
		return GetCountersResponsePayload{}, ErrIncorrectPayloadSize
	}
	var p GetCountersResponsePayload
	p.Ref.Type = avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2]))
	p.Ref.Index = binary.BigEndian.Uint16(data[2:4])
	p.ValidCounters = binary.BigEndian.Uint32(data[4:8])
	for i := range p.Counters {
		p.Counters[i] = binary.BigEndian.Uint32(data[8+i*4 : 12+i*4])
	}
	return p, nil
}

// AudioMapping is a single (stream channel <-> cluster channel) mapping
// entry used by GET/ADD/REMOVE_AUDIO_MAPPINGS.
type AudioMapping struct {
	StreamIndex  uint16
	StreamChannel uint16
	ClusterOffset uint16
	ClusterChannel uint16
}

// AudioMappingsCommandPayload is shared by GET/ADD/REMOVE_AUDIO_MAPPINGS
// commands. MapIndex paginates GET requests; Mappings carries the list for
// ADD/REMOVE.
type AudioMappingsCommandPayload struct {
	Ref      avdeccid.DescriptorRef
	MapIndex uint16
	Mappings []AudioMapping
}

func BuildAudioMappingsCommandPayload(p AudioMappingsCommandPayload) []byte {
	buf := make([]byte, 8+8*len(p.Mappings))
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	binary.BigEndian.PutUint16(buf[4:6], p.MapIndex)
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(p.Mappings)))
	for i, m := range p.Mappings {
		off := 8 + i*8
		binary.BigEndian.PutUint16(buf[off:off+2], m.StreamIndex)
		binary.BigEndian.PutUint16(buf[off+2:off+4], m.StreamChannel)
		binary.BigEndian.PutUint16(buf[off+4:off+6], m.ClusterOffset)
		binary.BigEndian.PutUint16(buf[off+6:off+8], m.ClusterChannel)
	}
	return buf
}

func ParseAudioMappingsCommandPayload(data []byte, tolerance ToleranceFlags) (AudioMappingsCommandPayload, error) {
	if len(data) < 8 {
		return AudioMappingsCommandPayload{}, ErrIncorrectPayloadSize
	}
	var p AudioMappingsCommandPayload
	p.Ref.Type = avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2]))
	p.Ref.Index = binary.BigEndian.Uint16(data[2:4])
	p.MapIndex = binary.BigEndian.Uint16(data[4:6])
	count := int(binary.BigEndian.Uint16(data[6:8]))
	need := 8 + count*8
	if len(data) < need {
		if !tolerance.AcceptMissingMappingDescriptors {
			return AudioMappingsCommandPayload{}, ErrIncorrectPayloadSize
		}
		count = (len(data) - 8) / 8
	}
	p.Mappings = make([]AudioMapping, count)
	for i := 0; i < count; i++ {
		off := 8 + i*8
		p.Mappings[i] = AudioMapping{
			StreamIndex:    binary.BigEndian.Uint16(data[off : off+2]),
			StreamChannel:  binary.BigEndian.Uint16(data[off+2 : off+4]),
			ClusterOffset:  binary.BigEndian.Uint16(data[off+4 : off+6]),
			ClusterChannel: binary.BigEndian.Uint16(data[off+6 : off+8]),
		}
	}
	return p, nil
}

// OperationCommandPayload is shared by START_OPERATION/ABORT_OPERATION.
type OperationCommandPayload struct {
	Ref           avdeccid.DescriptorRef
	OperationID   uint16
	OperationType uint16
	Buffer        []byte
}

func BuildOperationCommandPayload(p OperationCommandPayload) []byte {
	buf := make([]byte, 8+len(p.Buffer))
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	binary.BigEndian.PutUint16(buf[4:6], p.OperationID)
	binary.BigEndian.PutUint16(buf[6:8], p.OperationType)
	copy(buf[8:], p.Buffer)
	return buf
}

func ParseOperationCommandPayload(data []byte) (OperationCommandPayload, error) {
	if len(data) < 8 {
		return OperationCommandPayload{}, ErrIncorrectPayloadSize
	}
	return OperationCommandPayload{
		Ref: avdeccid.DescriptorRef{
			Type:  avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2])),
			Index: binary.BigEndian.Uint16(data[2:4]),
		},
		OperationID:   binary.BigEndian.Uint16(data[4:6]),
		OperationType: binary.BigEndian.Uint16(data[6:8]),
		Buffer:        append([]byte(nil), data[8:]...),
	}, nil
}

// OperationStatusPayload is the unsolicited OPERATION_STATUS notification
// an entity streams back while a long-running operation progresses.
type OperationStatusPayload struct {
	Ref              avdeccid.DescriptorRef
	OperationID      uint16
	PercentComplete  uint16 // 0-1000, 1000 == complete; 0xFFFF == failed
}

func BuildOperationStatusPayload(p OperationStatusPayload) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.Ref.Type))
	binary.BigEndian.PutUint16(buf[2:4], p.Ref.Index)
	binary.BigEndian.PutUint16(buf[4:6], p.OperationID)
	binary.BigEndian.PutUint16(buf[6:8], p.PercentComplete)
	return buf
}

func ParseOperationStatusPayload(data []byte) (OperationStatusPayload, error) {
	if len(data) < 8 {
		return OperationStatusPayload{}, ErrIncorrectPayloadSize
	}
	return OperationStatusPayload{
		Ref: avdeccid.DescriptorRef{
			Type:  avdeccid.DescriptorType(binary.BigEndian.Uint16(data[0:2])),
			Index: binary.BigEndian.Uint16(data[2:4]),
		},
		OperationID:     binary.BigEndian.Uint16(data[4:6]),
		PercentComplete: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

// MemoryObjectLengthPayload is shared by SET/GET_MEMORY_OBJECT_LENGTH.
type MemoryObjectLengthPayload struct {
	ConfigurationIndex uint16
	MemoryObjectIndex  uint16
	Length             uint64
}

func BuildMemoryObjectLengthPayload(p MemoryObjectLengthPayload) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint16(buf[0:2], p.ConfigurationIndex)
	binary.BigEndian.PutUint16(buf[2:4], p.MemoryObjectIndex)
	binary.BigEndian.PutUint64(buf[8:16], p.Length)
	return buf
}

func ParseMemoryObjectLengthPayload(data []byte) (MemoryObjectLengthPayload, error) {
	if len(data) < 16 {
		return MemoryObjectLengthPayload{}, ErrIncorrectPayloadSize
	}
	return MemoryObjectLengthPayload{
		ConfigurationIndex: binary.BigEndian.Uint16(data[0:2]),
		MemoryObjectIndex:  binary.BigEndian.Uint16(data[2:4]),
		Length:             binary.BigEndian.Uint64(data[8:16]),
	}, nil
}
