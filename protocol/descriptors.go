package protocol

import (
	"encoding/binary"

	"github.com/gopatchy/avdecc/avdeccid"
)

// The full entity model (every descriptor's field layout) is an external
// collaborator per spec.md §1 — "pure data, consumed and produced but not
// defined here". This file decodes only the handful of descriptor bodies
// the controller facade (package controller) exposes typed accessors for;
// every other descriptor type round-trips through ReadDescriptorResponsePayload's
// opaque Body field untouched.

// EntityDescriptor is the top-level ENTITY descriptor (Clause 7.2.1).
type EntityDescriptor struct {
	EntityID              avdeccid.UniqueID
	EntityModelID         avdeccid.UniqueID
	EntityCapabilities    EntityCapabilities
	TalkerStreamSources   uint16
	TalkerCapabilities    TalkerCapabilities
	ListenerStreamSinks   uint16
	ListenerCapabilities  ListenerCapabilities
	ControllerCapabilities ControllerCapabilities
	AvailableIndex        uint32
	AssociationID         avdeccid.UniqueID
	EntityName            FixedString
	ConfigurationsCount   uint16
	CurrentConfiguration  uint16
}

// entityDescriptorLen covers the fixed-size prefix through current_configuration
// (Clause 7.2.1); string-reference indexes between the name and the counts
// are skipped rather than named individually.
const entityDescriptorLen = 128

func BuildEntityDescriptor(d EntityDescriptor) []byte {
	buf := make([]byte, entityDescriptorLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(d.EntityID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(d.EntityModelID))
	binary.BigEndian.PutUint32(buf[16:20], uint32(d.EntityCapabilities))
	binary.BigEndian.PutUint16(buf[20:22], d.TalkerStreamSources)
	binary.BigEndian.PutUint16(buf[22:24], uint16(d.TalkerCapabilities))
	binary.BigEndian.PutUint16(buf[24:26], d.ListenerStreamSinks)
	binary.BigEndian.PutUint16(buf[26:28], uint16(d.ListenerCapabilities))
	binary.BigEndian.PutUint32(buf[28:32], uint32(d.ControllerCapabilities))
	binary.BigEndian.PutUint32(buf[32:36], d.AvailableIndex)
	binary.BigEndian.PutUint64(buf[36:44], uint64(d.AssociationID))
	copy(buf[44:108], d.EntityName[:])
	binary.BigEndian.PutUint16(buf[124:126], d.ConfigurationsCount)
	binary.BigEndian.PutUint16(buf[126:128], d.CurrentConfiguration)
	return buf
}

func ParseEntityDescriptor(data []byte) (EntityDescriptor, error) {
	if len(data) < entityDescriptorLen {
		return EntityDescriptor{}, ErrIncorrectPayloadSize
	}
	var d EntityDescriptor
	d.EntityID = avdeccid.UniqueID(binary.BigEndian.Uint64(data[0:8]))
	d.EntityModelID = avdeccid.UniqueID(binary.BigEndian.Uint64(data[8:16]))
	d.EntityCapabilities = EntityCapabilities(binary.BigEndian.Uint32(data[16:20]))
	d.TalkerStreamSources = binary.BigEndian.Uint16(data[20:22])
	d.TalkerCapabilities = TalkerCapabilities(binary.BigEndian.Uint16(data[22:24]))
	d.ListenerStreamSinks = binary.BigEndian.Uint16(data[24:26])
	d.ListenerCapabilities = ListenerCapabilities(binary.BigEndian.Uint16(data[26:28]))
	d.ControllerCapabilities = ControllerCapabilities(binary.BigEndian.Uint32(data[28:32]))
	d.AvailableIndex = binary.BigEndian.Uint32(data[32:36])
	d.AssociationID = avdeccid.UniqueID(binary.BigEndian.Uint64(data[36:44]))
	copy(d.EntityName[:], data[44:108])
	// data[108:124) vendor/model/firmware/group/serial string indexes, skipped
	d.ConfigurationsCount = binary.BigEndian.Uint16(data[124:126])
	d.CurrentConfiguration = binary.BigEndian.Uint16(data[126:128])
	return d, nil
}

// ConfigurationDescriptor is the CONFIGURATION descriptor (Clause 7.2.2):
// a name plus counts of each descriptor type it contains.
type ConfigurationDescriptor struct {
	ObjectName      FixedString
	LocalizedDescription uint16
	DescriptorCounts map[avdeccid.DescriptorType]uint16
}

func BuildConfigurationDescriptor(d ConfigurationDescriptor) []byte {
	buf := make([]byte, 70+4*len(d.DescriptorCounts))
	copy(buf[0:64], d.ObjectName[:])
	binary.BigEndian.PutUint16(buf[64:66], d.LocalizedDescription)
	binary.BigEndian.PutUint16(buf[68:70], uint16(len(d.DescriptorCounts)))
	off := 70
	for dt, count := range d.DescriptorCounts {
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(dt))
		binary.BigEndian.PutUint16(buf[off+2:off+4], count)
		off += 4
	}
	return buf
}

func ParseConfigurationDescriptor(data []byte) (ConfigurationDescriptor, error) {
	if len(data) < 70 {
		return ConfigurationDescriptor{}, ErrIncorrectPayloadSize
	}
	var d ConfigurationDescriptor
	copy(d.ObjectName[:], data[0:64])
	d.LocalizedDescription = binary.BigEndian.Uint16(data[64:66])
	descriptorCountsCount := binary.BigEndian.Uint16(data[68:70])
	d.DescriptorCounts = make(map[avdeccid.DescriptorType]uint16, descriptorCountsCount)
	off := 70
	for i := 0; i < int(descriptorCountsCount); i++ {
		if len(data) < off+4 {
			return ConfigurationDescriptor{}, ErrIncorrectPayloadSize
		}
		dt := avdeccid.DescriptorType(binary.BigEndian.Uint16(data[off : off+2]))
		count := binary.BigEndian.Uint16(data[off+2 : off+4])
		d.DescriptorCounts[dt] = count
		off += 4
	}
	return d, nil
}

// StreamDescriptor is the shared body layout of STREAM_INPUT and
// STREAM_OUTPUT descriptors (Clause 7.2.6).
type StreamDescriptor struct {
	ObjectName        FixedString
	LocalizedDescription uint16
	ClockDomainIndex  uint16
	StreamFlags       uint16
	CurrentFormat     StreamFormat
	FormatsCount      uint16
	CurrentFormats    []StreamFormat
}

func BuildStreamDescriptor(d StreamDescriptor) []byte {
	buf := make([]byte, 80+8*len(d.CurrentFormats))
	copy(buf[0:64], d.ObjectName[:])
	binary.BigEndian.PutUint16(buf[64:66], d.LocalizedDescription)
	binary.BigEndian.PutUint16(buf[66:68], d.ClockDomainIndex)
	binary.BigEndian.PutUint16(buf[68:70], d.StreamFlags)
	binary.BigEndian.PutUint64(buf[70:78], uint64(d.CurrentFormat))
	binary.BigEndian.PutUint16(buf[78:80], uint16(len(d.CurrentFormats)))
	for i, f := range d.CurrentFormats {
		binary.BigEndian.PutUint64(buf[80+i*8:88+i*8], uint64(f))
	}
	return buf
}

func ParseStreamDescriptor(data []byte) (StreamDescriptor, error) {
	const fixedLen = 64 + 2 + 2 + 2 + 8 + 2
	if len(data) < fixedLen {
		return StreamDescriptor{}, ErrIncorrectPayloadSize
	}
	var d StreamDescriptor
	copy(d.ObjectName[:], data[0:64])
	d.LocalizedDescription = binary.BigEndian.Uint16(data[64:66])
	d.ClockDomainIndex = binary.BigEndian.Uint16(data[66:68])
	d.StreamFlags = binary.BigEndian.Uint16(data[68:70])
	d.CurrentFormat = StreamFormat(binary.BigEndian.Uint64(data[70:78]))
	d.FormatsCount = binary.BigEndian.Uint16(data[78:80])
	if len(data) >= 80+int(d.FormatsCount)*8 {
		d.CurrentFormats = make([]StreamFormat, d.FormatsCount)
		for i := range d.CurrentFormats {
			off := 80 + i*8
			d.CurrentFormats[i] = StreamFormat(binary.BigEndian.Uint64(data[off : off+8]))
		}
	}
	return d, nil
}

// AudioUnitDescriptor is the AUDIO_UNIT descriptor (Clause 7.2.4) header;
// its variable-length sampling-rate table is left undecoded here.
type AudioUnitDescriptor struct {
	ObjectName        FixedString
	ClockDomainIndex  uint16
	NumberOfStreamInputPorts  uint16
	BaseStreamInputPort       uint16
	NumberOfStreamOutputPorts uint16
	BaseStreamOutputPort      uint16
	CurrentSamplingRate       uint32
}

func BuildAudioUnitDescriptor(d AudioUnitDescriptor) []byte {
	const fixedLen = 64 + 2 + 2*8 + 4
	buf := make([]byte, fixedLen)
	copy(buf[0:64], d.ObjectName[:])
	binary.BigEndian.PutUint16(buf[64:66], d.ClockDomainIndex)
	binary.BigEndian.PutUint16(buf[66:68], d.NumberOfStreamInputPorts)
	binary.BigEndian.PutUint16(buf[68:70], d.BaseStreamInputPort)
	binary.BigEndian.PutUint16(buf[70:72], d.NumberOfStreamOutputPorts)
	binary.BigEndian.PutUint16(buf[72:74], d.BaseStreamOutputPort)
	binary.BigEndian.PutUint32(buf[fixedLen-4:], d.CurrentSamplingRate)
	return buf
}

func ParseAudioUnitDescriptor(data []byte) (AudioUnitDescriptor, error) {
	const fixedLen = 64 + 2 + 2*8 + 4
	if len(data) < fixedLen {
		return AudioUnitDescriptor{}, ErrIncorrectPayloadSize
	}
	var d AudioUnitDescriptor
	copy(d.ObjectName[:], data[0:64])
	d.ClockDomainIndex = binary.BigEndian.Uint16(data[64:66])
	d.NumberOfStreamInputPorts = binary.BigEndian.Uint16(data[66:68])
	d.BaseStreamInputPort = binary.BigEndian.Uint16(data[68:70])
	d.NumberOfStreamOutputPorts = binary.BigEndian.Uint16(data[70:72])
	d.BaseStreamOutputPort = binary.BigEndian.Uint16(data[72:74])
	d.CurrentSamplingRate = binary.BigEndian.Uint32(data[len(data)-4:])
	return d, nil
}
