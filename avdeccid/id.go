// Package avdeccid defines the identifier types shared across the AVDECC
// controller core: the 64-bit entity id, descriptor references, and stream
// endpoints (§3 of the design).
package avdeccid

import "fmt"

// UniqueID is the 64-bit opaque identifier used for both entity ids and
// entity model ids on the wire.
type UniqueID uint64

// Undefined is the reserved "null" sentinel value (all bits set), used as
// the owner id in an unacquired ACQUIRE_ENTITY response and as the "no
// value" placeholder in AVDECC wire fields generally.
const Undefined UniqueID = 0xFFFFFFFFFFFFFFFF

// IsValid reports whether id is neither zero nor the Undefined sentinel.
func (id UniqueID) IsValid() bool {
	return id != 0 && id != Undefined
}

func (id UniqueID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}

// DescriptorType identifies a node type in an entity's configuration tree.
type DescriptorType uint16

// Descriptor types from IEEE 1722.1 Clause 7.2.
const (
	DescriptorEntity             DescriptorType = 0x0000
	DescriptorConfiguration      DescriptorType = 0x0001
	DescriptorAudioUnit          DescriptorType = 0x0002
	DescriptorVideoUnit          DescriptorType = 0x0003
	DescriptorSensorUnit         DescriptorType = 0x0004
	DescriptorStreamInput        DescriptorType = 0x0005
	DescriptorStreamOutput       DescriptorType = 0x0006
	DescriptorJackInput          DescriptorType = 0x0007
	DescriptorJackOutput         DescriptorType = 0x0008
	DescriptorAvbInterface       DescriptorType = 0x0009
	DescriptorClockSource        DescriptorType = 0x000A
	DescriptorMemoryObject       DescriptorType = 0x000B
	DescriptorLocale             DescriptorType = 0x000C
	DescriptorStrings            DescriptorType = 0x000D
	DescriptorStreamPortInput    DescriptorType = 0x000E
	DescriptorStreamPortOutput   DescriptorType = 0x000F
	DescriptorExternalPortInput  DescriptorType = 0x0010
	DescriptorExternalPortOutput DescriptorType = 0x0011
	DescriptorInternalPortInput  DescriptorType = 0x0012
	DescriptorInternalPortOutput DescriptorType = 0x0013
	DescriptorAudioCluster       DescriptorType = 0x0014
	DescriptorVideoCluster       DescriptorType = 0x0015
	DescriptorSensorCluster      DescriptorType = 0x0016
	DescriptorAudioMap           DescriptorType = 0x0017
	DescriptorVideoMap           DescriptorType = 0x0018
	DescriptorSensorMap          DescriptorType = 0x0019
	DescriptorControl            DescriptorType = 0x001A
	DescriptorSignalSelector     DescriptorType = 0x001B
	DescriptorMixer              DescriptorType = 0x001C
	DescriptorMatrix             DescriptorType = 0x001D
	DescriptorMatrixSignal       DescriptorType = 0x001E
	DescriptorSignalSplitter     DescriptorType = 0x001F
	DescriptorSignalCombiner     DescriptorType = 0x0020
	DescriptorSignalDemultiplexer DescriptorType = 0x0021
	DescriptorSignalMultiplexer  DescriptorType = 0x0022
	DescriptorSignalTranscoder   DescriptorType = 0x0023
	DescriptorClockDomain        DescriptorType = 0x0024
	DescriptorControlBlock       DescriptorType = 0x0025
	DescriptorInvalid            DescriptorType = 0xFFFF
)

func (t DescriptorType) String() string {
	if name, ok := descriptorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DescriptorType(0x%04X)", uint16(t))
}

var descriptorTypeNames = map[DescriptorType]string{
	DescriptorEntity:              "ENTITY",
	DescriptorConfiguration:       "CONFIGURATION",
	DescriptorAudioUnit:           "AUDIO_UNIT",
	DescriptorVideoUnit:           "VIDEO_UNIT",
	DescriptorSensorUnit:          "SENSOR_UNIT",
	DescriptorStreamInput:         "STREAM_INPUT",
	DescriptorStreamOutput:        "STREAM_OUTPUT",
	DescriptorJackInput:           "JACK_INPUT",
	DescriptorJackOutput:          "JACK_OUTPUT",
	DescriptorAvbInterface:        "AVB_INTERFACE",
	DescriptorClockSource:         "CLOCK_SOURCE",
	DescriptorMemoryObject:        "MEMORY_OBJECT",
	DescriptorLocale:              "LOCALE",
	DescriptorStrings:             "STRINGS",
	DescriptorStreamPortInput:     "STREAM_PORT_INPUT",
	DescriptorStreamPortOutput:    "STREAM_PORT_OUTPUT",
	DescriptorExternalPortInput:   "EXTERNAL_PORT_INPUT",
	DescriptorExternalPortOutput:  "EXTERNAL_PORT_OUTPUT",
	DescriptorInternalPortInput:   "INTERNAL_PORT_INPUT",
	DescriptorInternalPortOutput:  "INTERNAL_PORT_OUTPUT",
	DescriptorAudioCluster:        "AUDIO_CLUSTER",
	DescriptorVideoCluster:        "VIDEO_CLUSTER",
	DescriptorSensorCluster:       "SENSOR_CLUSTER",
	DescriptorAudioMap:            "AUDIO_MAP",
	DescriptorVideoMap:            "VIDEO_MAP",
	DescriptorSensorMap:           "SENSOR_MAP",
	DescriptorControl:             "CONTROL",
	DescriptorSignalSelector:      "SIGNAL_SELECTOR",
	DescriptorMixer:               "MIXER",
	DescriptorMatrix:              "MATRIX",
	DescriptorMatrixSignal:        "MATRIX_SIGNAL",
	DescriptorSignalSplitter:      "SIGNAL_SPLITTER",
	DescriptorSignalCombiner:      "SIGNAL_COMBINER",
	DescriptorSignalDemultiplexer: "SIGNAL_DEMULTIPLEXER",
	DescriptorSignalMultiplexer:   "SIGNAL_MULTIPLEXER",
	DescriptorSignalTranscoder:    "SIGNAL_TRANSCODER",
	DescriptorClockDomain:         "CLOCK_DOMAIN",
	DescriptorControlBlock:        "CONTROL_BLOCK",
	DescriptorInvalid:             "INVALID",
}

// DescriptorRef addresses a node in an entity's configuration tree by
// (configuration index, descriptor type, descriptor index).
type DescriptorRef struct {
	ConfigurationIndex uint16
	Type               DescriptorType
	Index              uint16
}

func (r DescriptorRef) String() string {
	return fmt.Sprintf("cfg=%d %s[%d]", r.ConfigurationIndex, r.Type, r.Index)
}

// StreamID identifies a talker source or listener sink endpoint used by
// ACMP: an entity plus one of its stream indices.
type StreamID struct {
	EntityID    UniqueID
	StreamIndex uint16
}

func (s StreamID) String() string {
	return fmt.Sprintf("%s:%d", s.EntityID, s.StreamIndex)
}
