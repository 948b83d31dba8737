package router

import (
	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// deserializer decodes an AEM response payload into the value delivered as
// AecpResult.Value.
type deserializer func(payload []byte, tolerance protocol.ToleranceFlags) (interface{}, error)

// aemTable is the static (command-type -> deserializer) table §4.6
// describes; it is built once at package init with an entry for every
// command this controller issues, rather than filled lazily at runtime the
// way the source does it. The compiler does not check that every command
// has an entry; a command type with none is reported as ErrInternalError.
var aemTable = map[protocol.AemCommandType]deserializer{
	protocol.AemAcquireEntity: wrap(protocol.ParseAcquireEntityPayload),
	protocol.AemLockEntity:    wrap(protocol.ParseLockEntityPayload),
	protocol.AemReadDescriptor: func(payload []byte, _ protocol.ToleranceFlags) (interface{}, error) {
		return deserializeReadDescriptorResponse(payload)
	},
	protocol.AemSetStreamFormat: streamRefOnly(wrap(protocol.ParseStreamFormatPayload), streamFormatRef),
	protocol.AemGetStreamFormat: streamRefOnly(wrap(protocol.ParseStreamFormatPayload), streamFormatRef),
	protocol.AemSetStreamInfo:   streamRefOnly(wrap(protocol.ParseStreamInfoPayload), streamInfoRef),
	protocol.AemGetStreamInfo:   streamRefOnly(wrap(protocol.ParseStreamInfoPayload), streamInfoRef),
	protocol.AemSetName:         wrap(protocol.ParseNamePayload),
	protocol.AemGetName:         wrap(protocol.ParseNamePayload),
	protocol.AemSetSamplingRate: wrap(protocol.ParseSamplingRatePayload),
	protocol.AemGetSamplingRate: wrap(protocol.ParseSamplingRatePayload),
	protocol.AemSetClockSource:  wrap(protocol.ParseClockSourcePayload),
	protocol.AemGetClockSource:  wrap(protocol.ParseClockSourcePayload),
	protocol.AemSetControl:      wrap(protocol.ParseControlValuePayload),
	protocol.AemGetControl:      wrap(protocol.ParseControlValuePayload),
	protocol.AemStartStreaming:  wrap(protocol.ParseStreamingControlPayload),
	protocol.AemStopStreaming:   wrap(protocol.ParseStreamingControlPayload),
	protocol.AemRegisterUnsolicitedNotification:   wrap(protocol.ParseUnsolicitedNotificationPayload),
	protocol.AemDeregisterUnsolicitedNotification: wrap(protocol.ParseUnsolicitedNotificationPayload),
	protocol.AemIdentifyNotification:              wrap(protocol.ParseIdentifyNotificationPayload),
	protocol.AemGetAvbInfo:                         wrap(protocol.ParseGetAvbInfoResponsePayload),
	protocol.AemGetAsPath:                          wrap(protocol.ParseGetAsPathResponsePayload),
	protocol.AemGetCounters:                        wrap(protocol.ParseGetCountersResponsePayload),
	protocol.AemGetAudioMap: func(payload []byte, tol protocol.ToleranceFlags) (interface{}, error) {
		return protocol.ParseAudioMappingsCommandPayload(payload, tol)
	},
	protocol.AemAddAudioMappings: func(payload []byte, tol protocol.ToleranceFlags) (interface{}, error) {
		return protocol.ParseAudioMappingsCommandPayload(payload, tol)
	},
	protocol.AemRemoveAudioMappings: func(payload []byte, tol protocol.ToleranceFlags) (interface{}, error) {
		return protocol.ParseAudioMappingsCommandPayload(payload, tol)
	},
	protocol.AemStartOperation:   wrap(protocol.ParseOperationCommandPayload),
	protocol.AemAbortOperation:   wrap(protocol.ParseOperationCommandPayload),
	protocol.AemOperationStatus:  wrap(protocol.ParseOperationStatusPayload),
	protocol.AemSetMemoryObjectLength: wrap(protocol.ParseMemoryObjectLengthPayload),
	protocol.AemGetMemoryObjectLength: wrap(protocol.ParseMemoryObjectLengthPayload),
}

// wrap adapts a Parse<X>Payload(data []byte) (X, error) function, ignoring
// tolerance, to the deserializer shape.
func wrap[T any](parse func([]byte) (T, error)) deserializer {
	return func(payload []byte, _ protocol.ToleranceFlags) (interface{}, error) {
		return parse(payload)
	}
}

func streamFormatRef(v interface{}) avdeccid.DescriptorRef {
	return v.(protocol.StreamFormatPayload).Ref
}

func streamInfoRef(v interface{}) avdeccid.DescriptorRef {
	return v.(protocol.StreamInfoPayload).Ref
}

// streamRefOnly rejects a decoded value whose descriptor-type isn't a
// stream input/output, surfacing ErrProtocolError instead (§8's boundary
// behavior: "A SET_STREAM_FORMAT response with descriptor-type=ClockDomain
// surfaces ProtocolError").
func streamRefOnly(inner deserializer, refOf func(interface{}) avdeccid.DescriptorRef) deserializer {
	return func(payload []byte, tolerance protocol.ToleranceFlags) (interface{}, error) {
		v, err := inner(payload, tolerance)
		if err != nil {
			return nil, err
		}
		switch refOf(v).Type {
		case avdeccid.DescriptorStreamInput, avdeccid.DescriptorStreamOutput:
			return v, nil
		default:
			return nil, ErrProtocolError
		}
	}
}

// deserializeReadDescriptorResponse decodes the common (config, type,
// index) prefix then switches on the descriptor type to decode Body into
// its typed descriptor (§4.6's "descriptor-type switching"). Descriptor
// types this controller has no typed accessor for round-trip through the
// returned ReadDescriptorResponsePayload's opaque Body field untouched,
// per protocol.ReadDescriptorResponsePayload's own contract.
func deserializeReadDescriptorResponse(payload []byte) (interface{}, error) {
	resp, err := protocol.ParseReadDescriptorResponsePayload(payload)
	if err != nil {
		return nil, err
	}

	switch resp.Ref.Type {
	case avdeccid.DescriptorEntity:
		return protocol.ParseEntityDescriptor(resp.Body)
	case avdeccid.DescriptorConfiguration:
		return protocol.ParseConfigurationDescriptor(resp.Body)
	case avdeccid.DescriptorStreamInput, avdeccid.DescriptorStreamOutput:
		return protocol.ParseStreamDescriptor(resp.Body)
	case avdeccid.DescriptorAudioUnit:
		return protocol.ParseAudioUnitDescriptor(resp.Body)
	default:
		return resp, nil
	}
}
