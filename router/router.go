package router

import (
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// AecpSender is the subset of transport.ProtocolInterface the router needs
// to answer unhandled inbound commands (currently just CONTROLLER_AVAILABLE).
type AecpSender interface {
	SendAecp(frame []byte) error
	LocalMAC() net.HardwareAddr
}

// Delegate receives unsolicited notifications, fanned out with the target
// entity that sent them. Implementations must not block (§5, "Response
// handlers run on the transport's receive thread").
type Delegate interface {
	OnStreamFormatChanged(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, format protocol.StreamFormat)
	OnStreamInfoChanged(target avdeccid.UniqueID, payload protocol.StreamInfoPayload)

	// Name commands multiplex several logical fields behind name-index.
	// Entity descriptor uses name-index 0 for entity_name and 1 for
	// group_name; every other descriptor type uses name-index 0 for its
	// single object_name. Other combinations are logged and dropped
	// before reaching the delegate.
	OnEntityNameChanged(target avdeccid.UniqueID, name protocol.FixedString)
	OnEntityGroupNameChanged(target avdeccid.UniqueID, name protocol.FixedString)
	OnObjectNameChanged(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, name protocol.FixedString)

	OnSamplingRateChanged(target avdeccid.UniqueID, payload protocol.SamplingRatePayload)
	OnClockSourceChanged(target avdeccid.UniqueID, payload protocol.ClockSourcePayload)
	OnControlValueChanged(target avdeccid.UniqueID, payload protocol.ControlValuePayload)
	OnIdentifyNotification(target avdeccid.UniqueID, payload protocol.IdentifyNotificationPayload)
	OnOperationStatus(target avdeccid.UniqueID, payload protocol.OperationStatusPayload)

	// OnUnsolicitedNotification is the fallback for command types with no
	// dedicated typed method above.
	OnUnsolicitedNotification(target avdeccid.UniqueID, commandType protocol.AemCommandType, value interface{})
}

// Router implements C6: static-table AEM response deserialization, plus a
// stateless CONTROLLER_AVAILABLE responder for unhandled inbound commands.
type Router struct {
	tolerance protocol.ToleranceFlags
	sender    AecpSender
	logger    *zap.Logger

	delegateMu sync.RWMutex
	delegate   Delegate
}

func New(sender AecpSender, tolerance protocol.ToleranceFlags, logger *zap.Logger) *Router {
	return &Router{
		tolerance: tolerance,
		sender:    sender,
		logger:    logger,
	}
}

// SetDelegate swaps the notification delegate under a write lock, per §9's
// "take the transport lock before swapping" rule (here: the router's own
// lock, since the delegate is router-owned state).
func (r *Router) SetDelegate(d Delegate) {
	r.delegateMu.Lock()
	defer r.delegateMu.Unlock()
	r.delegate = d
}

func (r *Router) currentDelegate() Delegate {
	r.delegateMu.RLock()
	defer r.delegateMu.RUnlock()
	return r.delegate
}

// HandleSolicited deserializes payload for cmdType and invokes handler with
// the outcome (§4.6 steps 1-2, 4).
func (r *Router) HandleSolicited(status protocol.AecpStatus, cmdType protocol.AemCommandType, payload []byte, handler AecpHandler) {
	if handler == nil {
		return
	}

	entry, ok := aemTable[cmdType]
	if !ok {
		handler(AecpResult{Status: status, CommandType: cmdType, Err: ErrInternalError})
		return
	}

	value, err := entry(payload, r.tolerance)
	if err != nil {
		if status != protocol.AecpStatusSuccess && r.tolerance.AcceptInvalidNonSuccessResponse {
			handler(AecpResult{Status: status, CommandType: cmdType})
			return
		}
		handler(AecpResult{Status: status, CommandType: cmdType, Err: ErrProtocolError})
		return
	}

	handler(AecpResult{Status: status, CommandType: cmdType, Value: value})
}

// HandleUnsolicited deserializes payload for cmdType and fans it out to the
// delegate, but only if status is SUCCESS (§4.6 step 3: "If status is
// SUCCESS and the message is unsolicited, fan out..."). A non-SUCCESS
// unsolicited message is logged and dropped before it is even decoded, the
// same way a decode failure or unknown command type is. Unknown command
// types or decode failures are logged and dropped, never delivered to a
// per-call handler.
func (r *Router) HandleUnsolicited(target avdeccid.UniqueID, status protocol.AecpStatus, cmdType protocol.AemCommandType, payload []byte) {
	if status != protocol.AecpStatusSuccess {
		if r.logger != nil {
			r.logger.Debug("dropping non-SUCCESS unsolicited response", zap.Uint16("command_type", uint16(cmdType)), zap.Stringer("status", status))
		}
		return
	}

	entry, ok := aemTable[cmdType]
	if !ok {
		if r.logger != nil {
			r.logger.Debug("dropping unsolicited response with no dispatch entry", zap.Uint16("command_type", uint16(cmdType)))
		}
		return
	}

	value, err := entry(payload, r.tolerance)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("dropping malformed unsolicited response", zap.Uint16("command_type", uint16(cmdType)), zap.Error(err))
		}
		return
	}

	delegate := r.currentDelegate()
	if delegate == nil {
		return
	}

	switch v := value.(type) {
	case protocol.StreamFormatPayload:
		delegate.OnStreamFormatChanged(target, v.Ref, v.Format)
	case protocol.StreamInfoPayload:
		delegate.OnStreamInfoChanged(target, v)
	case protocol.NamePayload:
		r.dispatchNameChange(target, v, delegate)
	case protocol.SamplingRatePayload:
		delegate.OnSamplingRateChanged(target, v)
	case protocol.ClockSourcePayload:
		delegate.OnClockSourceChanged(target, v)
	case protocol.ControlValuePayload:
		delegate.OnControlValueChanged(target, v)
	case protocol.IdentifyNotificationPayload:
		delegate.OnIdentifyNotification(target, v)
	case protocol.OperationStatusPayload:
		delegate.OnOperationStatus(target, v)
	default:
		delegate.OnUnsolicitedNotification(target, cmdType, value)
	}
}

// dispatchNameChange multiplexes a name-change notification by
// (descriptor-type, name-index): Entity descriptor carries entity_name at
// index 0 and group_name at index 1; every other descriptor type carries a
// single object_name at index 0. Unknown combinations are logged and
// dropped, never delivered to the delegate.
func (r *Router) dispatchNameChange(target avdeccid.UniqueID, v protocol.NamePayload, delegate Delegate) {
	if v.Ref.Type == avdeccid.DescriptorEntity {
		switch v.NameIndex {
		case 0:
			delegate.OnEntityNameChanged(target, v.Name)
		case 1:
			delegate.OnEntityGroupNameChanged(target, v.Name)
		default:
			if r.logger != nil {
				r.logger.Debug("dropping unsolicited name change with unhandled name-index for Entity descriptor",
					zap.Uint16("name_index", v.NameIndex))
			}
		}
		return
	}

	switch v.NameIndex {
	case 0:
		delegate.OnObjectNameChanged(target, v.Ref, v.Name)
	default:
		if r.logger != nil {
			r.logger.Debug("dropping unsolicited name change with unhandled name-index",
				zap.Uint16("descriptor_type", uint16(v.Ref.Type)),
				zap.Uint16("name_index", v.NameIndex))
		}
	}
}

// OnAecpCommand replies SUCCESS to an inbound CONTROLLER_AVAILABLE and
// claims it; every other inbound command is left for another subscriber
// (§4.6, "Unhandled inbound AECP").
func (r *Router) OnAecpCommand(_ protocol.AecpCommonHeader, frame []byte) bool {
	common, aem, _, err := protocol.ParseAemFrame(frame, r.tolerance)
	if err != nil || aem.CommandType != protocol.AemControllerAvailable {
		return false
	}

	respCommon := protocol.AecpCommonHeader{
		MessageType:        protocol.AecpAemResponse,
		Status:             protocol.AecpStatusSuccess,
		TargetEntityID:     common.TargetEntityID,
		ControllerEntityID: common.ControllerEntityID,
		SequenceID:         common.SequenceID,
	}
	dst := net.HardwareAddr(append([]byte(nil), frame[6:12]...))
	resp, err := protocol.BuildAemFrame(dst, r.sender.LocalMAC(), respCommon, protocol.AemCommandHeader{CommandType: protocol.AemControllerAvailable}, nil, r.tolerance)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("failed to build CONTROLLER_AVAILABLE response", zap.Error(err))
		}
		return true
	}

	if err := r.sender.SendAecp(resp); err != nil && r.logger != nil {
		r.logger.Debug("failed to answer CONTROLLER_AVAILABLE", zap.Error(err))
	}
	return true
}

// The router only claims inbound AECP commands; it registers as a
// transport.Observer directly, so the ADP/response/ACMP/error callbacks
// (owned by package registry and package dispatcher) are no-ops here.
func (r *Router) OnLocalEntityOnline(protocol.Adpdu, net.HardwareAddr)   {}
func (r *Router) OnLocalEntityOffline(avdeccid.UniqueID)                 {}
func (r *Router) OnLocalEntityUpdated(protocol.Adpdu, net.HardwareAddr)  {}
func (r *Router) OnRemoteEntityOnline(protocol.Adpdu, net.HardwareAddr)  {}
func (r *Router) OnRemoteEntityOffline(avdeccid.UniqueID)                {}
func (r *Router) OnRemoteEntityUpdated(protocol.Adpdu, net.HardwareAddr) {}
func (r *Router) OnAecpResponse(protocol.AecpCommonHeader, []byte)       {}
func (r *Router) OnAcmpMessage(protocol.Acmpdu)                          {}
func (r *Router) OnAcmpSniffedCommand(protocol.Acmpdu)                   {}
func (r *Router) OnAcmpSniffedResponse(protocol.Acmpdu)                  {}
func (r *Router) OnTransportError(error)                                 {}
