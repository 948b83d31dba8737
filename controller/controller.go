// Package controller implements the controller facade (C7): typed request
// methods that serialize arguments, hand the frame to the dispatcher, and
// wrap a caller's strongly-typed callback around the dispatcher's generic
// result (§4.7).
package controller

import (
	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/dispatcher"
	"github.com/gopatchy/avdecc/protocol"
	"github.com/gopatchy/avdecc/registry"
	"github.com/gopatchy/avdecc/router"
)

// Dispatch is the subset of dispatcher.Dispatcher the facade drives.
type Dispatch interface {
	SendAem(target avdeccid.UniqueID, cmdType protocol.AemCommandType, payload []byte, handler router.AecpHandler)
	SendAa(target avdeccid.UniqueID, payload protocol.AaPayload, handler router.AecpHandler)
	SendGetMilanInfo(target avdeccid.UniqueID, handler router.AecpHandler)
	SendAcmp(target avdeccid.UniqueID, pdu protocol.Acmpdu, handler router.AcmpHandler)
	SetSniffDelegate(delegate dispatcher.SniffDelegate)
}

// Controller is the entry point application code drives: entity discovery
// via its embedded *registry.Registry, and typed request/response methods
// for AEM, AA, MVU, and ACMP.
type Controller struct {
	dispatch Dispatch
	router   *router.Router
	registry *registry.Registry
}

func New(dispatch Dispatch, rtr *router.Router, reg *registry.Registry) *Controller {
	return &Controller{dispatch: dispatch, router: rtr, registry: reg}
}

// Entities returns every currently known entity.
func (c *Controller) Entities() []registry.Record {
	return c.registry.Snapshot()
}

// Entity looks up a single known entity.
func (c *Controller) Entity(eid avdeccid.UniqueID) (registry.Record, bool) {
	return c.registry.Lookup(eid)
}

// SetDelegate installs the unsolicited-notification delegate (§4.6/§4.7).
func (c *Controller) SetDelegate(d router.Delegate) {
	c.router.SetDelegate(d)
}

// SetAcmpSniffDelegate installs the delegate notified of ACMP traffic
// observed on the multicast channel but not addressed to this controller
// (§4.2's sniffed-traffic callbacks).
func (c *Controller) SetAcmpSniffDelegate(d dispatcher.SniffDelegate) {
	c.dispatch.SetSniffDelegate(d)
}

func valueOrErr[T any](res router.AecpResult, handler func(T, protocol.AecpStatus, error)) {
	if res.Err != nil {
		var zero T
		handler(zero, res.Status, res.Err)
		return
	}
	v, ok := res.Value.(T)
	if !ok {
		var zero T
		handler(zero, res.Status, router.ErrProtocolError)
		return
	}
	handler(v, res.Status, nil)
}

func (c *Controller) AcquireEntity(target avdeccid.UniqueID, flags protocol.AcquireEntityFlags, ref avdeccid.DescriptorRef, handler func(protocol.AcquireEntityPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildAcquireEntityPayload(protocol.AcquireEntityPayload{Flags: flags, Ref: ref})
	c.dispatch.SendAem(target, protocol.AemAcquireEntity, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) LockEntity(target avdeccid.UniqueID, flags protocol.LockEntityFlags, ref avdeccid.DescriptorRef, handler func(protocol.LockEntityPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildLockEntityPayload(protocol.LockEntityPayload{Flags: flags, Ref: ref})
	c.dispatch.SendAem(target, protocol.AemLockEntity, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

// ReadDescriptor fetches a single descriptor by (configuration, type,
// index). The decoded result is one of the descriptor types in package
// protocol, chosen by the target's advertised descriptor type; descriptor
// types with no typed accessor come back as the raw
// protocol.ReadDescriptorResponsePayload with its Body left undecoded.
func (c *Controller) ReadDescriptor(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(descriptor interface{}, status protocol.AecpStatus, err error)) {
	payload := protocol.BuildReadDescriptorCommandPayload(protocol.ReadDescriptorCommandPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemReadDescriptor, payload, func(res router.AecpResult) {
		handler(res.Value, res.Status, res.Err)
	})
}

func (c *Controller) SetStreamFormat(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, format protocol.StreamFormat, handler func(protocol.StreamFormatPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamFormatPayload(protocol.StreamFormatPayload{Ref: ref, Format: format})
	c.dispatch.SendAem(target, protocol.AemSetStreamFormat, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetStreamFormat(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.StreamFormatPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamFormatPayload(protocol.StreamFormatPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetStreamFormat, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetStreamInfo(target avdeccid.UniqueID, info protocol.StreamInfoPayload, handler func(protocol.StreamInfoPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamInfoPayload(info)
	c.dispatch.SendAem(target, protocol.AemSetStreamInfo, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetStreamInfo(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.StreamInfoPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamInfoPayload(protocol.StreamInfoPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetStreamInfo, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetName(target avdeccid.UniqueID, name protocol.NamePayload, handler func(protocol.NamePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildNamePayload(name)
	c.dispatch.SendAem(target, protocol.AemSetName, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetName(target avdeccid.UniqueID, name protocol.NamePayload, handler func(protocol.NamePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildNamePayload(name)
	c.dispatch.SendAem(target, protocol.AemGetName, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetSamplingRate(target avdeccid.UniqueID, p protocol.SamplingRatePayload, handler func(protocol.SamplingRatePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildSamplingRatePayload(p)
	c.dispatch.SendAem(target, protocol.AemSetSamplingRate, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetSamplingRate(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.SamplingRatePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildSamplingRatePayload(protocol.SamplingRatePayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetSamplingRate, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetClockSource(target avdeccid.UniqueID, p protocol.ClockSourcePayload, handler func(protocol.ClockSourcePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildClockSourcePayload(p)
	c.dispatch.SendAem(target, protocol.AemSetClockSource, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetClockSource(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.ClockSourcePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildClockSourcePayload(protocol.ClockSourcePayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetClockSource, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetControl(target avdeccid.UniqueID, p protocol.ControlValuePayload, handler func(protocol.ControlValuePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildControlValuePayload(p)
	c.dispatch.SendAem(target, protocol.AemSetControl, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetControl(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.ControlValuePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildControlValuePayload(protocol.ControlValuePayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetControl, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) StartStreaming(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.StreamingControlPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamingControlPayload(protocol.StreamingControlPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemStartStreaming, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) StopStreaming(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.StreamingControlPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildStreamingControlPayload(protocol.StreamingControlPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemStopStreaming, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) RegisterUnsolicitedNotification(target avdeccid.UniqueID, handler func(protocol.UnsolicitedNotificationPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildUnsolicitedNotificationPayload(protocol.UnsolicitedNotificationPayload{})
	c.dispatch.SendAem(target, protocol.AemRegisterUnsolicitedNotification, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) DeregisterUnsolicitedNotification(target avdeccid.UniqueID, handler func(protocol.UnsolicitedNotificationPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildUnsolicitedNotificationPayload(protocol.UnsolicitedNotificationPayload{})
	c.dispatch.SendAem(target, protocol.AemDeregisterUnsolicitedNotification, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetAvbInfo(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.GetAvbInfoResponsePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildGetAvbInfoCommandPayload(protocol.GetAvbInfoCommandPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetAvbInfo, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetAsPath(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.GetAsPathResponsePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildGetAsPathCommandPayload(protocol.GetAsPathCommandPayload{AvbInterfaceIndex: ref.Index})
	c.dispatch.SendAem(target, protocol.AemGetAsPath, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetCounters(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.GetCountersResponsePayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildGetCountersCommandPayload(protocol.GetCountersCommandPayload{Ref: ref})
	c.dispatch.SendAem(target, protocol.AemGetCounters, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetAudioMap(target avdeccid.UniqueID, p protocol.AudioMappingsCommandPayload, handler func(protocol.AudioMappingsCommandPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildAudioMappingsCommandPayload(p)
	c.dispatch.SendAem(target, protocol.AemGetAudioMap, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) AddAudioMappings(target avdeccid.UniqueID, p protocol.AudioMappingsCommandPayload, handler func(protocol.AudioMappingsCommandPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildAudioMappingsCommandPayload(p)
	c.dispatch.SendAem(target, protocol.AemAddAudioMappings, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) RemoveAudioMappings(target avdeccid.UniqueID, p protocol.AudioMappingsCommandPayload, handler func(protocol.AudioMappingsCommandPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildAudioMappingsCommandPayload(p)
	c.dispatch.SendAem(target, protocol.AemRemoveAudioMappings, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) StartOperation(target avdeccid.UniqueID, p protocol.OperationCommandPayload, handler func(protocol.OperationCommandPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildOperationCommandPayload(p)
	c.dispatch.SendAem(target, protocol.AemStartOperation, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) AbortOperation(target avdeccid.UniqueID, p protocol.OperationCommandPayload, handler func(protocol.OperationCommandPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildOperationCommandPayload(p)
	c.dispatch.SendAem(target, protocol.AemAbortOperation, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) SetMemoryObjectLength(target avdeccid.UniqueID, p protocol.MemoryObjectLengthPayload, handler func(protocol.MemoryObjectLengthPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildMemoryObjectLengthPayload(p)
	c.dispatch.SendAem(target, protocol.AemSetMemoryObjectLength, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

func (c *Controller) GetMemoryObjectLength(target avdeccid.UniqueID, ref avdeccid.DescriptorRef, handler func(protocol.MemoryObjectLengthPayload, protocol.AecpStatus, error)) {
	payload := protocol.BuildMemoryObjectLengthPayload(protocol.MemoryObjectLengthPayload{ConfigurationIndex: ref.ConfigurationIndex, MemoryObjectIndex: ref.Index})
	c.dispatch.SendAem(target, protocol.AemGetMemoryObjectLength, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

// SendAddressAccess issues a raw AA TLV list; AA has no command-type space
// to give this a typed name (§4.5).
func (c *Controller) SendAddressAccess(target avdeccid.UniqueID, payload protocol.AaPayload, handler func(protocol.AaPayload, protocol.AecpStatus, error)) {
	c.dispatch.SendAa(target, payload, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

// GetMilanInfo issues the MVU MILAN_INFO command.
func (c *Controller) GetMilanInfo(target avdeccid.UniqueID, handler func(protocol.MilanInfo, protocol.AecpStatus, error)) {
	c.dispatch.SendGetMilanInfo(target, func(res router.AecpResult) {
		valueOrErr(res, handler)
	})
}

// ConnectStream issues CONNECT_RX_COMMAND to listener (the listener drives
// the connection, pulling the stream from talker; §4.5's ACMP flow).
func (c *Controller) ConnectStream(talker, listener avdeccid.UniqueID, talkerUnique, listenerUnique uint16, handler func(router.AcmpResult)) {
	c.dispatch.SendAcmp(listener, protocol.Acmpdu{
		MessageType:      protocol.AcmpConnectRxCommand,
		TalkerEntityID:   talker,
		TalkerUniqueID:   talkerUnique,
		ListenerEntityID: listener,
		ListenerUniqueID: listenerUnique,
	}, handler)
}

func (c *Controller) DisconnectStream(talker, listener avdeccid.UniqueID, talkerUnique, listenerUnique uint16, handler func(router.AcmpResult)) {
	c.dispatch.SendAcmp(listener, protocol.Acmpdu{
		MessageType:      protocol.AcmpDisconnectRxCommand,
		TalkerEntityID:   talker,
		TalkerUniqueID:   talkerUnique,
		ListenerEntityID: listener,
		ListenerUniqueID: listenerUnique,
	}, handler)
}

func (c *Controller) GetTxState(talker avdeccid.UniqueID, talkerUnique uint16, handler func(router.AcmpResult)) {
	c.dispatch.SendAcmp(talker, protocol.Acmpdu{
		MessageType:    protocol.AcmpGetTxStateCommand,
		TalkerEntityID: talker,
		TalkerUniqueID: talkerUnique,
	}, handler)
}

func (c *Controller) GetRxState(listener avdeccid.UniqueID, listenerUnique uint16, handler func(router.AcmpResult)) {
	c.dispatch.SendAcmp(listener, protocol.Acmpdu{
		MessageType:      protocol.AcmpGetRxStateCommand,
		ListenerEntityID: listener,
		ListenerUniqueID: listenerUnique,
	}, handler)
}

func (c *Controller) GetTxConnection(talker avdeccid.UniqueID, talkerUnique uint16, connectionCount uint16, handler func(router.AcmpResult)) {
	c.dispatch.SendAcmp(talker, protocol.Acmpdu{
		MessageType:     protocol.AcmpGetTxConnectionCommand,
		TalkerEntityID:  talker,
		TalkerUniqueID:  talkerUnique,
		ConnectionCount: connectionCount,
	}, handler)
}
