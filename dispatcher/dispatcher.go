// Package dispatcher implements the command dispatcher (C5): turning a
// typed request into a serialized command, correlating its response by
// sequence id, and driving timeout/retry.
package dispatcher

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
	"github.com/gopatchy/avdecc/registry"
	"github.com/gopatchy/avdecc/router"
)

const (
	defaultAemTimeout    = 250 * time.Millisecond
	defaultAemRetries    = 2
	defaultAcmpTimeout   = 2 * time.Second
	defaultRateLimit     = 20 // commands/sec per target
	defaultRateBurst     = 5
)

// Sender is the subset of transport.ProtocolInterface the dispatcher needs
// to put frames on the wire.
type Sender interface {
	SendAecp(frame []byte) error
	SendAcmp(pdu protocol.Acmpdu) error
	LocalMAC() net.HardwareAddr
}

// EntityResolver looks up a target entity's last-known advertisement, used
// for the "resolve target" step (§4.5 step 1) and to find a destination MAC
// for unicast AECP frames.
type EntityResolver interface {
	Lookup(eid avdeccid.UniqueID) (registry.Record, bool)
}

// SniffDelegate receives ACMP traffic observed on the multicast channel but
// not addressed to this controller (§4.2's "on_acmp_sniffed_{command,
// response}"). Implementations must not block.
type SniffDelegate interface {
	OnAcmpSniffedCommand(pdu protocol.Acmpdu)
	OnAcmpSniffedResponse(pdu protocol.Acmpdu)
}

type family uint8

const (
	familyAEM family = iota
	familyAA
	familyMVU
	familyACMP
)

type aecpPendingKey struct {
	family family
	target avdeccid.UniqueID
	seq    uint16
}

type aecpPending struct {
	cmdType     protocol.AemCommandType // meaningful only for familyAEM
	handler     router.AecpHandler
	frame       []byte
	retriesLeft int
	timer       *time.Timer
	settled     bool
}

type acmpPending struct {
	handler     router.AcmpHandler
	pdu         protocol.Acmpdu
	timer       *time.Timer
	settled     bool
}

// Dispatcher is a transport.Observer for AECP responses and ACMP traffic;
// register it alongside package registry and package router.
type Dispatcher struct {
	sender    Sender
	router    *router.Router
	resolver  EntityResolver
	localEID  avdeccid.UniqueID
	tolerance protocol.ToleranceFlags
	logger    *zap.Logger

	seq atomic.Uint32

	mu          sync.Mutex
	aecpPending map[aecpPendingKey]*aecpPending
	acmpPending map[uint16]*acmpPending

	limiterMu sync.Mutex
	limiters  map[avdeccid.UniqueID]*rate.Limiter

	aemTimeout  time.Duration
	aemRetries  int
	acmpTimeout time.Duration

	sniffMu sync.RWMutex
	sniff   SniffDelegate
}

func New(sender Sender, rtr *router.Router, resolver EntityResolver, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		router:      rtr,
		resolver:    resolver,
		localEID:    localEID,
		tolerance:   tolerance,
		logger:      logger,
		aecpPending: make(map[aecpPendingKey]*aecpPending),
		acmpPending: make(map[uint16]*acmpPending),
		limiters:    make(map[avdeccid.UniqueID]*rate.Limiter),
		aemTimeout:  defaultAemTimeout,
		aemRetries:  defaultAemRetries,
		acmpTimeout: defaultAcmpTimeout,
	}
}

// SetTimings overrides the default AEM timeout/retry count and ACMP
// timeout. Zero values leave the corresponding default in place.
func (d *Dispatcher) SetTimings(aemTimeout time.Duration, aemRetries int, acmpTimeout time.Duration) {
	if aemTimeout > 0 {
		d.aemTimeout = aemTimeout
	}
	if aemRetries > 0 {
		d.aemRetries = aemRetries
	}
	if acmpTimeout > 0 {
		d.acmpTimeout = acmpTimeout
	}
}

// SetSniffDelegate installs the delegate notified of ACMP traffic not
// addressed to this controller. Pass nil to stop receiving it.
func (d *Dispatcher) SetSniffDelegate(delegate SniffDelegate) {
	d.sniffMu.Lock()
	defer d.sniffMu.Unlock()
	d.sniff = delegate
}

func (d *Dispatcher) currentSniffDelegate() SniffDelegate {
	d.sniffMu.RLock()
	defer d.sniffMu.RUnlock()
	return d.sniff
}

func (d *Dispatcher) nextSequenceID() uint16 {
	return uint16(d.seq.Add(1))
}

func (d *Dispatcher) limiterFor(target avdeccid.UniqueID) *rate.Limiter {
	d.limiterMu.Lock()
	defer d.limiterMu.Unlock()
	l, ok := d.limiters[target]
	if !ok {
		l = rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst)
		d.limiters[target] = l
	}
	return l
}

func (d *Dispatcher) resolveMAC(target avdeccid.UniqueID) (net.HardwareAddr, bool) {
	rec, ok := d.resolver.Lookup(target)
	if !ok {
		return nil, false
	}
	for _, iface := range rec.Interfaces {
		return iface.MAC, true
	}
	return nil, false
}

// SendAem issues an AEM command and delivers its outcome to handler exactly
// once (§4.5, §8 invariant 1).
func (d *Dispatcher) SendAem(target avdeccid.UniqueID, cmdType protocol.AemCommandType, payload []byte, handler router.AecpHandler) {
	dstMAC, ok := d.resolveMAC(target)
	if !ok {
		handler(router.AecpResult{CommandType: cmdType, Err: router.ErrUnknownEntity})
		return
	}

	_ = d.limiterFor(target).Wait(context.Background())

	seq := d.nextSequenceID()
	common := protocol.AecpCommonHeader{
		MessageType:        protocol.AecpAemCommand,
		TargetEntityID:     target,
		ControllerEntityID: d.localEID,
		SequenceID:         seq,
	}
	frame, err := protocol.BuildAemFrame(dstMAC, d.sender.LocalMAC(), common, protocol.AemCommandHeader{CommandType: cmdType}, payload, d.tolerance)
	if err != nil {
		handler(router.AecpResult{CommandType: cmdType, Err: err})
		return
	}

	key := aecpPendingKey{family: familyAEM, target: target, seq: seq}
	entry := &aecpPending{
		cmdType:     cmdType,
		handler:     handler,
		frame:       frame,
		retriesLeft: d.aemRetries,
	}

	d.mu.Lock()
	d.aecpPending[key] = entry
	d.mu.Unlock()

	entry.timer = time.AfterFunc(d.aemTimeout, func() { d.onAecpTimeout(key) })

	if err := d.sender.SendAecp(frame); err != nil {
		d.finishAecp(key, router.AecpResult{CommandType: cmdType, Err: err})
	}
}

func (d *Dispatcher) onAecpTimeout(key aecpPendingKey) {
	d.mu.Lock()
	entry, ok := d.aecpPending[key]
	if !ok || entry.settled {
		d.mu.Unlock()
		return
	}
	if entry.retriesLeft > 0 {
		entry.retriesLeft--
		frame := entry.frame
		d.mu.Unlock()

		if err := d.sender.SendAecp(frame); err != nil {
			d.finishAecp(key, router.AecpResult{CommandType: entry.cmdType, Err: err})
			return
		}
		entry.timer.Reset(d.aemTimeout)
		return
	}
	entry.settled = true
	delete(d.aecpPending, key)
	d.mu.Unlock()

	entry.handler(router.AecpResult{CommandType: entry.cmdType, Err: router.ErrTimeout})
}

// finishAecp delivers result and removes the pending entry, guarding
// against a timer firing concurrently (at-most-one handler invocation,
// §8 invariant 1).
func (d *Dispatcher) finishAecp(key aecpPendingKey, result router.AecpResult) {
	d.mu.Lock()
	entry, ok := d.aecpPending[key]
	if !ok || entry.settled {
		d.mu.Unlock()
		return
	}
	entry.settled = true
	entry.timer.Stop()
	delete(d.aecpPending, key)
	d.mu.Unlock()

	entry.handler(result)
}

// SendAa issues an Address Access command. AA has no command-type space to
// dispatch on, so the decoded TLV list is delivered directly without going
// through package router's AEM table.
func (d *Dispatcher) SendAa(target avdeccid.UniqueID, payload protocol.AaPayload, handler router.AecpHandler) {
	dstMAC, ok := d.resolveMAC(target)
	if !ok {
		handler(router.AecpResult{Err: router.ErrUnknownEntity})
		return
	}

	_ = d.limiterFor(target).Wait(context.Background())

	seq := d.nextSequenceID()
	common := protocol.AecpCommonHeader{
		MessageType:        protocol.AecpAddressAccessCommand,
		TargetEntityID:     target,
		ControllerEntityID: d.localEID,
		SequenceID:         seq,
	}
	frame, err := protocol.BuildAaFrame(dstMAC, d.sender.LocalMAC(), common, payload, d.tolerance)
	if err != nil {
		handler(router.AecpResult{Err: err})
		return
	}

	key := aecpPendingKey{family: familyAA, target: target, seq: seq}
	entry := &aecpPending{handler: handler, frame: frame, retriesLeft: d.aemRetries}

	d.mu.Lock()
	d.aecpPending[key] = entry
	d.mu.Unlock()

	entry.timer = time.AfterFunc(d.aemTimeout, func() { d.onAecpTimeout(key) })

	if err := d.sender.SendAecp(frame); err != nil {
		d.finishAecp(key, router.AecpResult{Err: err})
	}
}

// SendGetMilanInfo issues the sole MVU command this design wires: Milan
// compatibility discovery.
func (d *Dispatcher) SendGetMilanInfo(target avdeccid.UniqueID, handler router.AecpHandler) {
	dstMAC, ok := d.resolveMAC(target)
	if !ok {
		handler(router.AecpResult{Err: router.ErrUnknownEntity})
		return
	}

	_ = d.limiterFor(target).Wait(context.Background())

	seq := d.nextSequenceID()
	common := protocol.AecpCommonHeader{
		MessageType:        protocol.AecpVendorUniqueCommand,
		TargetEntityID:     target,
		ControllerEntityID: d.localEID,
		SequenceID:         seq,
	}
	frame, err := protocol.BuildMvuFrame(dstMAC, d.sender.LocalMAC(), common, protocol.MvuCommandHeader{CommandType: protocol.MvuGetMilanInfo}, nil, d.tolerance)
	if err != nil {
		handler(router.AecpResult{Err: err})
		return
	}

	key := aecpPendingKey{family: familyMVU, target: target, seq: seq}
	entry := &aecpPending{handler: handler, frame: frame, retriesLeft: d.aemRetries}

	d.mu.Lock()
	d.aecpPending[key] = entry
	d.mu.Unlock()

	entry.timer = time.AfterFunc(d.aemTimeout, func() { d.onAecpTimeout(key) })

	if err := d.sender.SendAecp(frame); err != nil {
		d.finishAecp(key, router.AecpResult{Err: err})
	}
}

// SendAcmp issues an ACMP command targeting target (the entity expected to
// answer: the listener for *_RX commands, the talker for *_TX commands).
// ACMP does not retry at this layer (§4.5).
func (d *Dispatcher) SendAcmp(target avdeccid.UniqueID, pdu protocol.Acmpdu, handler router.AcmpHandler) {
	if _, ok := d.resolveMAC(target); !ok {
		handler(router.AcmpResult{Err: router.ErrUnknownEntity})
		return
	}

	seq := d.nextSequenceID()
	pdu.SequenceID = seq
	pdu.ControllerEntityID = d.localEID

	entry := &acmpPending{handler: handler, pdu: pdu}

	d.mu.Lock()
	d.acmpPending[seq] = entry
	d.mu.Unlock()

	entry.timer = time.AfterFunc(d.acmpTimeout, func() { d.onAcmpTimeout(seq) })

	if err := d.sender.SendAcmp(pdu); err != nil {
		d.finishAcmp(seq, router.AcmpResult{Err: err})
	}
}

func (d *Dispatcher) onAcmpTimeout(seq uint16) {
	d.finishAcmp(seq, router.AcmpResult{Err: router.ErrTimeout})
}

func (d *Dispatcher) finishAcmp(seq uint16, result router.AcmpResult) {
	d.mu.Lock()
	entry, ok := d.acmpPending[seq]
	if !ok || entry.settled {
		d.mu.Unlock()
		return
	}
	entry.settled = true
	entry.timer.Stop()
	delete(d.acmpPending, seq)
	d.mu.Unlock()

	entry.handler(result)
}

// OnAecpResponse implements transport.Observer: correlate against the
// pending table, then hand off to package router for deserialization and
// handler invocation, or to the unsolicited path.
func (d *Dispatcher) OnAecpResponse(_ protocol.AecpCommonHeader, frame []byte) {
	switch protocol.AecpMessageType(frame[15] & 0x0F) {
	case protocol.AecpAemResponse:
		d.handleAemResponse(frame)
	case protocol.AecpAddressAccessResponse:
		d.handleAaResponse(frame)
	case protocol.AecpVendorUniqueResponse:
		d.handleMvuResponse(frame)
	}
}

func (d *Dispatcher) handleAemResponse(frame []byte) {
	common, aem, payload, err := protocol.ParseAemFrame(frame, d.tolerance)
	if err != nil {
		d.debugf("dropping malformed AEM response", err)
		return
	}
	if common.ControllerEntityID != d.localEID {
		return
	}
	if aem.Unsolicited {
		d.router.HandleUnsolicited(common.TargetEntityID, common.Status, aem.CommandType, payload)
		return
	}

	key := aecpPendingKey{family: familyAEM, target: common.TargetEntityID, seq: common.SequenceID}
	d.mu.Lock()
	entry, ok := d.aecpPending[key]
	if ok {
		entry.settled = true
		entry.timer.Stop()
		delete(d.aecpPending, key)
	}
	d.mu.Unlock()

	if !ok {
		d.debugf("dropping unmatched AEM response", nil)
		return
	}
	d.router.HandleSolicited(common.Status, aem.CommandType, payload, entry.handler)
}

func (d *Dispatcher) handleAaResponse(frame []byte) {
	common, payload, err := protocol.ParseAaFrame(frame, d.tolerance)
	if err != nil {
		d.debugf("dropping malformed AA response", err)
		return
	}
	if common.ControllerEntityID != d.localEID {
		return
	}

	key := aecpPendingKey{family: familyAA, target: common.TargetEntityID, seq: common.SequenceID}
	d.mu.Lock()
	entry, ok := d.aecpPending[key]
	if ok {
		entry.settled = true
		entry.timer.Stop()
		delete(d.aecpPending, key)
	}
	d.mu.Unlock()

	if !ok {
		d.debugf("dropping unmatched AA response", nil)
		return
	}
	entry.handler(router.AecpResult{Status: common.Status, Value: payload})
}

func (d *Dispatcher) handleMvuResponse(frame []byte) {
	common, mvu, payload, err := protocol.ParseMvuFrame(frame, d.tolerance)
	if err != nil {
		d.debugf("dropping malformed MVU response", err)
		return
	}
	if common.ControllerEntityID != d.localEID || mvu.CommandType != protocol.MvuGetMilanInfo {
		return
	}

	key := aecpPendingKey{family: familyMVU, target: common.TargetEntityID, seq: common.SequenceID}
	d.mu.Lock()
	entry, ok := d.aecpPending[key]
	if ok {
		entry.settled = true
		entry.timer.Stop()
		delete(d.aecpPending, key)
	}
	d.mu.Unlock()

	if !ok {
		d.debugf("dropping unmatched MVU response", nil)
		return
	}

	info, err := protocol.ParseMilanInfoPayload(payload)
	if err != nil {
		if common.Status != protocol.AecpStatusSuccess && d.tolerance.AcceptInvalidNonSuccessResponse {
			entry.handler(router.AecpResult{Status: common.Status})
			return
		}
		entry.handler(router.AecpResult{Status: common.Status, Err: router.ErrProtocolError})
		return
	}
	entry.handler(router.AecpResult{Status: common.Status, Value: info})
}

// OnAcmpMessage implements transport.Observer: correlate ACMP responses
// addressed to us, ignoring commands and sniffed traffic from other
// controllers.
func (d *Dispatcher) OnAcmpMessage(pdu protocol.Acmpdu) {
	if !pdu.MessageType.IsResponse() || pdu.ControllerEntityID != d.localEID {
		return
	}
	d.finishAcmp(pdu.SequenceID, router.AcmpResult{Status: pdu.Status, Pdu: pdu})
}

// OnAcmpSniffedCommand and OnAcmpSniffedResponse implement
// transport.Observer, forwarding ACMP traffic not addressed to this
// controller to the installed SniffDelegate, if any.
func (d *Dispatcher) OnAcmpSniffedCommand(pdu protocol.Acmpdu) {
	if delegate := d.currentSniffDelegate(); delegate != nil {
		delegate.OnAcmpSniffedCommand(pdu)
	}
}

func (d *Dispatcher) OnAcmpSniffedResponse(pdu protocol.Acmpdu) {
	if delegate := d.currentSniffDelegate(); delegate != nil {
		delegate.OnAcmpSniffedResponse(pdu)
	}
}

func (d *Dispatcher) debugf(msg string, err error) {
	if d.logger == nil {
		return
	}
	if err != nil {
		d.logger.Debug(msg, zap.Error(err))
		return
	}
	d.logger.Debug(msg)
}

// The dispatcher only cares about AECP responses and ACMP traffic; it
// registers as a transport.Observer directly, so the ADP/command callbacks
// (owned by package registry and package router) are no-ops here.
func (d *Dispatcher) OnLocalEntityOnline(protocol.Adpdu, net.HardwareAddr)   {}
func (d *Dispatcher) OnLocalEntityOffline(avdeccid.UniqueID)                 {}
func (d *Dispatcher) OnLocalEntityUpdated(protocol.Adpdu, net.HardwareAddr)  {}
func (d *Dispatcher) OnRemoteEntityOnline(protocol.Adpdu, net.HardwareAddr)  {}
func (d *Dispatcher) OnRemoteEntityOffline(avdeccid.UniqueID)                {}
func (d *Dispatcher) OnRemoteEntityUpdated(protocol.Adpdu, net.HardwareAddr) {}
func (d *Dispatcher) OnAecpCommand(protocol.AecpCommonHeader, []byte) bool   { return false }
func (d *Dispatcher) OnTransportError(error)                                 {}
