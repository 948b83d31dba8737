// Package registry implements the entity registry (C3): a map from entity
// id to its last-known advertisement, kept current by observing ADP traffic
// on the transport.
package registry

import (
	"net"
	"sync"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// Interface is one advertised network attachment of an entity: the MAC that
// sent the advertisement and the AVB interface index it carried.
type Interface struct {
	MAC            net.HardwareAddr
	InterfaceIndex uint16
}

// Record is the last-known state of a discovered entity (§3 "Entity
// record"). It is a value copy handed to callers; mutating it has no effect
// on the registry.
type Record struct {
	EntityID               avdeccid.UniqueID
	EntityModelID          avdeccid.UniqueID
	EntityCapabilities     protocol.EntityCapabilities
	TalkerStreamSources    uint16
	TalkerCapabilities     protocol.TalkerCapabilities
	ListenerStreamSinks    uint16
	ListenerCapabilities   protocol.ListenerCapabilities
	ControllerCapabilities protocol.ControllerCapabilities
	AvailableIndex         uint32
	GptpGrandmasterID      avdeccid.UniqueID
	GptpDomainNumber       uint8
	AssociationID          avdeccid.UniqueID

	// Interfaces indexes every AVB interface this entity has advertised
	// itself on, keyed by AVB interface index. Multi-homed entities send
	// one ADP advertisement per interface.
	Interfaces map[uint16]Interface
}

func recordFromAdv(adv protocol.Adpdu, mac net.HardwareAddr) Record {
	return Record{
		EntityID:               adv.EntityID,
		EntityModelID:          adv.EntityModelID,
		EntityCapabilities:     adv.EntityCapabilities,
		TalkerStreamSources:    adv.TalkerStreamSources,
		TalkerCapabilities:     adv.TalkerCapabilities,
		ListenerStreamSinks:    adv.ListenerStreamSinks,
		ListenerCapabilities:   adv.ListenerCapabilities,
		ControllerCapabilities: adv.ControllerCapabilities,
		AvailableIndex:         adv.AvailableIndex,
		GptpGrandmasterID:      adv.GptpGrandmasterID,
		GptpDomainNumber:       adv.GptpDomainNumber,
		AssociationID:          adv.AssociationID,
		Interfaces: map[uint16]Interface{
			adv.InterfaceIndex: {MAC: mac, InterfaceIndex: adv.InterfaceIndex},
		},
	}
}

// Listener is notified of registry changes. Implementations must not block;
// they run on the transport's receive thread.
type Listener interface {
	OnEntityOnline(rec Record)
	OnEntityUpdated(rec Record)
	OnEntityOffline(eid avdeccid.UniqueID)
}

// Registry is a transport.Observer that maintains the EID -> Record map.
// Access is protected by its own mutex; per §5 the transport already
// serializes the calls into OnRemoteEntity*, so this lock only needs to
// protect concurrent reads from dispatcher/facade goroutines.
type Registry struct {
	mu   sync.RWMutex
	recs map[avdeccid.UniqueID]Record

	listenersMu sync.RWMutex
	listeners   []Listener
}

func New() *Registry {
	return &Registry{
		recs: make(map[avdeccid.UniqueID]Record),
	}
}

func (r *Registry) AddListener(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Lookup returns the current record for eid, or false if the entity is not
// known.
func (r *Registry) Lookup(eid avdeccid.UniqueID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[eid]
	return rec, ok
}

// Snapshot returns every currently known entity.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.recs))
	for _, rec := range r.recs {
		out = append(out, rec)
	}
	return out
}

// OnRemoteEntityOnline inserts rec, replacing any prior record silently
// (§4.3: "Duplicate ONLINE for a known entity replaces silently").
func (r *Registry) OnRemoteEntityOnline(adv protocol.Adpdu, mac net.HardwareAddr) {
	rec := r.upsert(adv, mac)
	r.notifyOnline(rec)
}

func (r *Registry) OnRemoteEntityUpdated(adv protocol.Adpdu, mac net.HardwareAddr) {
	rec := r.upsert(adv, mac)
	r.notifyUpdated(rec)
}

// OnRemoteEntityOffline removes eid from the registry. A departure for an
// unknown entity is a no-op (§4.3).
func (r *Registry) OnRemoteEntityOffline(eid avdeccid.UniqueID) {
	r.mu.Lock()
	_, known := r.recs[eid]
	delete(r.recs, eid)
	r.mu.Unlock()

	if !known {
		return
	}
	r.notifyOffline(eid)
}

// OnLocalEntityOnline/Offline/Updated are no-ops: §4.3 filters local
// entities out before insertion.
func (r *Registry) OnLocalEntityOnline(protocol.Adpdu, net.HardwareAddr)  {}
func (r *Registry) OnLocalEntityUpdated(protocol.Adpdu, net.HardwareAddr) {}
func (r *Registry) OnLocalEntityOffline(avdeccid.UniqueID)                {}

func (r *Registry) upsert(adv protocol.Adpdu, mac net.HardwareAddr) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := recordFromAdv(adv, mac)
	if existing, ok := r.recs[adv.EntityID]; ok {
		for idx, iface := range existing.Interfaces {
			if _, present := next.Interfaces[idx]; !present {
				next.Interfaces[idx] = iface
			}
		}
	}
	r.recs[adv.EntityID] = next
	return next
}

func (r *Registry) notifyOnline(rec Record) {
	for _, l := range r.listenerSnapshot() {
		l.OnEntityOnline(rec)
	}
}

func (r *Registry) notifyUpdated(rec Record) {
	for _, l := range r.listenerSnapshot() {
		l.OnEntityUpdated(rec)
	}
}

func (r *Registry) notifyOffline(eid avdeccid.UniqueID) {
	for _, l := range r.listenerSnapshot() {
		l.OnEntityOffline(eid)
	}
}

func (r *Registry) listenerSnapshot() []Listener {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	return append([]Listener(nil), r.listeners...)
}

// The registry only cares about ADP lifecycle; it registers as a
// transport.Observer directly, so the AECP/ACMP/error callbacks are no-ops.
func (r *Registry) OnAecpCommand(protocol.AecpCommonHeader, []byte) bool { return false }
func (r *Registry) OnAecpResponse(protocol.AecpCommonHeader, []byte)     {}
func (r *Registry) OnAcmpMessage(protocol.Acmpdu)                        {}
func (r *Registry) OnAcmpSniffedCommand(protocol.Acmpdu)                 {}
func (r *Registry) OnAcmpSniffedResponse(protocol.Acmpdu)                {}
func (r *Registry) OnTransportError(error)                               {}
