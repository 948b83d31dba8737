package transport

import (
	"net"
	"sync"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// adpState tracks the last-seen advertisement per EID purely to classify
// each inbound ADP message as online/updated/offline before fanning it out
// to observers (§4.4: "the transport routes ADP advertisements... directly").
// It is not the entity registry (C3); package registry is the authoritative
// observer that turns these classified events into entity records.
type adpState struct {
	mu       sync.Mutex
	localEID avdeccid.UniqueID
	known    map[avdeccid.UniqueID]protocol.Adpdu
}

func newAdpState(localEID avdeccid.UniqueID) *adpState {
	return &adpState{
		localEID: localEID,
		known:    make(map[avdeccid.UniqueID]protocol.Adpdu),
	}
}

// classify updates internal state and reports what happened: "online",
// "updated", "offline", or "" for a no-op duplicate or an unknown-entity
// departure.
func (s *adpState) classify(adv protocol.Adpdu) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, known := s.known[adv.EntityID]

	switch adv.MessageType {
	case protocol.AdpEntityDeparting:
		if !known {
			return ""
		}
		delete(s.known, adv.EntityID)
		return "offline"

	case protocol.AdpEntityAvailable:
		s.known[adv.EntityID] = adv
		if !known {
			return "online"
		}
		if prev != adv {
			return "updated"
		}
		return ""

	default:
		return ""
	}
}

func (s *adpState) isLocal(eid avdeccid.UniqueID) bool {
	return eid == s.localEID
}

// dispatchAdp classifies adv and invokes the matching Observer callback. mac
// is the frame's source MAC address.
func dispatchAdp(obs []Observer, state *adpState, adv protocol.Adpdu, mac net.HardwareAddr) {
	event := state.classify(adv)
	if event == "" {
		return
	}
	local := state.isLocal(adv.EntityID)
	for _, o := range obs {
		switch {
		case local && event == "online":
			o.OnLocalEntityOnline(adv, mac)
		case local && event == "updated":
			o.OnLocalEntityUpdated(adv, mac)
		case local && event == "offline":
			o.OnLocalEntityOffline(adv.EntityID)
		case !local && event == "online":
			o.OnRemoteEntityOnline(adv, mac)
		case !local && event == "updated":
			o.OnRemoteEntityUpdated(adv, mac)
		case !local && event == "offline":
			o.OnRemoteEntityOffline(adv.EntityID)
		}
	}
}
