package registry

import (
	"net"
	"testing"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

func testAdv(eid avdeccid.UniqueID, availIdx uint32) protocol.Adpdu {
	return protocol.Adpdu{
		MessageType:    protocol.AdpEntityAvailable,
		EntityID:       eid,
		AvailableIndex: availIdx,
		InterfaceIndex: 0,
	}
}

type recording struct {
	online  []Record
	updated []Record
	offline []avdeccid.UniqueID
}

func (r *recording) OnEntityOnline(rec Record)       { r.online = append(r.online, rec) }
func (r *recording) OnEntityUpdated(rec Record)      { r.updated = append(r.updated, rec) }
func (r *recording) OnEntityOffline(eid avdeccid.UniqueID) { r.offline = append(r.offline, eid) }

func TestRegistryOnlineUpdatedOffline(t *testing.T) {
	reg := New()
	rec := &recording{}
	reg.AddListener(rec)

	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	eid := avdeccid.UniqueID(0x1122334455667788)

	reg.OnRemoteEntityOnline(testAdv(eid, 1), mac)
	if len(rec.online) != 1 {
		t.Fatalf("expected 1 online notification, got %d", len(rec.online))
	}
	if _, ok := reg.Lookup(eid); !ok {
		t.Fatalf("expected entity to be present after online")
	}

	reg.OnRemoteEntityUpdated(testAdv(eid, 2), mac)
	if len(rec.updated) != 1 {
		t.Fatalf("expected 1 updated notification, got %d", len(rec.updated))
	}
	got, _ := reg.Lookup(eid)
	if got.AvailableIndex != 2 {
		t.Fatalf("expected available index 2, got %d", got.AvailableIndex)
	}

	reg.OnRemoteEntityOffline(eid)
	if len(rec.offline) != 1 || rec.offline[0] != eid {
		t.Fatalf("expected 1 offline notification for %v, got %v", eid, rec.offline)
	}
	if _, ok := reg.Lookup(eid); ok {
		t.Fatalf("expected entity to be removed after offline")
	}
}

func TestRegistryOfflineUnknownIsNoop(t *testing.T) {
	reg := New()
	rec := &recording{}
	reg.AddListener(rec)

	reg.OnRemoteEntityOffline(avdeccid.UniqueID(0xDEADBEEF))
	if len(rec.offline) != 0 {
		t.Fatalf("expected no offline notification for unknown entity, got %d", len(rec.offline))
	}
}

func TestRegistryLocalEntityIgnored(t *testing.T) {
	reg := New()
	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	reg.OnLocalEntityOnline(testAdv(avdeccid.UniqueID(1), 0), mac)
	if len(reg.Snapshot()) != 0 {
		t.Fatalf("expected local entity to be filtered out")
	}
}

func TestRegistryMultiInterfacePreserved(t *testing.T) {
	reg := New()
	eid := avdeccid.UniqueID(0x42)
	mac0, _ := net.ParseMAC("00:11:22:33:44:00")
	mac1, _ := net.ParseMAC("00:11:22:33:44:01")

	adv0 := testAdv(eid, 1)
	adv0.InterfaceIndex = 0
	reg.OnRemoteEntityOnline(adv0, mac0)

	adv1 := testAdv(eid, 1)
	adv1.InterfaceIndex = 1
	reg.OnRemoteEntityOnline(adv1, mac1)

	rec, ok := reg.Lookup(eid)
	if !ok {
		t.Fatalf("expected entity to be present")
	}
	if len(rec.Interfaces) != 2 {
		t.Fatalf("expected 2 interfaces tracked, got %d: %+v", len(rec.Interfaces), rec.Interfaces)
	}
}
