package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"go.uber.org/zap"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// PcapTransport is a ProtocolInterface backed by libpcap: it captures
// EtherType-0x22F0 frames off a live interface and writes frames back out
// the same handle. The teacher only ever reads with gopacket/pcap
// (artnet/receiver_pcap.go, sacn/receiver_pcap.go); this also sends, via
// handle.WritePacketData.
type PcapTransport struct {
	handle    *pcap.Handle
	localMAC  net.HardwareAddr
	tolerance protocol.ToleranceFlags
	logger    *zap.Logger

	writeMu sync.Mutex

	obsMu     sync.RWMutex
	observers []Observer

	state *adpState

	done chan struct{}
}

// NewPcapTransport opens iface in promiscuous live-capture mode, filters
// for the AVDECC EtherType, and resolves iface's hardware address as the
// local MAC used when sending.
func NewPcapTransport(iface string, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) (*PcapTransport, error) {
	handle, err := pcap.OpenLive(iface, 1600, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("transport: open live capture on %s: %w", iface, err)
	}

	if err := handle.SetBPFFilter(fmt.Sprintf("ether proto 0x%04x", protocol.EtherType)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("transport: set bpf filter: %w", err)
	}

	netIface, err := net.InterfaceByName(iface)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("transport: resolve interface %s: %w", iface, err)
	}

	t := &PcapTransport{
		handle:    handle,
		localMAC:  netIface.HardwareAddr,
		tolerance: tolerance,
		logger:    logger,
		state:     newAdpState(localEID),
		done:      make(chan struct{}),
	}

	go t.receiveLoop()

	return t, nil
}

func (t *PcapTransport) RegisterObserver(obs Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, obs)
}

func (t *PcapTransport) observerSnapshot() []Observer {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	return append([]Observer(nil), t.observers...)
}

func (t *PcapTransport) LocalMAC() net.HardwareAddr { return t.localMAC }

func (t *PcapTransport) Lock()   { t.writeMu.Lock() }
func (t *PcapTransport) Unlock() { t.writeMu.Unlock() }

func (t *PcapTransport) Close() error {
	close(t.done)
	t.handle.Close()
	return nil
}

func (t *PcapTransport) SendAdp(pdu protocol.Adpdu) error {
	return t.writeFrame(protocol.BuildAdp(protocol.MulticastHWAddr(), t.localMAC, pdu))
}

func (t *PcapTransport) SendAcmp(pdu protocol.Acmpdu) error {
	return t.writeFrame(protocol.BuildAcmp(protocol.MulticastHWAddr(), t.localMAC, pdu))
}

func (t *PcapTransport) SendAecp(frame []byte) error {
	return t.writeFrame(frame)
}

func (t *PcapTransport) writeFrame(frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("transport: write packet: %w", err)
	}
	return nil
}

func (t *PcapTransport) receiveLoop() {
	src := gopacket.NewPacketSource(t.handle, t.handle.LinkType())

	for {
		select {
		case <-t.done:
			return
		case packet, ok := <-src.Packets():
			if !ok {
				return
			}
			t.handlePacket(packet)
		}
	}
}

func (t *PcapTransport) handlePacket(packet gopacket.Packet) {
	frame := packet.Data()
	dispatchFrame(frame, t.tolerance, t.state, t.observerSnapshot(), t.logger)
}
