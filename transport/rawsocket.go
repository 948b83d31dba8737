//go:build linux

package transport

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// htons converts a host-order uint16 to network order, matching the value
// AF_PACKET expects in its protocol field.
func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

// RawSocketTransport is a ProtocolInterface backed directly by an
// AF_PACKET/SOCK_RAW socket bound to the AVDECC EtherType. It avoids the
// libpcap dependency PcapTransport carries, at the cost of only running on
// Linux.
type RawSocketTransport struct {
	fd       int
	ifIndex  int
	localMAC net.HardwareAddr

	tolerance protocol.ToleranceFlags
	logger    *zap.Logger

	writeMu sync.Mutex

	obsMu     sync.RWMutex
	observers []Observer

	state *adpState

	done chan struct{}
}

// NewRawSocketTransport opens a raw packet socket on iface, bound to the
// AVDECC EtherType so the kernel only queues frames this process cares
// about.
func NewRawSocketTransport(iface string, localEID avdeccid.UniqueID, tolerance protocol.ToleranceFlags, logger *zap.Logger) (*RawSocketTransport, error) {
	netIface, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve interface %s: %w", iface, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(protocol.EtherType)))
	if err != nil {
		return nil, fmt.Errorf("transport: open raw socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(protocol.EtherType),
		Ifindex:  netIface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: bind raw socket to %s: %w", iface, err)
	}

	mreq := unix.PacketMreq{
		Ifindex: int32(netIface.Index),
		Type:    unix.PACKET_MR_MULTICAST,
		Alen:    6,
	}
	copy(mreq.Address[:6], protocol.MulticastHWAddr())
	if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: join AVDECC multicast group on %s: %w", iface, err)
	}

	t := &RawSocketTransport{
		fd:        fd,
		ifIndex:   netIface.Index,
		localMAC:  netIface.HardwareAddr,
		tolerance: tolerance,
		logger:    logger,
		state:     newAdpState(localEID),
		done:      make(chan struct{}),
	}

	go t.receiveLoop()

	return t, nil
}

func (t *RawSocketTransport) RegisterObserver(obs Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, obs)
}

func (t *RawSocketTransport) observerSnapshot() []Observer {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	return append([]Observer(nil), t.observers...)
}

func (t *RawSocketTransport) LocalMAC() net.HardwareAddr { return t.localMAC }

func (t *RawSocketTransport) Lock()   { t.writeMu.Lock() }
func (t *RawSocketTransport) Unlock() { t.writeMu.Unlock() }

func (t *RawSocketTransport) Close() error {
	close(t.done)
	return unix.Close(t.fd)
}

func (t *RawSocketTransport) SendAdp(pdu protocol.Adpdu) error {
	return t.writeFrame(protocol.BuildAdp(protocol.MulticastHWAddr(), t.localMAC, pdu))
}

func (t *RawSocketTransport) SendAcmp(pdu protocol.Acmpdu) error {
	return t.writeFrame(protocol.BuildAcmp(protocol.MulticastHWAddr(), t.localMAC, pdu))
}

func (t *RawSocketTransport) SendAecp(frame []byte) error {
	return t.writeFrame(frame)
}

func (t *RawSocketTransport) writeFrame(frame []byte) error {
	dest := frame[0:6]

	addr := unix.SockaddrLinklayer{
		Protocol: htons(protocol.EtherType),
		Ifindex:  t.ifIndex,
		Halen:    6,
	}
	copy(addr.Addr[:6], dest)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := unix.Sendto(t.fd, frame, 0, &addr); err != nil {
		return fmt.Errorf("transport: sendto: %w", err)
	}
	return nil
}

func (t *RawSocketTransport) receiveLoop() {
	buf := make([]byte, 1600)

	for {
		select {
		case <-t.done:
			return
		default:
		}

		n, _, err := unix.Recvfrom(t.fd, buf, 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			select {
			case <-t.done:
				return
			default:
			}
			for _, o := range t.observerSnapshot() {
				o.OnTransportError(fmt.Errorf("transport: recvfrom: %w", err))
			}
			return
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		dispatchFrame(frame, t.tolerance, t.state, t.observerSnapshot(), t.logger)
	}
}
