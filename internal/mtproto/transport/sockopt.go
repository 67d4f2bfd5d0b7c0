package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// setNoDelay disables Nagle's algorithm on conn. RPC round-trip latency
// dominates over the few extra packets TCP_NODELAY costs for this
// workload (spec §6 transports sit directly under a request/response RPC
// layer, not a bulk stream).
func setNoDelay(conn *net.TCPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("transport: syscall conn: %w", err)
	}

	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}); err != nil {
		return fmt.Errorf("transport: raw conn control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("transport: set TCP_NODELAY: %w", sockErr)
	}
	return nil
}
