package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
)

// maxPortRetries bounds attempts to get a kernel port not already reserved.
const maxPortRetries = 20

// ErrInvalidPort is returned for a preferred port outside 0..65535.
var ErrInvalidPort = errors.New("port out of range")

// PortRegistry tracks ports reserved by this process.
type PortRegistry struct {
	mu    sync.Mutex
	ports map[int]struct{}
	host  string
	log   *slog.Logger
}

// NewPortRegistry creates a registry that probes host ("" means 127.0.0.1).
// If logger is nil, slog.Default() is used.
func NewPortRegistry(host string, logger *slog.Logger) *PortRegistry {
	if host == "" {
		host = "127.0.0.1"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PortRegistry{
		ports: make(map[int]struct{}),
		host:  host,
		log:   logger,
	}
}

func (r *PortRegistry) reserve(port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[port]; ok {
		return false
	}
	r.ports[port] = struct{}{}
	return true
}

// Release makes port available to later FindFreePort calls.
func (r *PortRegistry) Release(port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ports, port)
}

// Reserved reports whether port is currently held by the registry.
func (r *PortRegistry) Reserved(port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ports[port]
	return ok
}

// FindFreePort returns preferred if it is not reserved and can be bound,
// otherwise a kernel-assigned free port. A preferred value of 0 always asks
// the kernel. The returned port is reserved until Release.
func (r *PortRegistry) FindFreePort(preferred int) (int, error) {
	if preferred < 0 || preferred > 65535 {
		return 0, fmt.Errorf("find free port %d: %w", preferred, ErrInvalidPort)
	}
	if preferred != 0 && r.reserve(preferred) {
		if l, err := net.Listen("tcp", r.addr(preferred)); err == nil {
			_ = l.Close()
			return preferred, nil
		}
		r.Release(preferred)
		r.log.Debug("preferred port busy, asking the kernel", "port", preferred)
	}

	for range maxPortRetries {
		l, err := net.Listen("tcp", r.addr(0))
		if err != nil {
			return 0, fmt.Errorf("listen on %s: %w", r.host, err)
		}
		tcpAddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			_ = l.Close()
			return 0, fmt.Errorf("unexpected address type: %T", l.Addr())
		}
		port := tcpAddr.Port
		reserved := r.reserve(port)
		// Close after reserving so no concurrent caller can be handed the
		// same port in between.
		if closeErr := l.Close(); closeErr != nil {
			r.log.Warn("close listener after port allocation", "port", port, "error", closeErr)
		}
		if reserved {
			return port, nil
		}
		r.log.Debug("port already in registry, retrying", "port", port)
	}
	return 0, fmt.Errorf("allocate unique port: exhausted %d attempts", maxPortRetries)
}

func (r *PortRegistry) addr(port int) string {
	return net.JoinHostPort(r.host, strconv.Itoa(port))
}
