package tcp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bnema/feedlink/internal/ports"
)

const DefaultTimeout = 2 * time.Second

// Prober treats an address as live when a TCP connection to it opens within
// Timeout.
type Prober struct {
	Timeout time.Duration
	Dialer  *net.Dialer
}

var _ ports.Prober = Prober{}

func (p Prober) Probe(ctx context.Context, hostport string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", hostport)
	if err != nil {
		return fmt.Errorf("probe %s: %w", hostport, err)
	}
	_ = conn.Close()

	return nil
}
