package ports

import "context"

// Prober reports whether hostport currently accepts connections.
type Prober interface {
	Probe(ctx context.Context, hostport string) error
}
