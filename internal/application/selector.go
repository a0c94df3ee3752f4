package application

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
)

// AddressSelector picks the first usable address from a list: the address
// must parse as an http(s) endpoint and then pass the liveness probe.
type AddressSelector struct {
	prober ports.Prober
}

// NewAddressSelector returns a selector probing with p. A nil prober accepts
// every syntactically valid address.
func NewAddressSelector(p ports.Prober) *AddressSelector {
	return &AddressSelector{prober: p}
}

func (s *AddressSelector) Select(ctx context.Context, addrs []string) (string, bool) {
	for _, raw := range addrs {
		if ctx.Err() != nil {
			return "", false
		}

		baseURL, hostport, err := NormalizeAddress(raw)
		if err != nil {
			continue
		}

		if s.prober != nil {
			if err := s.prober.Probe(ctx, hostport); err != nil {
				continue
			}
		}

		return baseURL, true
	}

	return "", false
}

// NormalizeAddress accepts host:port, [v6]:port or http(s)://host[:port][/path]
// and returns the canonical base URL together with the host:port to probe.
func NormalizeAddress(raw string) (string, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", fmt.Errorf("%w: empty", domain.ErrInvalidAddress)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", domain.ErrInvalidAddress, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("%w: %q: unsupported scheme", domain.ErrInvalidAddress, raw)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("%w: %q: missing host", domain.ErrInvalidAddress, raw)
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
		if parsed.Scheme == "https" {
			port = "443"
		}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", "", fmt.Errorf("%w: %q: bad port", domain.ErrInvalidAddress, raw)
	}

	hostport := net.JoinHostPort(host, port)
	base := parsed.Scheme + "://" + hostport + strings.TrimRight(parsed.Path, "/")

	return base, hostport, nil
}
