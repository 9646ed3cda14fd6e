package llm

import (
	"net"
	"time"
)

// DialProbe implements service.Reachability with a TCP dial against the
// provider endpoint. Cheap enough to run before every remote attempt.
type DialProbe struct {
	Address string
	Timeout time.Duration
}

// NewDialProbe returns a probe against the Anthropic API endpoint.
func NewDialProbe() *DialProbe {
	return &DialProbe{
		Address: "api.anthropic.com:443",
		Timeout: 3 * time.Second,
	}
}

// IsReachable reports whether the endpoint accepts a TCP connection.
func (p *DialProbe) IsReachable() bool {
	conn, err := net.DialTimeout("tcp", p.Address, p.Timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
