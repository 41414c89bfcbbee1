package entity

import "strings"

// Protocol is the transport scheme of an RPC endpoint.
type Protocol string

const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// Protocol returns the transport of the endpoint. Schemes other than http(s) and ws(s) are ProtocolUnknown.
func (r RPCURL) Protocol() Protocol {
	scheme, _, found := strings.Cut(string(r), "://")
	if !found {
		return ProtocolUnknown
	}
	switch p := Protocol(strings.ToLower(scheme)); p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
		return p
	default:
		return ProtocolUnknown
	}
}

// RPCDetail is the outcome of checking one endpoint of a network.
// IsWorking is nil only for an endpoint that was never checked.
type RPCDetail struct {
	URL           RPCURL   `json:"url"`
	Protocol      Protocol `json:"protocol"`
	IsWorking     *bool    `json:"isWorking"`
	LatencyMs     *int64   `json:"latencyMs,omitempty"`
	ReportedChain string   `json:"reportedChainId,omitempty"`
	ChainMismatch bool     `json:"chainMismatch,omitempty"`
}

// Healthy reports whether the endpoint answered for the chain it was checked against.
func (d RPCDetail) Healthy() bool {
	return d.IsWorking != nil && *d.IsWorking && !d.ChainMismatch
}
