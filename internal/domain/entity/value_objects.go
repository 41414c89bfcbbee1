package entity

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RPCURL represents a typed URL for an RPC endpoint.
type RPCURL string

// NewRPCURL creates a new RPCURL instance.
func NewRPCURL(rawURL string) (RPCURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("rpc url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL) // Checks general URI validity
	if err != nil {
		return "", fmt.Errorf("invalid rpc url format '%s': %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "http", "https", "ws", "wss":
		// Allowed schemes
	default:
		return "", fmt.Errorf("rpc url '%s' has unsupported scheme: '%s'", rawURL, scheme)
	}

	return RPCURL(rawURL), nil
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}

// ParseChainID parses a chain id given either as a 0x-prefixed hex quantity
// (the provider's encoding) or as a decimal number.
func ParseChainID(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("chain id cannot be empty")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			return 0, fmt.Errorf("chain id '%s' must be non-zero", raw)
		}
		id, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex chain id '%s': %w", raw, err)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id '%s': %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("chain id '%s' must be non-zero", raw)
	}
	return id, nil
}

// NormalizeChainID returns the canonical lower-case hex form of a chain id,
// or an empty string when it cannot be parsed.
func NormalizeChainID(raw string) string {
	id, err := ParseChainID(raw)
	if err != nil {
		return ""
	}
	return hexutil.EncodeUint64(id)
}

// SameChain reports whether two chain ids denote the same chain.
func SameChain(a, b string) bool {
	na := NormalizeChainID(a)
	return na != "" && na == NormalizeChainID(b)
}
