package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"educhain-wallet/internal/adapter/provider/providertest"
)

func TestDiagnostics_Check(t *testing.T) {
	tests := []struct {
		name      string
		provider  *providertest.Provider
		valid     bool
		issues    int
		mentionOf string
	}{
		{
			name:     "healthy",
			provider: providertest.New().SetAccounts(testAddress).SetChainID("0xa0a4c"),
			valid:    true,
		},
		{
			name:      "no provider",
			provider:  providertest.New().SetAbsent(true),
			issues:    1,
			mentionOf: "MetaMask",
		},
		{
			name:      "locked wallet",
			provider:  providertest.New().SetChainID("0xA0A4C"),
			issues:    1,
			mentionOf: "Unlock",
		},
		{
			name:      "wrong network",
			provider:  providertest.New().SetAccounts(testAddress).SetChainID("0x1"),
			issues:    1,
			mentionOf: "EDU Chain Testnet (Chain ID: 656476)",
		},
		{
			name:      "locked and wrong network",
			provider:  providertest.New().SetChainID("0x1"),
			issues:    2,
			mentionOf: "656476",
		},
		{
			name:      "unreachable wallet",
			provider:  providertest.New().SetAccountsError(errors.New("timeout")),
			issues:    1,
			mentionOf: "Reload",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diagnostics := NewDiagnostics(tt.provider, EduChainTestnet(), zaptest.NewLogger(t))

			diag := diagnostics.Check(context.Background())
			assert.Equal(t, tt.valid, diag.Valid)
			assert.Len(t, diag.Issues, tt.issues)
			assert.Len(t, diag.Suggestions, tt.issues)
			if tt.mentionOf != "" {
				mentioned := lo.ContainsBy(diag.Suggestions, func(s string) bool {
					return strings.Contains(s, tt.mentionOf)
				})
				assert.True(t, mentioned, "suggestions %v should mention %q", diag.Suggestions, tt.mentionOf)
			}
			assert.Zero(t, tt.provider.Calls("RequestAccounts"), "diagnostics never prompts")
		})
	}
}
