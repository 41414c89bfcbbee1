package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndHelp(t *testing.T) {
	all := []error{
		ErrProviderAbsent,
		ErrUserRejected,
		ErrRequestAlreadyPending,
		ErrUnknownNetwork,
		ErrInvalidNetworkConfig,
		ErrSwitchFailed,
		ErrAddFailed,
		ErrConnectFailed,
		ErrNoAccounts,
	}

	kinds := map[string]bool{}
	helps := map[string]bool{}
	for _, err := range all {
		wrapped := fmt.Errorf("%w: provider said no", err)
		kind := Kind(wrapped)
		help := Help(wrapped)

		assert.NotEqual(t, "Unknown", kind, err.Error())
		assert.NotEmpty(t, help)
		kinds[kind] = true
		helps[help] = true
	}

	assert.Len(t, kinds, len(all), "every failure needs a distinct kind")
	assert.Len(t, helps, len(all), "every failure needs a distinct message")
}

func TestKindUnknown(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "Unknown", Kind(errors.New("boom")))
	assert.NotEmpty(t, Help(errors.New("boom")))
}
