// Package providertest provides a scriptable in-memory WalletProvider for tests.
package providertest

import (
	"context"
	"math/big"
	"sync"

	"educhain-wallet/internal/domain"
	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
)

// Compile-time check
var _ domainService.WalletProvider = (*Provider)(nil)

// Provider is a WalletProvider whose answers are set by the test.
// All fields are guarded by the provider's mutex; use the setters.
type Provider struct {
	mu sync.Mutex

	absent            bool
	accounts          []string
	requestedAccounts []string
	chainID           string
	balance           *big.Int

	accountsErr error
	requestErr  error
	chainErr    error
	balanceErr  error
	switchErr   error
	addErr      error

	// beforeRead, when set, runs at the start of every passive read with the method name.
	beforeRead func(method string)

	calls    map[string]int
	switched []entity.NetworkDescriptor
	added    []entity.NetworkDescriptor
	events   chan entity.ProviderEvent
}

// New returns a present provider with no accounts on chain 0x1 and a zero balance.
func New() *Provider {
	return &Provider{
		chainID: "0x1",
		balance: new(big.Int),
		calls:   map[string]int{},
		events:  make(chan entity.ProviderEvent, 16),
	}
}

func (p *Provider) SetAbsent(absent bool) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.absent = absent
	return p
}

// SetAccounts sets what ReadAccounts returns.
func (p *Provider) SetAccounts(accounts ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = accounts
	return p
}

// SetRequestedAccounts sets what RequestAccounts returns. A successful request also grants
// the accounts, so later ReadAccounts calls see them.
func (p *Provider) SetRequestedAccounts(accounts ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestedAccounts = accounts
	return p
}

func (p *Provider) SetChainID(chainID string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainID = chainID
	return p
}

func (p *Provider) SetBalance(balance *big.Int) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance = balance
	return p
}

func (p *Provider) SetAccountsError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountsErr = err
	return p
}

func (p *Provider) SetRequestError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestErr = err
	return p
}

func (p *Provider) SetChainError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainErr = err
	return p
}

func (p *Provider) SetBalanceError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceErr = err
	return p
}

func (p *Provider) SetSwitchError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.switchErr = err
	return p
}

func (p *Provider) SetAddError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addErr = err
	return p
}

// OnRead installs a hook that runs before every passive read.
func (p *Provider) OnRead(fn func(method string)) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beforeRead = fn
	return p
}

// Calls returns how many times method was invoked.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// Switched returns every descriptor passed to SwitchNetwork.
func (p *Provider) Switched() []entity.NetworkDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.NetworkDescriptor(nil), p.switched...)
}

// Added returns every descriptor passed to AddNetwork.
func (p *Provider) Added() []entity.NetworkDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.NetworkDescriptor(nil), p.added...)
}

// Emit pushes an event to the Events stream.
func (p *Provider) Emit(event entity.ProviderEvent) {
	p.events <- event
}

// CloseEvents ends the Events stream.
func (p *Provider) CloseEvents() {
	close(p.events)
}

func (p *Provider) IsProviderPresent(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["IsProviderPresent"]++
	return !p.absent
}

func (p *Provider) ReadAccounts(ctx context.Context) ([]string, error) {
	p.read("ReadAccounts")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accountsErr != nil {
		return nil, p.accountsErr
	}
	return append([]string(nil), p.accounts...), ctx.Err()
}

func (p *Provider) RequestAccounts(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["RequestAccounts"]++
	if p.absent {
		return nil, domain.ErrProviderAbsent
	}
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	if len(p.requestedAccounts) > 0 {
		p.accounts = append([]string(nil), p.requestedAccounts...)
	}
	return append([]string(nil), p.requestedAccounts...), ctx.Err()
}

func (p *Provider) ReadChainID(ctx context.Context) (string, error) {
	p.read("ReadChainID")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chainErr != nil {
		return "", p.chainErr
	}
	return p.chainID, ctx.Err()
}

func (p *Provider) ReadNativeBalance(ctx context.Context, _ string) (*big.Int, error) {
	p.read("ReadNativeBalance")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balanceErr != nil {
		return nil, p.balanceErr
	}
	return new(big.Int).Set(p.balance), ctx.Err()
}

func (p *Provider) SwitchNetwork(_ context.Context, network entity.NetworkDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["SwitchNetwork"]++
	p.switched = append(p.switched, network)
	if p.switchErr != nil {
		return p.switchErr
	}
	p.chainID = network.ChainID
	return nil
}

func (p *Provider) AddNetwork(_ context.Context, network entity.NetworkDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["AddNetwork"]++
	p.added = append(p.added, network)
	if p.addErr != nil {
		return p.addErr
	}
	if err := network.Validate(); err != nil {
		return err
	}
	p.chainID = network.ChainID
	return nil
}

func (p *Provider) Events(ctx context.Context) (<-chan entity.ProviderEvent, error) {
	out := make(chan entity.ProviderEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-p.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *Provider) read(method string) {
	p.mu.Lock()
	p.calls[method]++
	hook := p.beforeRead
	p.mu.Unlock()
	if hook != nil {
		hook(method)
	}
}
