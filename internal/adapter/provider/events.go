package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"educhain-wallet/internal/domain/entity"
	"educhain-wallet/internal/pkg/apperrors"
)

// eventMessage is one frame on the provider's event stream.
type eventMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Events connects to the provider's event stream and keeps it connected until ctx is done.
// The returned channel is closed once ctx is done.
func (b *Bridge) Events(ctx context.Context) (<-chan entity.ProviderEvent, error) {
	if b.eventsURL == "" {
		return nil, fmt.Errorf("%w: provider events url is not configured", apperrors.ErrInvalidInput)
	}

	events := make(chan entity.ProviderEvent, 16)
	go func() {
		defer close(events)
		for {
			conn, err := b.dialEvents(ctx)
			if err != nil {
				b.logger.Info("Provider event stream stopped", zap.Error(err))
				return
			}
			b.readEvents(ctx, conn, events)
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn("Provider event stream disconnected, reconnecting",
				zap.Duration("delay", b.reconnectDelay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.reconnectDelay):
			}
		}
	}()
	return events, nil
}

func (b *Bridge) dialEvents(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	return retry.DoWithData(
		func() (*websocket.Conn, error) {
			conn, _, err := dialer.DialContext(ctx, b.eventsURL, nil)
			return conn, err
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(b.reconnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Debug("Provider event stream dial failed",
				zap.String("url", b.eventsURL), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (b *Bridge) readEvents(ctx context.Context, conn *websocket.Conn, out chan<- entity.ProviderEvent) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	b.logger.Info("Provider event stream connected", zap.String("url", b.eventsURL))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Debug("Provider event stream read failed", zap.Error(err))
			return
		}

		event, ok := b.decodeEvent(message)
		if !ok {
			continue
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) decodeEvent(message []byte) (entity.ProviderEvent, bool) {
	var msg eventMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		b.logger.Warn("Dropping malformed provider event", zap.ByteString("body", message), zap.Error(err))
		return entity.ProviderEvent{}, false
	}

	switch entity.ProviderEventType(msg.Event) {
	case entity.EventAccountsChanged:
		var accounts []string
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &accounts); err != nil {
				b.logger.Warn("Dropping accountsChanged event with bad payload", zap.Error(err))
				return entity.ProviderEvent{}, false
			}
		}
		return entity.ProviderEvent{Type: entity.EventAccountsChanged, Accounts: b.validAccounts(accounts)}, true
	case entity.EventChainChanged:
		var chainID string
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &chainID); err != nil {
				b.logger.Warn("Dropping chainChanged event with bad payload", zap.Error(err))
				return entity.ProviderEvent{}, false
			}
		}
		return entity.ProviderEvent{Type: entity.EventChainChanged, ChainID: chainID}, true
	default:
		b.logger.Debug("Ignoring provider event", zap.String("event", msg.Event))
		return entity.ProviderEvent{}, false
	}
}
