package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"educhain-wallet/internal/pkg/apperrors"
)

const (
	methodAccounts        = "eth_accounts"
	methodRequestAccounts = "eth_requestAccounts"
	methodChainID         = "eth_chainId"
	methodGetBalance      = "eth_getBalance"
	methodSwitchChain     = "wallet_switchEthereumChain"
	methodAddChain        = "wallet_addEthereumChain"
)

type jsonRPCRequest struct {
	ID      string        `json:"id"`
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// JSONRPCResponse defines the basic structure for a JSON-RPC response.
type JSONRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure for a JSON-RPC error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type httpResult struct {
	status int
	body   []byte
	err    error
}

// call performs one JSON-RPC request and decodes its result into out (which may be nil).
// timeout bounds the HTTP exchange; zero means it is bounded only by ctx.
func (b *Bridge) call(ctx context.Context, method string, timeout time.Duration, out interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(jsonRPCRequest{
		ID:      uuid.NewString(),
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s request: %v", apperrors.ErrInvalidInput, method, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		untilDeadline := time.Until(deadline)
		if untilDeadline <= 0 {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrTimeout, method, ctx.Err())
		}
		if timeout <= 0 || untilDeadline < timeout {
			timeout = untilDeadline
		}
	}

	// The exchange goroutine owns req and resp. A cancelled caller stops waiting on it.
	resultCh := make(chan httpResult, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(b.url)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(payload)

		var doErr error
		if timeout > 0 {
			doErr = b.client.DoTimeout(req, resp, timeout)
		} else {
			doErr = b.client.Do(req, resp)
		}
		res := httpResult{status: resp.StatusCode(), err: doErr}
		if doErr == nil {
			res.body = append([]byte(nil), resp.Body()...)
		}
		resultCh <- res
	}()

	var res httpResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		b.logger.Debug("Provider request abandoned", zap.String("method", method), zap.Error(ctx.Err()))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrTimeout, method, ctx.Err())
		}
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}

	if res.err != nil {
		if errors.Is(res.err, fasthttp.ErrTimeout) {
			b.logger.Debug("Provider request timed out", zap.String("method", method), zap.Duration("timeout", timeout))
			return fmt.Errorf("%w: %s timed out after %v: %v", apperrors.ErrTimeout, method, timeout, res.err)
		}
		b.logger.Debug("Provider request failed", zap.String("method", method), zap.Error(res.err))
		return fmt.Errorf("%w: %s request failed: %v", apperrors.ErrExternalServiceFailure, method, res.err)
	}

	if res.status != fasthttp.StatusOK {
		b.logger.Debug("Provider returned non-OK status",
			zap.String("method", method), zap.Int("statusCode", res.status))
		return fmt.Errorf("%w: %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, method, res.status)
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(res.body, &rpcResp); err != nil {
		b.logger.Debug("Provider returned invalid JSON",
			zap.String("method", method), zap.ByteString("body", res.body), zap.Error(err))
		return fmt.Errorf("%w: %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, method, err)
	}

	if rpcResp.Error != nil {
		b.logger.Debug("Provider returned JSON-RPC error",
			zap.String("method", method),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message))
		return &ProviderError{Method: method, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	if rpcResp.Jsonrpc != "2.0" {
		return fmt.Errorf("%w: %s returned invalid JSON-RPC structure", apperrors.ErrExternalServiceFailure, method)
	}

	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 {
		return fmt.Errorf("%w: %s returned no result", apperrors.ErrExternalServiceFailure, method)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: %s returned unexpected result %s: %v",
			apperrors.ErrExternalServiceFailure, method, string(rpcResp.Result), err)
	}
	return nil
}
