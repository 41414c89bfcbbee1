package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"educhain-wallet/internal/domain/entity"
	domainService "educhain-wallet/internal/domain/service"
	"educhain-wallet/internal/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCChecker = (*Checker)(nil)

// Checker implements the domainService.RPCChecker interface.
type Checker struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewChecker creates a new RPC checker instance.
func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{
		client: &fasthttp.Client{
			ReadTimeout: 10 * time.Second,
		},
		logger: logger.Named("RPCCheckerAdapter"),
	}
}

// checkPayload asks the node which chain it serves.
var checkPayload = []byte(`{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`)

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

// CheckRPC sends eth_chainId over the transport of rpcURL.
// chainID is the normalized chain id the endpoint reported.
func (c *Checker) CheckRPC(
	ctx context.Context,
	rpcURL entity.RPCURL,
) (isWorking bool, latency time.Duration, chainID string, err error) {
	startTime := time.Now()
	rawURL := rpcURL.String()

	var body []byte
	switch rpcURL.Protocol() {
	case entity.ProtocolWS, entity.ProtocolWSS:
		body, err = c.checkWSS(ctx, rawURL)
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		body, err = c.checkHTTP(ctx, rawURL)
	default:
		c.logger.Warn("Skipping check for unsupported protocol in validated RPCURL", zap.String("url", rawURL))
		return false, 0, "", fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rawURL)
	}
	latency = time.Since(startTime)
	if err != nil {
		return false, latency, "", err
	}

	chainID, err = c.validateJSONRPCResponse(rawURL, body)
	if err != nil {
		return false, latency, "", err
	}
	return true, latency, chainID, nil
}

// checkHTTP performs the JSON-RPC check over HTTP/HTTPS.
func (c *Checker) checkHTTP(ctx context.Context, rpcURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(checkPayload)

	timeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if requestTimeout := time.Until(deadline); requestTimeout > 0 && (timeout <= 0 || requestTimeout < timeout) {
			timeout = requestTimeout
		}
	}

	var requestErr error
	if timeout <= 0 {
		requestErr = c.client.Do(req, resp)
	} else {
		requestErr = c.client.DoTimeout(req, resp, timeout)
	}

	if requestErr != nil {
		if errors.Is(requestErr, fasthttp.ErrTimeout) {
			c.logger.Debug("HTTP RPC check timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(requestErr))
			return nil, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, requestErr,
			)
		}
		c.logger.Debug("HTTP RPC check request failed", zap.String("url", rpcURL), zap.Error(requestErr))
		return nil, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, requestErr,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("HTTP RPC check returned non-OK status",
			zap.String("url", rpcURL), zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	return append([]byte(nil), resp.Body()...), nil
}

// checkWSS performs the JSON-RPC check over WSS/WS.
func (c *Checker) checkWSS(ctx context.Context, rpcURL string) ([]byte, error) {
	handshakeTimeout := c.client.ReadTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		c.logger.Debug("WSS dial failed", zap.String("url", rpcURL), zap.Error(err))
		return nil, wsError(ctx, "dial to", rpcURL, err)
	}
	defer conn.Close()

	operationTimeout := handshakeTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < operationTimeout {
		operationTimeout = time.Until(deadline)
	}
	if operationTimeout <= 0 {
		operationTimeout = 2 * time.Second
	}

	_ = conn.SetWriteDeadline(time.Now().Add(operationTimeout))
	_ = conn.SetReadDeadline(time.Now().Add(operationTimeout))

	if wErr := conn.WriteMessage(websocket.TextMessage, checkPayload); wErr != nil {
		c.logger.Debug("WSS write message failed", zap.String("url", rpcURL), zap.Error(wErr))
		return nil, fmt.Errorf("%w: wss write to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, wErr,
		)
	}

	_, message, rErr := conn.ReadMessage()
	if rErr != nil {
		c.logger.Debug("WSS read message failed", zap.String("url", rpcURL), zap.Error(rErr))
		return nil, wsError(ctx, "read from", rpcURL, rErr)
	}

	c.logger.Debug("WSS received response", zap.String("url", rpcURL), zap.ByteString("body", message))
	return message, nil
}

func wsError(ctx context.Context, op, rpcURL string, err error) error {
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		return fmt.Errorf("%w: wss %s %s timed out: %v", apperrors.ErrTimeout, op, rpcURL, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: wss %s %s timed out: %v", apperrors.ErrTimeout, op, rpcURL, err)
	}
	return fmt.Errorf("%w: wss %s %s failed: %v", apperrors.ErrExternalServiceFailure, op, rpcURL, err)
}

// validateJSONRPCResponse checks the body is a successful eth_chainId answer and returns the chain id.
func (c *Checker) validateJSONRPCResponse(rpcURL string, body []byte) (string, error) {
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("RPC check failed to unmarshal JSON response",
			zap.String("url", rpcURL), zap.ByteString("body", body), zap.Error(err))
		return "", fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC check returned JSON-RPC error",
			zap.String("url", rpcURL),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message))
		return "", fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, rpcResp.Error.Code, rpcResp.Error.Message,
		)
	}

	var reported string
	if rpcResp.Jsonrpc != "2.0" || rpcResp.Result == nil || json.Unmarshal(rpcResp.Result, &reported) != nil {
		c.logger.Debug("RPC check returned invalid JSON-RPC structure",
			zap.String("url", rpcURL), zap.ByteString("body", body))
		return "", fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL,
		)
	}

	chainID := entity.NormalizeChainID(reported)
	if chainID == "" {
		return "", fmt.Errorf("%w: rpc %s reported invalid chain id %q",
			apperrors.ErrExternalServiceFailure, rpcURL, reported,
		)
	}
	return chainID, nil
}
