package networks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	dto "educhain-wallet/internal/adapter/storage/networks/dto"
	"educhain-wallet/internal/config"
	"educhain-wallet/internal/domain/entity"
	domainRepo "educhain-wallet/internal/domain/repository"
	"educhain-wallet/internal/pkg/apperrors"

	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.NetworkSource = (*ChainlistSource)(nil)

// ChainlistSource imports descriptors for selected chain ids from a Chainlist-format JSON feed.
type ChainlistSource struct {
	client   *fasthttp.Client
	url      string
	chainIDs []string
	logger   *zap.Logger
}

// NewChainlistSource creates a source importing cfg.ImportChainIDs from cfg.ChainlistURL.
func NewChainlistSource(cfg config.NetworksConfig, logger *zap.Logger) *ChainlistSource {
	return &ChainlistSource{
		client: &fasthttp.Client{},
		url:    cfg.ChainlistURL,
		chainIDs: lo.Uniq(lo.FilterMap(cfg.ImportChainIDs, func(id string, _ int) (string, bool) {
			normalized := entity.NormalizeChainID(id)
			return normalized, normalized != ""
		})),
		logger: logger.Named("ChainlistSource"),
	}
}

// GetNetworks fetches the feed and returns the descriptors of the configured chain ids.
// Configured ids that the feed does not list are logged and skipped.
func (s *ChainlistSource) GetNetworks(ctx context.Context) ([]entity.NetworkDescriptor, error) {
	if len(s.chainIDs) == 0 {
		return nil, nil
	}

	rawChains, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	byChain := make(map[string]dto.ChainRaw, len(rawChains))
	for _, raw := range rawChains {
		if raw.ChainID <= 0 {
			continue
		}
		byChain[entity.NormalizeChainID(fmt.Sprint(raw.ChainID))] = raw
	}

	descriptors := make([]entity.NetworkDescriptor, 0, len(s.chainIDs))
	for _, id := range s.chainIDs {
		raw, ok := byChain[id]
		if !ok {
			s.logger.Warn("Chain not listed by Chainlist source", zap.String("chainId", id))
			continue
		}
		descriptors = append(descriptors, chainToDescriptor(raw, s.logger))
	}

	s.logger.Info("Imported networks from Chainlist", zap.Int("count", len(descriptors)))
	return descriptors, nil
}

func (s *ChainlistSource) fetch(ctx context.Context) ([]dto.ChainRaw, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")

	timeout := 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if requestTimeout := time.Until(deadline); requestTimeout > 0 && requestTimeout < timeout {
			timeout = requestTimeout
		}
	}

	s.logger.Debug("Fetching chains from Chainlist", zap.String("url", s.url), zap.Duration("timeout", timeout))

	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		s.logger.Error("Failed to execute request to Chainlist", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to execute request to Chainlist: %v",
			apperrors.ErrExternalServiceFailure, err,
		)
	}

	if resp.StatusCode() == fasthttp.StatusNotFound {
		s.logger.Warn("Chainlist source reported not found", zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("%w: chainlist source reported not found (%s)", apperrors.ErrNotFound, s.url)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		s.logger.Error("Chainlist returned non-OK status",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("body", resp.Body()))
		return nil, fmt.Errorf("%w: chainlist returned status %d",
			apperrors.ErrExternalServiceFailure, resp.StatusCode(),
		)
	}

	body := resp.Body()
	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		s.logger.Debug("Received gzipped response from Chainlist")
		unzipped, err := resp.BodyGunzip()
		if err != nil {
			s.logger.Error("Failed to gunzip Chainlist response body", zap.Error(err))
			return nil, fmt.Errorf("%w: failed to decompress chainlist response: %v",
				apperrors.ErrExternalServiceFailure, err,
			)
		}
		body = unzipped
	}

	var rawChains []dto.ChainRaw
	if err := json.Unmarshal(body, &rawChains); err != nil {
		s.logger.Error("Failed to unmarshal Chainlist response into raw DTOs",
			zap.Error(err), zap.ByteString("bodySample", body[:min(1024, len(body))]))
		return nil, fmt.Errorf("%w: failed to parse chainlist response into raw DTOs: %v",
			apperrors.ErrExternalServiceFailure, err,
		)
	}
	return rawChains, nil
}
