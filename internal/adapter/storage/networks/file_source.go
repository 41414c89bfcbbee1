package networks

import (
	"context"
	"errors"
	"fmt"
	"os"

	dto "educhain-wallet/internal/adapter/storage/networks/dto"
	"educhain-wallet/internal/domain/entity"
	domainRepo "educhain-wallet/internal/domain/repository"
	"educhain-wallet/internal/pkg/apperrors"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Compile-time check
var _ domainRepo.NetworkSource = (*FileSource)(nil)

// FileSource reads network descriptors from a YAML file with a top-level networks list.
type FileSource struct {
	path   string
	logger *zap.Logger
}

func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger.Named("NetworkFileSource"),
	}
}

// GetNetworks reads and maps the file on every call.
func (s *FileSource) GetNetworks(_ context.Context) ([]entity.NetworkDescriptor, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: networks file %s", apperrors.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read networks file %s: %w", s.path, err)
	}

	var file dto.NetworkFileRaw
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("%w: parse networks file %s: %v", apperrors.ErrInvalidInput, s.path, err)
	}

	descriptors := make([]entity.NetworkDescriptor, 0, len(file.Networks))
	for _, raw := range file.Networks {
		descriptors = append(descriptors, fileNetworkToDescriptor(raw, s.logger))
	}

	s.logger.Info("Read networks file", zap.String("path", s.path), zap.Int("count", len(descriptors)))
	return descriptors, nil
}
