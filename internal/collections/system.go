package collections

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/internal/metadata"
	"github.com/JaimeStill/reelsync/pkg/registry"
)

// System defines the public contract for collection sync operations.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*Result, error)
	Update(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*Result, error)
	Get(ctx context.Context, showCode, episodeNumber string) (*registry.Collection, error)
	Exists(ctx context.Context, showCode, episodeNumber string) (bool, error)
}

type service struct {
	source     metadata.Source
	reconciler *Reconciler
	logger     *slog.Logger
}

// New creates a System that projects episode metadata from source and
// reconciles it with the registry.
func New(source metadata.Source, reconciler *Reconciler, logger *slog.Logger) System {
	return &service{
		source:     source,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Create(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*Result, error) {
	m, err := s.project(ctx, uploadID, showCode, episodeNumber)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Create(ctx, uploadID, *m)
}

func (s *service) Update(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*Result, error) {
	m, err := s.project(ctx, uploadID, showCode, episodeNumber)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Update(ctx, uploadID, *m)
}

func (s *service) Get(ctx context.Context, showCode, episodeNumber string) (*registry.Collection, error) {
	return s.reconciler.Get(ctx, showCode, episodeNumber)
}

func (s *service) Exists(ctx context.Context, showCode, episodeNumber string) (bool, error) {
	return s.reconciler.Exists(ctx, showCode, episodeNumber)
}

func (s *service) project(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*metadata.Metadata, error) {
	m, err := metadata.Project(ctx, s.source, uploadID, showCode, episodeNumber)
	if err != nil && !errors.Is(err, metadata.ErrEpisodeNotFound) {
		return nil, storeError(err)
	}
	return m, err
}
