// Package metadata projects the flattened episode view consumed by the
// collection reconciler from rows stored across every upload.
package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/reelsync/internal/uploads"
)

// ErrEpisodeNotFound indicates the upload holds no episode row for the
// requested show code and episode number.
var ErrEpisodeNotFound = errors.New("episode not found in upload")

// Source is the read capability the projector needs from the upload store.
// uploads.System satisfies it.
type Source interface {
	FindEpisode(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*uploads.EpisodeRow, error)
	FindTitle(ctx context.Context, showCode string) (*uploads.TitleRow, error)
	FindParentBrandPackage(ctx context.Context, showCode string) (*uploads.PackageRow, error)
}

// Metadata is the joined view of one episode. Optional fields are nil when
// the title or package rows for the show were never uploaded.
type Metadata struct {
	ShowCode      string  `json:"showCode"`
	EpisodeNumber string  `json:"episodeNumber"`
	EpisodeName   *string `json:"episodeName,omitempty"`
	SeasonName    *string `json:"seasonName,omitempty"`
	SeriesName    *string `json:"seriesName,omitempty"`
	BrandCode     *string `json:"brandCode,omitempty"`
}

// Project locates the episode within the upload and joins its season name
// from title rows and its series name and brand code from the parent brand
// package row. Only a missing upload or episode is an error.
func Project(ctx context.Context, src Source, uploadID uuid.UUID, showCode, episodeNumber string) (*Metadata, error) {
	episode, err := src.FindEpisode(ctx, uploadID, showCode, episodeNumber)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, fmt.Errorf("%w: %s/%s in upload %s", ErrEpisodeNotFound, showCode, episodeNumber, uploadID)
	}

	var (
		title *uploads.TitleRow
		pkg   *uploads.PackageRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		title, err = src.FindTitle(gctx, showCode)
		return err
	})
	g.Go(func() error {
		var err error
		pkg, err = src.FindParentBrandPackage(gctx, showCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Metadata{
		ShowCode:      episode.TiCode,
		EpisodeNumber: episode.EpisodeNo,
		EpisodeName:   optional(episode.EpisodeName),
	}
	if title != nil {
		m.SeasonName = optional(title.SeriesTitle)
	}
	if pkg != nil {
		m.SeriesName = optional(pkg.DisplayName)
		m.BrandCode = optional(pkg.BrandTiCode)
	}

	return m, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
