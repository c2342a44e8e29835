package uploads

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/pkg/pagination"
)

// System defines the public contract for upload record operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Summary], error)
	Find(ctx context.Context, id uuid.UUID) (*Upload, error)
	Create(ctx context.Context, cmd CreateCommand) (*Upload, error)

	// FindEpisode returns the first episode row in file order matching the
	// show code and episode number within one upload. It returns ErrNotFound
	// for an unknown upload and a nil row when the upload has no such episode.
	FindEpisode(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*EpisodeRow, error)
	// FindTitle searches every upload for a title row with the show code.
	// The most recently uploaded record wins, then file order. Nil when absent.
	FindTitle(ctx context.Context, showCode string) (*TitleRow, error)
	// FindParentBrandPackage searches every upload for the parent brand package
	// row with the show code, using the same tie-break as FindTitle.
	FindParentBrandPackage(ctx context.Context, showCode string) (*PackageRow, error)

	// SaveLink records the registry collection created for an episode. An
	// existing link for the same episode has its remote id and created date
	// replaced in place.
	SaveLink(ctx context.Context, uploadID uuid.UUID, link CollectionLink) (*CollectionLink, error)
	// TouchLink refreshes the remote id and last updated time of an existing
	// link. A missing link returns ErrLinkNotFound.
	TouchLink(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber, remoteID string, at time.Time) (*CollectionLink, error)
}
