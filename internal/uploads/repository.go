package uploads

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/pkg/metrics"
	"github.com/JaimeStill/reelsync/pkg/pagination"
	"github.com/JaimeStill/reelsync/pkg/repository"
	"github.com/JaimeStill/reelsync/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an upload repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "uploads"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	var total int
	err := r.db.QueryRowContext(
		ctx,
		"SELECT count(*) FROM uploads WHERE $1::text IS NULL OR filename ILIKE '%' || $1 || '%'",
		page.Search,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count uploads: %w", err)
	}

	q := `
		SELECT u.id, u.filename, u.upload_date, u.status,
			COALESCE(jsonb_array_length(u.parsed_data->'Packages'), 0),
			COALESCE(jsonb_array_length(u.parsed_data->'Title'), 0),
			COALESCE(jsonb_array_length(u.parsed_data->'EpisodeData'), 0),
			(SELECT count(*) FROM collection_links l WHERE l.upload_id = u.id),
			u.last_updated
		FROM uploads u
		WHERE $1::text IS NULL OR u.filename ILIKE '%' || $1 || '%'
		ORDER BY u.upload_date DESC, u.id
		LIMIT $2 OFFSET $3`

	items, err := repository.QueryMany(ctx, r.db, q, []any{page.Search, page.PageSize, page.Offset()}, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Upload, error) {
	q := `
		SELECT id, filename, upload_date, file_properties, parsed_data, status, storage_key, last_updated, version
		FROM uploads WHERE id = $1`

	u, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanUpload)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	links, err := repository.QueryMany(
		ctx, r.db,
		"SELECT "+linkColumns+" FROM collection_links WHERE upload_id = $1 ORDER BY created_date, id",
		[]any{id},
		scanLink,
	)
	if err != nil {
		return nil, fmt.Errorf("query collection links: %w", err)
	}
	u.CollectionLinks = links

	return &u, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Upload, error) {
	parsed, props, err := Inspect(cmd)
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if !props.IsValid {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, &InvalidError{Properties: props}
	}

	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode file properties: %w", err)
	}
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode parsed data: %w", err)
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), props.Type); err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("archive upload blob: %w", err)
	}

	q := `
		INSERT INTO uploads(id, filename, file_properties, parsed_data, status, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, upload_date, file_properties, parsed_data, status, storage_key, last_updated, version`

	args := []any{id, cmd.Filename, propsJSON, parsedJSON, StatusUploaded, key}

	u, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Upload, error) {
		return repository.QueryOne(ctx, tx, q, args, scanUpload)
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		metrics.Uploads.WithLabelValues("failed").Inc()
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	u.CollectionLinks = []CollectionLink{}
	metrics.Uploads.WithLabelValues("stored").Inc()
	r.logger.Info(
		"upload stored",
		"id", u.ID,
		"filename", u.Filename,
		"packages", props.Properties.Packages,
		"titles", props.Properties.Titles,
		"episodes", props.Properties.Episodes,
	)
	return &u, nil
}

func (r *repo) FindEpisode(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber string) (*EpisodeRow, error) {
	q := `
		SELECT e.value->>'TICODE', e.value->>'EPISODENO', e.value->>'EPISODENAME'
		FROM uploads u
		LEFT JOIN LATERAL (
			SELECT x.value
			FROM jsonb_array_elements(COALESCE(u.parsed_data->'EpisodeData', '[]'::jsonb)) WITH ORDINALITY AS x(value, pos)
			WHERE x.value->>'TICODE' = $2 AND x.value->>'EPISODENO' = $3
			ORDER BY x.pos
			LIMIT 1
		) e ON true
		WHERE u.id = $1`

	var tiCode, episodeNo, episodeName sql.NullString
	err := r.db.QueryRowContext(ctx, q, uploadID, showCode, episodeNumber).Scan(&tiCode, &episodeNo, &episodeName)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	if !tiCode.Valid {
		return nil, nil
	}

	return &EpisodeRow{
		TiCode:      tiCode.String,
		EpisodeNo:   episodeNo.String,
		EpisodeName: episodeName.String,
	}, nil
}

func (r *repo) FindTitle(ctx context.Context, showCode string) (*TitleRow, error) {
	q := `
		SELECT t.value->>'TICODE', t.value->>'SeriesTitle'
		FROM uploads u
		CROSS JOIN LATERAL jsonb_array_elements(u.parsed_data->'Title') WITH ORDINALITY AS t(value, pos)
		WHERE u.parsed_data @> jsonb_build_object('Title', jsonb_build_array(jsonb_build_object('TICODE', $1::text)))
			AND t.value->>'TICODE' = $1
		ORDER BY u.upload_date DESC, u.id, t.pos
		LIMIT 1`

	row, ok, err := repository.QueryOptional(ctx, r.db, q, []any{showCode}, scanTitle)
	if err != nil {
		return nil, fmt.Errorf("query title for %s: %w", showCode, err)
	}
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) FindParentBrandPackage(ctx context.Context, showCode string) (*PackageRow, error) {
	q := `
		SELECT p.value->>'TiCode', p.value->>'BrandTiCode', p.value->>'DisplayName', COALESCE(p.value->>'Phase', '')
		FROM uploads u
		CROSS JOIN LATERAL jsonb_array_elements(u.parsed_data->'Packages') WITH ORDINALITY AS p(value, pos)
		WHERE u.parsed_data @> jsonb_build_object('Packages', jsonb_build_array(jsonb_build_object('TiCode', $1::text, 'Phase', $2::text)))
			AND p.value->>'TiCode' = $1
			AND p.value->>'Phase' = $2
		ORDER BY u.upload_date DESC, u.id, p.pos
		LIMIT 1`

	row, ok, err := repository.QueryOptional(ctx, r.db, q, []any{showCode, ParentBrandPhase}, scanPackage)
	if err != nil {
		return nil, fmt.Errorf("query parent brand package for %s: %w", showCode, err)
	}
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) SaveLink(ctx context.Context, uploadID uuid.UUID, link CollectionLink) (*CollectionLink, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}

	q := `
		INSERT INTO collection_links(id, upload_id, show_code, episode_number, remote_id, created_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (upload_id, show_code, episode_number)
		DO UPDATE SET remote_id = EXCLUDED.remote_id, created_date = EXCLUDED.created_date
		RETURNING ` + linkColumns

	args := []any{link.ID, uploadID, link.ShowCode, link.EpisodeNumber, link.RemoteID, link.CreatedDate}

	saved, err := r.withLinkedUpload(ctx, uploadID, link.CreatedDate, func(tx *sql.Tx) (CollectionLink, error) {
		return repository.QueryOne(ctx, tx, q, args, scanLink)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"collection link saved",
		"upload_id", uploadID,
		"show_code", saved.ShowCode,
		"episode_number", saved.EpisodeNumber,
		"remote_id", saved.RemoteID,
	)
	return &saved, nil
}

func (r *repo) TouchLink(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber, remoteID string, at time.Time) (*CollectionLink, error) {
	q := `
		UPDATE collection_links SET remote_id = $4, last_updated = $5
		WHERE upload_id = $1 AND show_code = $2 AND episode_number = $3
		RETURNING ` + linkColumns

	args := []any{uploadID, showCode, episodeNumber, remoteID, at}

	touched, err := r.withLinkedUpload(ctx, uploadID, at, func(tx *sql.Tx) (CollectionLink, error) {
		l, err := repository.QueryOne(ctx, tx, q, args, scanLink)
		return l, repository.MapError(err, ErrLinkNotFound, ErrDuplicate)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"collection link updated",
		"upload_id", uploadID,
		"show_code", showCode,
		"episode_number", episodeNumber,
		"remote_id", remoteID,
	)
	return &touched, nil
}

// withLinkedUpload runs fn in a transaction that holds the upload row lock
// and advances the upload version with compare-and-swap semantics, stamping
// last_updated with at.
func (r *repo) withLinkedUpload(
	ctx context.Context,
	uploadID uuid.UUID,
	at time.Time,
	fn func(tx *sql.Tx) (CollectionLink, error),
) (CollectionLink, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (CollectionLink, error) {
		var version int
		err := tx.QueryRowContext(ctx, "SELECT version FROM uploads WHERE id = $1 FOR UPDATE", uploadID).Scan(&version)
		if err != nil {
			return CollectionLink{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		link, err := fn(tx)
		if err != nil {
			return CollectionLink{}, err
		}

		err = repository.ExecExpectOne(
			ctx, tx,
			"UPDATE uploads SET version = $2 + 1, last_updated = $3 WHERE id = $1 AND version = $2",
			uploadID, version, at,
		)
		if err != nil {
			return CollectionLink{}, repository.MapError(err, ErrVersionConflict, ErrDuplicate)
		}

		return link, nil
	})
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "upload.json"
	}
	return url.PathEscape(name)
}
