package collections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/internal/metadata"
	"github.com/JaimeStill/reelsync/internal/uploads"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/keylock"
	"github.com/JaimeStill/reelsync/pkg/metrics"
	"github.com/JaimeStill/reelsync/pkg/registry"
)

// LinkStore persists collection links against uploads. uploads.System
// satisfies it.
type LinkStore interface {
	SaveLink(ctx context.Context, uploadID uuid.UUID, link uploads.CollectionLink) (*uploads.CollectionLink, error)
	TouchLink(ctx context.Context, uploadID uuid.UUID, showCode, episodeNumber, remoteID string, at time.Time) (*uploads.CollectionLink, error)
}

// Reconciler finds or creates the brand, season, and episode collections
// for an episode. Each episode is reconciled by one caller at a time, and
// brand and season lookups are serialized with their creation so concurrent
// episodes share a single parent collection.
type Reconciler struct {
	registry registry.API
	links    LinkStore
	locks    keylock.Locker
	events   events.Publisher
	rootID   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a Reconciler rooted at rootID. An empty rootID
// searches and creates brands at the top of the registry.
func NewReconciler(
	api registry.API,
	links LinkStore,
	locks keylock.Locker,
	publisher events.Publisher,
	rootID string,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		registry: api,
		links:    links,
		locks:    locks,
		events:   publisher,
		rootID:   rootID,
		logger:   logger.With("system", "collections"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// createRun carries state between create steps.
type createRun struct {
	uploadID uuid.UUID
	target   target
	brand    *registry.Collection
	season   *registry.Collection
	episode  *registry.Collection
	link     *uploads.CollectionLink
}

type transition func(ctx context.Context, run *createRun) (Step, error)

// Create runs the create flow for the episode described by m and links the
// new episode collection to the upload.
func (r *Reconciler) Create(ctx context.Context, uploadID uuid.UUID, m metadata.Metadata) (*Result, error) {
	t, err := gate(m)
	if err != nil {
		r.observe("create", err)
		return nil, err
	}

	release, err := r.acquire(ctx, "episode:"+t.externalID())
	if err != nil {
		r.observe("create", err)
		return nil, err
	}
	defer release()

	run := &createRun{uploadID: uploadID, target: t}
	transitions := map[Step]transition{
		StepSearchExists:   r.searchExists,
		StepEnsureBrand:    r.ensureBrand,
		StepEnsureSeason:   r.ensureSeason,
		StepCreateEpisode:  r.createEpisode,
		StepAttachMetadata: r.attachMetadata,
		StepPersist:        r.persist,
	}

	for step := StepSearchExists; step != StepDone; {
		r.logger.Debug("reconcile step", "step", step, "external_id", t.externalID())

		next, err := transitions[step](ctx, run)
		if err != nil {
			err = &StepError{Step: step, Err: err}
			r.observe("create", err)
			r.logger.Warn("create failed", "step", step, "external_id", t.externalID(), "error", err)
			return nil, err
		}
		step = next
	}

	result := &Result{
		ShowCode:      t.ShowCode,
		EpisodeNumber: t.EpisodeNumber,
		DatabaseID:    uploadID,
		RemoteID:      run.episode.ID,
		Status:        StatusCreated,
	}

	r.observe("create", nil)
	r.publish(ctx, events.CollectionCreated, result)
	r.logger.Info(
		"collection created",
		"external_id", t.externalID(),
		"remote_id", result.RemoteID,
		"upload_id", uploadID,
	)
	return result, nil
}

// Update refreshes the description of an existing episode collection and
// the last updated time of its link.
func (r *Reconciler) Update(ctx context.Context, uploadID uuid.UUID, m metadata.Metadata) (*Result, error) {
	result, err := r.update(ctx, uploadID, m)
	r.observe("update", err)
	if err != nil {
		return nil, err
	}

	r.publish(ctx, events.CollectionUpdated, result)
	r.logger.Info(
		"collection updated",
		"external_id", EpisodeExternalID(result.ShowCode, result.EpisodeNumber),
		"remote_id", result.RemoteID,
		"upload_id", uploadID,
	)
	return result, nil
}

func (r *Reconciler) update(ctx context.Context, uploadID uuid.UUID, m metadata.Metadata) (*Result, error) {
	t, err := gate(m)
	if err != nil {
		return nil, err
	}

	release, err := r.acquire(ctx, "episode:"+t.externalID())
	if err != nil {
		return nil, err
	}
	defer release()

	episode, err := r.registry.FindCollectionByAncestor(ctx, r.rootID, t.externalID())
	if err != nil {
		return nil, external("registry", err)
	}
	if episode == nil {
		return nil, fmt.Errorf("%w: %s", ErrDoesNotExist, t.externalID())
	}

	if err := r.registry.SetDescription(ctx, episode.ID, t.EpisodeName); err != nil {
		return nil, external("registry", err)
	}

	link, err := r.links.TouchLink(ctx, uploadID, t.ShowCode, t.EpisodeNumber, episode.ID, r.now())
	if err != nil {
		return nil, storeError(err)
	}

	return &Result{
		ShowCode:      t.ShowCode,
		EpisodeNumber: t.EpisodeNumber,
		DatabaseID:    uploadID,
		RemoteID:      link.RemoteID,
		Status:        StatusUpdated,
	}, nil
}

// Exists reports whether an active episode collection exists under the root.
func (r *Reconciler) Exists(ctx context.Context, showCode, episodeNumber string) (bool, error) {
	col, err := r.Get(ctx, showCode, episodeNumber)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return col != nil, err
}

// Get returns the active episode collection under the root.
func (r *Reconciler) Get(ctx context.Context, showCode, episodeNumber string) (*registry.Collection, error) {
	externalID := EpisodeExternalID(showCode, episodeNumber)

	col, err := r.registry.FindCollectionByAncestor(ctx, r.rootID, externalID)
	if err != nil {
		return nil, external("registry", err)
	}
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, externalID)
	}
	return col, nil
}

func (r *Reconciler) searchExists(ctx context.Context, run *createRun) (Step, error) {
	found, err := r.registry.FindCollectionByAncestor(ctx, r.rootID, run.target.externalID())
	if err != nil {
		return 0, external("registry", err)
	}
	if found != nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrAlreadyExists, run.target.externalID(), found.ID)
	}
	return StepEnsureBrand, nil
}

func (r *Reconciler) ensureBrand(ctx context.Context, run *createRun) (Step, error) {
	brand, err := r.findOrCreate(ctx, "brand", r.rootID, run.target.BrandCode, run.target.SeriesName)
	if err != nil {
		return 0, err
	}
	run.brand = brand
	return StepEnsureSeason, nil
}

func (r *Reconciler) ensureSeason(ctx context.Context, run *createRun) (Step, error) {
	season, err := r.findOrCreate(ctx, "season", run.brand.ID, run.target.ShowCode, run.target.SeasonName)
	if err != nil {
		return 0, err
	}
	run.season = season
	return StepCreateEpisode, nil
}

func (r *Reconciler) createEpisode(ctx context.Context, run *createRun) (Step, error) {
	t := run.target

	episode, err := r.registry.CreateCollection(ctx, run.season.ID, t.externalID(), t.EpisodeNumber)
	if errors.Is(err, registry.ErrDuplicate) {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyExists, t.externalID())
	}
	if err != nil {
		return 0, external("registry", err)
	}

	metrics.CollectionsCreated.WithLabelValues("episode").Inc()
	run.episode = episode
	return StepAttachMetadata, nil
}

func (r *Reconciler) attachMetadata(ctx context.Context, run *createRun) (Step, error) {
	if err := r.registry.SetDescription(ctx, run.episode.ID, run.target.EpisodeName); err != nil {
		return 0, external("registry", err)
	}
	return StepPersist, nil
}

func (r *Reconciler) persist(ctx context.Context, run *createRun) (Step, error) {
	link, err := r.links.SaveLink(ctx, run.uploadID, uploads.CollectionLink{
		ShowCode:      run.target.ShowCode,
		EpisodeNumber: run.target.EpisodeNumber,
		RemoteID:      run.episode.ID,
		CreatedDate:   r.now(),
	})
	if err != nil {
		return 0, storeError(err)
	}
	run.link = link
	return StepDone, nil
}

// findOrCreate resolves the collection with externalID directly under
// parentID, creating it with title when absent. The search and create run
// under a lock on the level, parent, and external id.
func (r *Reconciler) findOrCreate(ctx context.Context, level, parentID, externalID, title string) (*registry.Collection, error) {
	release, err := r.acquire(ctx, level+":"+parentID+":"+externalID)
	if err != nil {
		return nil, err
	}
	defer release()

	found, err := r.findChild(ctx, parentID, externalID)
	if err != nil {
		return nil, external("registry", err)
	}
	if found != nil {
		r.logger.Debug("collection reused", "level", level, "external_id", externalID, "id", found.ID)
		return found, nil
	}

	created, err := r.registry.CreateCollection(ctx, parentID, externalID, title)
	if errors.Is(err, registry.ErrDuplicate) {
		// Created by a process outside this lock's reach since the search.
		found, err = r.findChild(ctx, parentID, externalID)
		if err == nil && found != nil {
			return found, nil
		}
		if err == nil {
			err = fmt.Errorf("%s %s reported duplicate but cannot be found", level, externalID)
		}
	}
	if err != nil {
		return nil, external("registry", err)
	}

	metrics.CollectionsCreated.WithLabelValues(level).Inc()
	r.logger.Info("collection created", "level", level, "external_id", externalID, "id", created.ID)
	return created, nil
}

// findChild returns the collection under parentID whose external id is
// exactly externalID. Prefix matches from the registry are discarded.
func (r *Reconciler) findChild(ctx context.Context, parentID, externalID string) (*registry.Collection, error) {
	found, err := r.registry.FindCollection(ctx, parentID, externalID)
	if err != nil || found == nil {
		return nil, err
	}
	if found.ExternalID != externalID {
		r.logger.Debug("prefix match ignored", "external_id", externalID, "matched", found.ExternalID, "id", found.ID)
		return nil, nil
	}
	return found, nil
}

func (r *Reconciler) acquire(ctx context.Context, key string) (func(), error) {
	release, err := r.locks.Acquire(ctx, key)
	switch {
	case errors.Is(err, keylock.ErrTimeout):
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		return nil, external("lock backend", err)
	}
	return release, nil
}

func (r *Reconciler) publish(ctx context.Context, eventType string, res *Result) {
	r.events.Publish(ctx, events.Event{
		Type:          eventType,
		ShowCode:      res.ShowCode,
		EpisodeNumber: res.EpisodeNumber,
		DatabaseID:    res.DatabaseID.String(),
		RemoteID:      res.RemoteID,
		OccurredAt:    r.now(),
	})
}

func (r *Reconciler) observe(op string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyExists):
		outcome = "conflict"
	case MapHTTPStatus(err) < 500:
		outcome = "rejected"
	default:
		outcome = "error"
	}
	metrics.ReconcileOutcomes.WithLabelValues(op, outcome).Inc()
}

func storeError(err error) error {
	if errors.Is(err, uploads.ErrNotFound) || errors.Is(err, uploads.ErrLinkNotFound) {
		return err
	}
	return external("upload store", err)
}
