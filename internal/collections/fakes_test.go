package collections_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/internal/collections"
	"github.com/JaimeStill/reelsync/internal/uploads"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/keylock"
	"github.com/JaimeStill/reelsync/pkg/registry"
)

const rootID = "root"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeRegistry is an in-memory collection hierarchy.
type fakeRegistry struct {
	mu          sync.Mutex
	seq         int
	collections map[string]*registry.Collection
	creates     map[string]int

	// createErr fails the next create of an external id once.
	createErr map[string]error
	// searchErr fails every search.
	searchErr error
	// descriptions counts SetDescription calls.
	descriptions int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		collections: map[string]*registry.Collection{},
		creates:     map[string]int{},
		createErr:   map[string]error{},
	}
}

// FindCollection matches the client: the parent must equal parentID, so an
// empty parentID matches only top-level collections, and an exact external
// id wins over the first prefix match.
func (f *fakeRegistry) FindCollection(_ context.Context, parentID, externalID string) (*registry.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.searchErr != nil {
		return nil, f.searchErr
	}

	var prefix *registry.Collection
	for _, c := range f.ordered() {
		if c.ParentID != parentID {
			continue
		}
		if c.ExternalID == externalID {
			found := *c
			return &found, nil
		}
		if prefix == nil && strings.HasPrefix(c.ExternalID, externalID) {
			prefix = c
		}
	}
	if prefix != nil {
		found := *prefix
		return &found, nil
	}
	return nil, nil
}

func (f *fakeRegistry) FindCollectionByAncestor(_ context.Context, ancestorID, externalID string) (*registry.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.searchErr != nil {
		return nil, f.searchErr
	}

	for _, c := range f.ordered() {
		if c.ExternalID == externalID && f.below(c, ancestorID) {
			found := *c
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) CreateCollection(_ context.Context, parentID, externalID, title string) (*registry.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.createErr[externalID]; ok {
		delete(f.createErr, externalID)
		return nil, err
	}

	f.seq++
	c := &registry.Collection{
		ID:         fmt.Sprintf("col-%03d", f.seq),
		Title:      title,
		ParentID:   parentID,
		ExternalID: externalID,
		Status:     registry.StatusActive,
	}
	f.collections[c.ID] = c
	f.creates[externalID]++

	created := *c
	return &created, nil
}

func (f *fakeRegistry) SetDescription(_ context.Context, collectionID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.collections[collectionID]
	if !ok {
		return &registry.Error{Op: "set description", StatusCode: 404, Message: "not found"}
	}
	c.Description = text
	f.descriptions++
	return nil
}

func (f *fakeRegistry) CurrentUser(context.Context) (*registry.User, error) {
	return &registry.User{ID: "u1"}, nil
}

// seed adds a collection without counting it as a create.
func (f *fakeRegistry) seed(parentID, externalID, title string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := fmt.Sprintf("col-%03d", f.seq)
	f.collections[id] = &registry.Collection{
		ID:         id,
		Title:      title,
		ParentID:   parentID,
		ExternalID: externalID,
		Status:     registry.StatusActive,
	}
	return id
}

func (f *fakeRegistry) createCount(externalID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates[externalID]
}

func (f *fakeRegistry) get(id string) registry.Collection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.collections[id]
}

// ordered returns collections in creation order.
func (f *fakeRegistry) ordered() []*registry.Collection {
	out := make([]*registry.Collection, 0, len(f.collections))
	for i := 1; i <= f.seq; i++ {
		if c, ok := f.collections[fmt.Sprintf("col-%03d", i)]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRegistry) below(c *registry.Collection, ancestorID string) bool {
	if ancestorID == "" {
		return true
	}
	for parent := c.ParentID; parent != ""; {
		if parent == ancestorID {
			return true
		}
		p, ok := f.collections[parent]
		if !ok {
			return false
		}
		parent = p.ParentID
	}
	return false
}

// fakeLinks stores at most one link per upload and episode.
type fakeLinks struct {
	mu      sync.Mutex
	uploads map[uuid.UUID]bool
	links   map[string]uploads.CollectionLink
	saveErr error
}

func newFakeLinks(ids ...uuid.UUID) *fakeLinks {
	f := &fakeLinks{
		uploads: map[uuid.UUID]bool{},
		links:   map[string]uploads.CollectionLink{},
	}
	for _, id := range ids {
		f.uploads[id] = true
	}
	return f
}

func linkKey(uploadID uuid.UUID, showCode, episodeNumber string) string {
	return uploadID.String() + "|" + showCode + "|" + episodeNumber
}

func (f *fakeLinks) SaveLink(_ context.Context, uploadID uuid.UUID, link uploads.CollectionLink) (*uploads.CollectionLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if !f.uploads[uploadID] {
		return nil, uploads.ErrNotFound
	}

	key := linkKey(uploadID, link.ShowCode, link.EpisodeNumber)
	if existing, ok := f.links[key]; ok {
		link.ID = existing.ID
	} else {
		link.ID = uuid.New()
	}
	f.links[key] = link
	return &link, nil
}

func (f *fakeLinks) TouchLink(_ context.Context, uploadID uuid.UUID, showCode, episodeNumber, remoteID string, at time.Time) (*uploads.CollectionLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.uploads[uploadID] {
		return nil, uploads.ErrNotFound
	}

	key := linkKey(uploadID, showCode, episodeNumber)
	link, ok := f.links[key]
	if !ok {
		return nil, uploads.ErrLinkNotFound
	}
	link.RemoteID = remoteID
	link.LastUpdated = &at
	f.links[key] = link
	return &link, nil
}

func (f *fakeLinks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

func (f *fakeLinks) get(uploadID uuid.UUID, showCode, episodeNumber string) (uploads.CollectionLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[linkKey(uploadID, showCode, episodeNumber)]
	return link, ok
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	registry   *fakeRegistry
	links      *fakeLinks
	events     *recorder
	reconciler *collections.Reconciler
}

func newFixture(uploadIDs ...uuid.UUID) *fixture {
	return newFixtureAt(rootID, uploadIDs...)
}

func newFixtureAt(root string, uploadIDs ...uuid.UUID) *fixture {
	f := &fixture{
		registry: newFakeRegistry(),
		links:    newFakeLinks(uploadIDs...),
		events:   &recorder{},
	}
	f.reconciler = collections.NewReconciler(
		f.registry,
		f.links,
		keylock.NewLocal(0),
		f.events,
		root,
		discardLogger,
	)
	return f
}
