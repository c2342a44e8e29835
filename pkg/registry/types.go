package registry

import "context"

// StatusActive is the only collection status considered by searches.
const StatusActive = "ACTIVE"

// Collection is a node in the registry's collection hierarchy.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ParentID    string `json:"parent_id,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// User is the account that owns the configured auth token.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// API is the set of registry operations used by reelsync. Client and
// Breaker both implement it.
type API interface {
	// FindCollection returns the first active collection directly under
	// parentID whose external id equals externalID, falling back to the first
	// whose external id starts with it. An empty parentID matches only
	// top-level collections. Returns nil when nothing matches.
	FindCollection(ctx context.Context, parentID, externalID string) (*Collection, error)
	// FindCollectionByAncestor returns the active collection anywhere below
	// ancestorID whose external id equals externalID, or nil.
	FindCollectionByAncestor(ctx context.Context, ancestorID, externalID string) (*Collection, error)
	// CreateCollection creates a collection. It is not idempotent.
	CreateCollection(ctx context.Context, parentID, externalID, title string) (*Collection, error)
	// SetDescription replaces the description of a collection.
	SetDescription(ctx context.Context, collectionID, text string) error
	// CurrentUser returns the user owning the auth token.
	CurrentUser(ctx context.Context) (*User, error)
}

type searchRequest struct {
	DocTypes []string     `json:"doc_types"`
	Filter   searchFilter `json:"filter"`
}

type searchFilter struct {
	Operator string       `json:"operator"`
	Terms    []searchTerm `json:"terms"`
}

type searchTerm struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type searchResponse struct {
	Objects []Collection `json:"objects"`
	Total   int          `json:"total"`
}

type createRequest struct {
	Title      string `json:"title"`
	ParentID   string `json:"parent_id,omitempty"`
	ExternalID string `json:"external_id"`
}

type updateRequest struct {
	Description string `json:"description"`
}

type errorResponse struct {
	Errors []string `json:"errors"`
}
