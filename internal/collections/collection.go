// Package collections reconciles episode metadata with the asset registry's
// brand, season, and episode collection hierarchy and records the resulting
// remote ids against the owning upload.
package collections

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/internal/metadata"
)

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
)

// Result is the outcome of a create or update.
type Result struct {
	ShowCode      string    `json:"showCode"`
	EpisodeNumber string    `json:"episodeNumber"`
	DatabaseID    uuid.UUID `json:"databaseId"`
	RemoteID      string    `json:"remoteId"`
	Status        string    `json:"status"`
}

// SyncRequest is the request body for create and update.
type SyncRequest struct {
	DatabaseID string `json:"databaseId"`
}

// ExistsResponse is the response body for the existence probe.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// target is metadata that passed the precondition gate.
type target struct {
	ShowCode      string
	EpisodeNumber string
	EpisodeName   string
	SeasonName    string
	SeriesName    string
	BrandCode     string
}

// EpisodeExternalID returns the registry external id of an episode collection.
func EpisodeExternalID(showCode, episodeNumber string) string {
	return showCode + "_" + episodeNumber
}

// gate rejects metadata that cannot be reconciled. A missing season name is
// reported before a missing series name or brand code.
func gate(m metadata.Metadata) (target, error) {
	if m.ShowCode == "" || m.EpisodeNumber == "" {
		return target{}, ErrMissingEpisodeKey
	}
	if m.SeasonName == nil {
		return target{}, ErrMissingSeasonName
	}
	if m.SeriesName == nil || m.BrandCode == nil {
		return target{}, ErrMissingSeriesOrBrand
	}

	t := target{
		ShowCode:      m.ShowCode,
		EpisodeNumber: m.EpisodeNumber,
		SeasonName:    *m.SeasonName,
		SeriesName:    *m.SeriesName,
		BrandCode:     *m.BrandCode,
	}
	if m.EpisodeName != nil {
		t.EpisodeName = *m.EpisodeName
	}
	return t, nil
}

func (t target) externalID() string {
	return EpisodeExternalID(t.ShowCode, t.EpisodeNumber)
}
