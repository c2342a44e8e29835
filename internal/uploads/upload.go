// Package uploads implements the upload record store. It validates
// spreadsheet-derived JSON files, archives the raw file in blob storage,
// persists the parsed rows in PostgreSQL, and tracks the registry
// collection links synchronized for each episode.
package uploads

import (
	"time"

	"github.com/google/uuid"
)

// StatusUploaded is the status assigned to a record on ingestion.
const StatusUploaded = "uploaded"

// ParentBrandPhase marks the package row that carries brand-level naming.
const ParentBrandPhase = "Parent Brand"

// Upload is one ingested file with its parsed rows and collection links.
type Upload struct {
	ID              uuid.UUID        `json:"id"`
	Filename        string           `json:"filename"`
	UploadDate      time.Time        `json:"uploadDate"`
	FileProperties  FileProperties   `json:"fileProperties"`
	ParsedData      ParsedData       `json:"parsedData"`
	Status          string           `json:"status"`
	StorageKey      string           `json:"storageKey"`
	CollectionLinks []CollectionLink `json:"collectionLinks"`
	LastUpdated     *time.Time       `json:"lastUpdated,omitempty"`
	Version         int              `json:"version"`
}

// Summary is the list view of an Upload. Row counts replace the parsed data.
type Summary struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	UploadDate  time.Time  `json:"uploadDate"`
	Status      string     `json:"status"`
	Packages    int        `json:"packages"`
	Titles      int        `json:"titles"`
	Episodes    int        `json:"episodes"`
	Links       int        `json:"links"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// ParsedData holds the spreadsheet tabs. Keys keep the spreadsheet column
// names so exported sheets can be uploaded without transformation.
type ParsedData struct {
	Packages    []PackageRow `json:"Packages,omitempty" validate:"dive"`
	Title       []TitleRow   `json:"Title,omitempty" validate:"dive"`
	EpisodeData []EpisodeRow `json:"EpisodeData,omitempty" validate:"dive"`
}

// Empty reports whether no tab carries any rows.
func (p ParsedData) Empty() bool {
	return len(p.Packages) == 0 && len(p.Title) == 0 && len(p.EpisodeData) == 0
}

type PackageRow struct {
	TiCode      string `json:"TiCode" validate:"required"`
	BrandTiCode string `json:"BrandTiCode" validate:"required"`
	DisplayName string `json:"DisplayName" validate:"required"`
	Phase       string `json:"Phase,omitempty"`
}

type TitleRow struct {
	TiCode      string `json:"TICODE" validate:"required"`
	SeriesTitle string `json:"SeriesTitle" validate:"required"`
}

type EpisodeRow struct {
	TiCode      string `json:"TICODE" validate:"required"`
	EpisodeNo   string `json:"EPISODENO" validate:"required"`
	EpisodeName string `json:"EPISODENAME,omitempty"`
}

// CollectionLink maps one episode of an upload to its registry collection.
// At most one link exists per (upload, show code, episode number).
type CollectionLink struct {
	ID            uuid.UUID  `json:"id"`
	ShowCode      string     `json:"showCode"`
	EpisodeNumber string     `json:"episodeNumber"`
	RemoteID      string     `json:"remoteId"`
	CreatedDate   time.Time  `json:"createdDate"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
}

// FileProperties describes the uploaded file as received and validated.
type FileProperties struct {
	Filename   string     `json:"filename"`
	Size       int64      `json:"size"`
	Type       string     `json:"type"`
	Encoding   string     `json:"encoding"`
	IsValid    bool       `json:"isValid"`
	Properties Properties `json:"properties"`
}

// Properties are the facts discovered while validating file content.
type Properties struct {
	Packages int      `json:"packages"`
	Titles   int      `json:"titles"`
	Episodes int      `json:"episodes"`
	Errors   []string `json:"errors,omitempty"`
}

// ValidationResult is returned by the validate endpoint.
type ValidationResult struct {
	IsValid     bool           `json:"isValid"`
	Properties  FileProperties `json:"properties"`
	ValidatedAt time.Time      `json:"validatedAt"`
}

// CreateCommand carries a received file. Data holds the raw bytes.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Created is the response body for a successful upload.
type Created struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	UploadDate time.Time `json:"uploadDate"`
}
