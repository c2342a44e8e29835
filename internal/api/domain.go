package api

import (
	"github.com/JaimeStill/reelsync/internal/collections"
	"github.com/JaimeStill/reelsync/internal/uploads"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Uploads     uploads.System
	Collections collections.System
}

// NewDomain creates all domain systems from the API runtime. The uploads
// system is both the metadata source and the link store for collections.
func NewDomain(runtime *Runtime) *Domain {
	uploadsSystem := uploads.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	reconciler := collections.NewReconciler(
		runtime.Registry,
		uploadsSystem,
		runtime.Locks,
		runtime.Publisher,
		runtime.RootCollectionID,
		runtime.Logger,
	)

	return &Domain{
		Uploads:     uploadsSystem,
		Collections: collections.New(uploadsSystem, reconciler, runtime.Logger),
	}
}
