package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/reelsync/internal/api"
	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/internal/infrastructure"
	"github.com/JaimeStill/reelsync/pkg/database"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/handlers"
	"github.com/JaimeStill/reelsync/pkg/keylock"
	"github.com/JaimeStill/reelsync/pkg/pagination"
	"github.com/JaimeStill/reelsync/pkg/registry"
	"github.com/JaimeStill/reelsync/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "reelsync",
			User:            "reelsync",
			SSLMode:         "disable",
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "uploads",
			ConnectionString: azuriteConnString,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Registry: registry.Config{
			BaseURL:          "https://app.iconik.io/API/",
			AppID:            "0f7b7a8e-5d0e-4c3c-9a66-1c2f8f1f7e10",
			AuthToken:        "token",
			RootCollectionID: "3c5a8f9e-6b1d-4d2e-8f3a-9e7c6b5a4d3c",
			Timeout:          "30s",
			BreakerFailures:  5,
			BreakerCooldown:  "30s",
		},
		Broker: events.Config{URL: "nats://localhost:4222"},
		Locks:  keylock.Config{Backend: keylock.BackendLocal},
	}
}

func setupInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })
	return infra
}

func TestNewModule(t *testing.T) {
	m, err := api.NewModule(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	runtime := api.NewRuntime(cfg, setupInfra(t))

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.RootCollectionID != cfg.Registry.RootCollectionID {
		t.Errorf("root collection: got %s", runtime.RootCollectionID)
	}
	if runtime.Publisher == nil {
		t.Error("runtime publisher is nil")
	}
	if runtime.Logger == nil || runtime.Registry == nil || runtime.Locks == nil {
		t.Error("runtime infrastructure not carried over")
	}
}

func TestNewDomain(t *testing.T) {
	domain := api.NewDomain(api.NewRuntime(validConfig(), setupInfra(t)))

	if domain.Uploads == nil {
		t.Error("uploads system is nil")
	}
	if domain.Collections == nil {
		t.Error("collections system is nil")
	}
}

func TestModuleRoutes(t *testing.T) {
	m, err := api.NewModule(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		label  string
	}{
		{
			name:   "create without body",
			method: http.MethodPost,
			path:   "/api/create/T1/E01",
			status: http.StatusBadRequest,
			label:  "Collection creation failed",
		},
		{
			name:   "update with malformed id",
			method: http.MethodPut,
			path:   "/api/update/T1/E01",
			body:   `{"databaseId":"abc"}`,
			status: http.StatusNotFound,
			label:  "Collection update failed",
		},
		{
			name:   "upload id is not a uuid",
			method: http.MethodGet,
			path:   "/api/uploads/abc",
			status: http.StatusNotFound,
		},
		{
			name:   "uploads segment is not a show code",
			method: http.MethodGet,
			path:   "/api/uploads/E01",
			status: http.StatusNotFound,
			label:  "upload not found",
		},
		{
			name:   "upload without file",
			method: http.MethodPost,
			path:   "/api/upload",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			m.Serve(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.label == "" {
				return
			}

			var body handlers.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.label {
				t.Errorf("error label: got %q, want %q", body.Error, tt.label)
			}
		})
	}
}
