package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/reelsync/pkg/pagination"
)

func testConfig() pagination.Config {
	cfg := pagination.Config{}
	cfg.Finalize(nil)
	return cfg
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantSearch string
		wantOffset int
	}{
		{"defaults", "", 1, 20, "", 0},
		{"explicit", "page=3&page_size=10", 3, 10, "", 20},
		{"size clamped", "page_size=1000", 1, 100, "", 0},
		{"negative page", "page=-4", 1, 20, "", 0},
		{"search trimmed", "search=%20episodes.json%20", 1, 20, "episodes.json", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, testConfig())

			if req.Page != tt.wantPage {
				t.Errorf("page: got %d, want %d", req.Page, tt.wantPage)
			}
			if req.PageSize != tt.wantSize {
				t.Errorf("page size: got %d, want %d", req.PageSize, tt.wantSize)
			}
			if req.Offset() != tt.wantOffset {
				t.Errorf("offset: got %d, want %d", req.Offset(), tt.wantOffset)
			}

			got := ""
			if req.Search != nil {
				got = *req.Search
			}
			if got != tt.wantSearch {
				t.Errorf("search: got %q, want %q", got, tt.wantSearch)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	req := pagination.PageRequest{Page: 2, PageSize: 10}

	tests := []struct {
		name      string
		total     int
		wantPages int
	}{
		{"empty", 0, 1},
		{"exact", 20, 2},
		{"remainder", 21, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult[string](nil, tt.total, req)
			if res.TotalPages != tt.wantPages {
				t.Errorf("total pages: got %d, want %d", res.TotalPages, tt.wantPages)
			}
			if res.Data == nil {
				t.Error("data should be an empty slice, not nil")
			}
			if res.Page != 2 || res.PageSize != 10 {
				t.Errorf("page echo: got %d/%d", res.Page, res.PageSize)
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error when default exceeds max")
	}
}

func TestConfigMaxPageSizeLimit(t *testing.T) {
	cfg := pagination.Config{MaxPageSize: pagination.MaxPageSizeLimit + 1}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error when max_page_size exceeds the limit")
	}
}
