package uploads_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/reelsync/internal/uploads"
)

const sampleFile = `{
	"Packages": [{"TiCode": "T1", "BrandTiCode": "BR1", "DisplayName": "Brand One", "Phase": "Parent Brand"}],
	"Title": [{"TICODE": "T1", "SeriesTitle": "Season One"}],
	"EpisodeData": [{"TICODE": "T1", "EPISODENO": "E01", "EPISODENAME": "Pilot"}]
}`

func TestInspectValidFile(t *testing.T) {
	parsed, props, err := uploads.Inspect(uploads.CreateCommand{
		Data:     []byte(sampleFile),
		Filename: "episodes.json",
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	if !props.IsValid {
		t.Errorf("expected valid, errors: %v", props.Properties.Errors)
	}
	if props.Encoding != "utf-8" {
		t.Errorf("encoding: got %s", props.Encoding)
	}
	if props.Size != int64(len(sampleFile)) {
		t.Errorf("size: got %d", props.Size)
	}
	if props.Properties.Packages != 1 || props.Properties.Titles != 1 || props.Properties.Episodes != 1 {
		t.Errorf("counts: got %+v", props.Properties)
	}
	if parsed.Packages[0].Phase != uploads.ParentBrandPhase {
		t.Errorf("phase: got %q", parsed.Packages[0].Phase)
	}
	if parsed.EpisodeData[0].EpisodeName != "Pilot" {
		t.Errorf("episode name: got %q", parsed.EpisodeData[0].EpisodeName)
	}
}

func TestInspectRowErrors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantError string
	}{
		{"missing brand code", `{"Packages": [{"TiCode": "T1", "DisplayName": "Brand"}]}`, "Packages[0].BrandTiCode is required"},
		{"missing series title", `{"Title": [{"TICODE": "T1"}]}`, "Title[0].SeriesTitle is required"},
		{"missing episode number", `{"EpisodeData": [{"TICODE": "T1"}]}`, "EpisodeData[0].EPISODENO is required"},
		{"no rows", `{}`, "no Packages, Title, or EpisodeData rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, props, err := uploads.Inspect(uploads.CreateCommand{
				Data:     []byte(tt.data),
				Filename: "sheet.json",
			})
			if err != nil {
				t.Fatalf("inspect: %v", err)
			}
			if props.IsValid {
				t.Fatal("expected invalid")
			}
			if !slices.Contains(props.Properties.Errors, tt.wantError) {
				t.Errorf("errors: got %v, want %q", props.Properties.Errors, tt.wantError)
			}
		})
	}
}

func TestInspectUnreadable(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		filename    string
		contentType string
	}{
		{"empty", "  ", "sheet.json", ""},
		{"not json", "TICODE,EPISODENO\nT1,E01", "sheet.csv", "text/csv"},
		{"malformed", `{"Packages": [`, "sheet.json", ""},
		{"wrong shape", `{"Packages": "T1"}`, "sheet.json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := uploads.Inspect(uploads.CreateCommand{
				Data:        []byte(tt.data),
				Filename:    tt.filename,
				ContentType: tt.contentType,
			})
			if !errors.Is(err, uploads.ErrInvalidFile) {
				t.Errorf("error: got %v, want ErrInvalidFile", err)
			}
		})
	}
}

func TestInspectAcceptsJSONContentType(t *testing.T) {
	_, props, err := uploads.Inspect(uploads.CreateCommand{
		Data:        []byte(sampleFile),
		Filename:    "export",
		ContentType: "application/json; charset=utf-8",
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !props.IsValid {
		t.Errorf("expected valid, errors: %v", props.Properties.Errors)
	}
}

func TestInvalidErrorMatchesSentinel(t *testing.T) {
	err := &uploads.InvalidError{Properties: uploads.FileProperties{
		Properties: uploads.Properties{Errors: []string{"Title[0].SeriesTitle is required"}},
	}}

	if !errors.Is(err, uploads.ErrInvalidFile) {
		t.Error("InvalidError should match ErrInvalidFile")
	}
	if uploads.MapHTTPStatus(err) != 400 {
		t.Errorf("status: got %d, want 400", uploads.MapHTTPStatus(err))
	}
	if err.Error() != "invalid file: Title[0].SeriesTitle is required" {
		t.Errorf("message: got %q", err.Error())
	}
}
