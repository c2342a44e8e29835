package uploads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Inspect parses and validates file content without persisting anything.
// An error is returned only when the file cannot be read as spreadsheet JSON;
// row-level problems are reported through FileProperties.IsValid and
// Properties.Errors.
func Inspect(cmd CreateCommand) (*ParsedData, FileProperties, error) {
	props := FileProperties{
		Filename: cmd.Filename,
		Size:     int64(len(cmd.Data)),
		Type:     detectContentType(cmd.ContentType, cmd.Data),
		Encoding: detectEncoding(cmd.Data),
	}

	if len(bytes.TrimSpace(cmd.Data)) == 0 {
		return nil, props, fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if !isJSON(cmd.Filename, props.Type) {
		return nil, props, fmt.Errorf("%w: expected a .json file, got %s", ErrInvalidFile, props.Type)
	}

	var parsed ParsedData
	if err := json.Unmarshal(cmd.Data, &parsed); err != nil {
		return nil, props, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	props.Properties = Properties{
		Packages: len(parsed.Packages),
		Titles:   len(parsed.Title),
		Episodes: len(parsed.EpisodeData),
		Errors:   rowErrors(parsed),
	}
	props.IsValid = len(props.Properties.Errors) == 0

	return &parsed, props, nil
}

func rowErrors(parsed ParsedData) []string {
	var problems []string
	if parsed.Empty() {
		problems = append(problems, "no Packages, Title, or EpisodeData rows")
	}

	err := validate.Struct(parsed)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	} else if err != nil {
		problems = append(problems, err.Error())
	}

	return problems
}

func describe(fe validator.FieldError) string {
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func isJSON(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return true
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mediaType) == "application/json"
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func detectEncoding(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	return "binary"
}
