package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/emrgen/ingest/internal/content"
)

// MaxBatchSize is the largest number of files a single bulk upload may carry.
const MaxBatchSize = 100

const jsonMediaType = "application/json"

var (
	// ErrUnsupportedMediaType is returned for files whose declared media type is not JSON.
	ErrUnsupportedMediaType = errors.New("not a JSON file")
	// ErrBatchTooLarge is returned when a batch holds more than MaxBatchSize files.
	ErrBatchTooLarge = fmt.Errorf("batch exceeds %d files", MaxBatchSize)
)

// File is one uploaded file as received from the upload surface.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Result is the normalized form of one uploaded file.
type Result struct {
	// Name is the filename without a trailing .json suffix.
	Name    string
	Content string
	Valid   bool
	Err     error
}

// Normalize parses every file of a batch independently. Results keep the input order.
// A batch larger than MaxBatchSize is rejected without processing any file.
func Normalize(files []File) ([]Result, error) {
	if len(files) > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(files))
	}

	results := make([]Result, len(files))
	for i, f := range files {
		results[i] = NormalizeOne(f)
	}

	return results, nil
}

// NormalizeOne normalizes a single uploaded file.
func NormalizeOne(f File) Result {
	res := Result{Name: DisplayName(f.Name)}

	if !IsJSONMediaType(f.MediaType) {
		res.Err = ErrUnsupportedMediaType
		return res
	}

	// keep the raw text even when it fails to parse so it can be corrected
	res.Content = string(f.Data)
	if !json.Valid(f.Data) {
		res.Err = content.ErrInvalidJSON
		return res
	}

	res.Valid = true
	return res
}

// DisplayName strips one trailing .json suffix from a filename.
func DisplayName(filename string) string {
	return strings.TrimSuffix(filename, ".json")
}

// IsJSONMediaType reports whether a declared media type is application/json, ignoring parameters.
func IsJSONMediaType(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}

	return mt == jsonMediaType
}
