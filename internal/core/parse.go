package core

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// SupportedFormats are the upload extensions the batch pipeline accepts.
var SupportedFormats = []string{".csv", ".txt", ".json"}

// FileFormat returns the lowercased extension of filename and whether it is
// one of the supported upload formats.
func FileFormat(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedFormats {
		if ext == supported {
			return ext, true
		}
	}
	return ext, false
}

// UploadMetadata describes an uploaded batch file. It is stored on the task
// record and read back by the worker when the file is processed.
type UploadMetadata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

// ParseReviews extracts review texts from an uploaded file, choosing the
// parser by extension. Items are returned as found in the file; blank
// entries are filtered out at classification time.
func ParseReviews(filename string, r io.Reader) ([]string, error) {
	ext, ok := FileFormat(filename)
	if !ok {
		return nil, fmt.Errorf("unsupported file format: %q", ext)
	}

	switch ext {
	case ".csv":
		return parseCsvReviews(r)
	case ".json":
		return parseJsonReviews(r)
	default:
		return parseTxtReviews(r)
	}
}

func parseCsvReviews(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are fine, only the first column matters

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// The first row is treated as a header when more rows follow and its
	// first cell contains no digit in the leading 50 characters.
	start := 0
	if len(rows) > 1 && !containsDigit(truncateRunes(rows[0][0], 50)) {
		start = 1
	}

	var reviews []string
	for _, row := range rows[start:] {
		if len(row) > 0 {
			reviews = append(reviews, row[0])
		}
	}
	return reviews, nil
}

// jsonTextFields are the keys checked, in order, when a json review entry is
// an object rather than a plain string.
var jsonTextFields = []string{"text", "review", "comment", "content", "message"}

func parseJsonReviews(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading json: %w", err)
	}

	var parsed interface{}
	if err := json.Unmarshal(content, &parsed); err != nil {
		// invalid json yields no reviews
		return nil, nil
	}

	var reviews []string
	switch data := parsed.(type) {
	case []interface{}:
		for _, item := range data {
			switch item := item.(type) {
			case string:
				reviews = append(reviews, item)
			case map[string]interface{}:
				if text, ok := jsonObjectText(item); ok {
					reviews = append(reviews, text)
				}
			}
		}
	case map[string]interface{}:
		if text, ok := jsonObjectText(data); ok {
			reviews = append(reviews, text)
		}
	}
	return reviews, nil
}

func jsonObjectText(obj map[string]interface{}) (string, bool) {
	for _, field := range jsonTextFields {
		if value, ok := obj[field]; ok {
			return fmt.Sprintf("%v", value), true
		}
	}
	return "", false
}

func parseTxtReviews(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading txt: %w", err)
	}

	var reviews []string
	for _, line := range strings.Split(string(content), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			reviews = append(reviews, trimmed)
		}
	}
	return reviews, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func containsDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}
