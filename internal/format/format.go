package format

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/varoOP/animetrack/internal/domain"
)

// Format is a list export encoding
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

func Parse(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("invalid format: %q (must be 'json' or 'yaml')", s)
}

// FromPath guesses the format from a file extension, defaulting to YAML
func FromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// listDocument is the export envelope
type listDocument struct {
	Version int                `json:"version" yaml:"version"`
	Entries []domain.ListEntry `json:"entries" yaml:"entries"`
}

const documentVersion = 1

// WriteList encodes entries to w
func WriteList(w io.Writer, entries []domain.ListEntry, f Format) error {
	doc := listDocument{Version: documentVersion, Entries: entries}
	if doc.Entries == nil {
		doc.Entries = []domain.ListEntry{}
	}

	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "   ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode json")
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "failed to flush yaml")
		}
	default:
		return fmt.Errorf("unsupported format: %q", f)
	}
	return nil
}

// ReadList decodes entries written by WriteList. Entries with an invalid
// status or a non-positive ID are rejected.
func ReadList(r io.Reader, f Format) ([]domain.ListEntry, error) {
	var doc listDocument
	switch f {
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode json")
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode yaml")
		}
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}

	if doc.Version > documentVersion {
		return nil, errors.Errorf("export version %d is newer than supported (%d)", doc.Version, documentVersion)
	}
	for i, e := range doc.Entries {
		if e.AnimeID <= 0 {
			return nil, errors.Errorf("entry %d: invalid anime id %d", i, e.AnimeID)
		}
		if !e.Status.Valid() {
			return nil, errors.Errorf("entry %d: invalid status %q", i, e.Status)
		}
		if e.Progress < 0 {
			doc.Entries[i].Progress = 0
		}
	}
	return doc.Entries, nil
}
