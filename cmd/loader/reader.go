package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fixhub-ai/partsearch/internal/domain"
)

// collectionFile is the processed corpus format produced by the scraping
// pipeline: parallel arrays of ids, document texts and metadata maps.
type collectionFile struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

// readCollection loads <dataDir>/<name>.json and converts it to documents.
// Vectors are left empty; the embed stage fills them.
func readCollection(dataDir, name string) ([]domain.Document, error) {
	path := filepath.Join(dataDir, name+".json")

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file collectionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.IDs) != len(file.Documents) || len(file.IDs) != len(file.Metadatas) {
		return nil, fmt.Errorf("%s: ids/documents/metadatas length mismatch", path)
	}

	docs := make([]domain.Document, 0, len(file.IDs))
	for i, id := range file.IDs {
		if id == "" || file.Documents[i] == "" {
			continue
		}
		tags, numerics := splitMetadata(file.Metadatas[i])
		docs = append(docs, domain.Document{
			ID:       id,
			Text:     file.Documents[i],
			Tags:     tags,
			Numerics: numerics,
		})
	}
	return docs, nil
}

// splitMetadata sorts loosely typed JSON metadata into tag and numeric
// fields. Booleans become "true"/"false" tags.
func splitMetadata(meta map[string]any) (map[string]string, map[string]float64) {
	tags := make(map[string]string)
	numerics := make(map[string]float64)
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			if val != "" {
				tags[k] = val
			}
		case float64:
			numerics[k] = val
		case bool:
			tags[k] = strconv.FormatBool(val)
		case nil:
			// skip
		default:
			tags[k] = fmt.Sprint(val)
		}
	}
	return tags, numerics
}
