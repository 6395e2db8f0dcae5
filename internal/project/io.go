package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/chart2video/internal/system"
)

// Ext lists the file extensions FindLatest considers.
var Ext = []string{".yaml", ".yml"}

// Write stores the document as YAML.
func Write(doc *Document, path string) error {
	if doc.Version == "" {
		doc.Version = Version
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	doc.dir = filepath.Dir(path)
	return nil
}

// Read loads a document. Missing fields keep the defaults of New.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := New()
	// a document lists its own highlights; drop the stock ones first
	doc.Style.Highlighted = nil
	doc.Timing.Starts = nil
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Style.Normalize()
	doc.dir = filepath.Dir(path)
	return doc, nil
}

// FindLatest returns the most recently modified project in dir.
func FindLatest(dir string) (string, error) {
	return system.FindLatest(dir, Ext)
}
