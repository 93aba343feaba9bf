package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateStore manages named metadata sets, one <name>.json file each
type TemplateStore struct {
	dir string
}

func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

func (s *TemplateStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidTemplateName)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save stores rec under name, replacing any template of that name
func (s *TemplateStore) Save(name string, rec MetadataRecord) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *TemplateStore) Load(name string) (MetadataRecord, error) {
	path, err := s.path(name)
	if err != nil {
		return MetadataRecord{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return MetadataRecord{}, fmt.Errorf("%q: %w", name, ErrTemplateNotFound)
	}
	if err != nil {
		return MetadataRecord{}, err
	}

	var rec MetadataRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return MetadataRecord{}, fmt.Errorf("parse template %q: %w", name, err)
	}
	return rec, nil
}

// List returns the saved template names, sorted
func (s *TemplateStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
