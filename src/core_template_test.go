package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestTemplateStore(t *testing.T) {
	store := NewTemplateStore(filepath.Join(t.TempDir(), "templates"))

	names, err := store.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("List on a fresh store = %v, %v", names, err)
	}

	paris := MetadataRecord{Title: "paris", Timestamp: testTimestamp, Geo: GeoData{Latitude: 48.8584, Longitude: 2.2945}}
	if err := store.Save("paris", paris); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("alps", MetadataRecord{Geo: GeoData{Altitude: 2500}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("paris")
	if err != nil {
		t.Fatal(err)
	}
	if got != paris {
		t.Errorf("Load = %+v, want %+v", got, paris)
	}

	// Last write wins
	moved := paris
	moved.Geo.Latitude = 48.86
	if err := store.Save("paris", moved); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Load("paris"); got != moved {
		t.Errorf("after overwrite Load = %+v, want %+v", got, moved)
	}

	names, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "alps" || names[1] != "paris" {
		t.Errorf("List = %v, want [alps paris]", names)
	}
}

func TestTemplateStore_Errors(t *testing.T) {
	store := NewTemplateStore(t.TempDir())

	if _, err := store.Load("nowhere"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Load(nowhere) err = %v, want ErrTemplateNotFound", err)
	}

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := store.Save(name, MetadataRecord{}); !errors.Is(err, ErrInvalidTemplateName) {
			t.Errorf("Save(%q) err = %v, want ErrInvalidTemplateName", name, err)
		}
	}
}
