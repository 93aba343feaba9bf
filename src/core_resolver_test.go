package main

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newTestResolver(t *testing.T) (r *Resolver, primary, matched, editedRaw string) {
	t.Helper()
	cfg := testConfig(t)
	primary = t.TempDir()
	matched, editedRaw, err := createRequiredFolders(primary, cfg)
	if err != nil {
		t.Fatalf("createRequiredFolders: %v", err)
	}
	return NewResolver(primary, matched, editedRaw, cfg, zaptest.NewLogger(t)), primary, matched, editedRaw
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo 2015.jpg", "my photo 2015.jpg"},
		{"what?.jpg", "what.jpg"},
		{"¿qué?.jpg", "qué.jpg"},
		{`it's "fine".jpg`, "its fine.jpg"},
		{"50% <off> = deal.jpg", "50 off  deal.jpg"},
		{"a*b#c&d{e}f.png", "abcdef.png"},
		{`back\slash@home!.jpg`, "backslashhome.jpg"},
		{"c++|pipe:time.jpg", "cpipetime.jpg"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDisambiguate(t *testing.T) {
	ledger := NewMovedLedger()
	if got := Disambiguate("file.jpg", ledger); got != "file.jpg" {
		t.Errorf("empty ledger: got %q, want file.jpg", got)
	}

	ledger.Add("file.jpg")
	if got := Disambiguate("file.jpg", ledger); got != "file(1).jpg" {
		t.Errorf("second: got %q, want file(1).jpg", got)
	}

	ledger.Add("file(1).jpg")
	if got := Disambiguate("file.jpg", ledger); got != "file(2).jpg" {
		t.Errorf("third: got %q, want file(2).jpg", got)
	}

	ledger.Add("noext")
	if got := Disambiguate("noext", ledger); got != "noext(1)" {
		t.Errorf("no extension: got %q, want noext(1)", got)
	}
}

func TestMovedLedger(t *testing.T) {
	l := NewMovedLedger()
	l.Add("b.jpg")
	l.Add("a.jpg")
	l.Add("b.jpg")

	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	names := l.Names()
	if len(names) != 2 || names[0] != "b.jpg" || names[1] != "a.jpg" {
		t.Errorf("Names() = %v, want [b.jpg a.jpg]", names)
	}
	if !l.Contains("a.jpg") || l.Contains("c.jpg") {
		t.Error("Contains reports wrong membership")
	}
}

func TestTruncateStem(t *testing.T) {
	long := strings.Repeat("a", 50)

	tests := []struct {
		name      string
		title     string
		want      string
		truncated bool
	}{
		{"short", "photo.jpg", "photo.jpg", false},
		{"exactly max", strings.Repeat("b", 47) + ".jpg", strings.Repeat("b", 47) + ".jpg", false},
		{"long", long + ".jpg", strings.Repeat("a", 47) + ".jpg", true},
		{"long no extension", long, strings.Repeat("a", 47), true},
		{"counts characters", strings.Repeat("é", 48) + ".jpg", strings.Repeat("é", 47) + ".jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := truncateStem(tt.title, DefaultMaxStemLength)
			if got != tt.want || ok != tt.truncated {
				t.Errorf("truncateStem = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.truncated)
			}
		})
	}
}

func TestResolver_EditedVersionWins(t *testing.T) {
	r, primary, _, editedRaw := newTestResolver(t)
	writeFile(t, filepath.Join(primary, "Example.jpg"), "original")
	writeFile(t, filepath.Join(primary, "Example-edited.jpg"), "edited")

	ref, ok := r.Resolve("Example.jpg", NewMovedLedger())
	if !ok {
		t.Fatal("expected a match")
	}
	if ref.Name != "Example-edited.jpg" || ref.Dir != primary {
		t.Errorf("got %+v, want Example-edited.jpg in primary", ref)
	}
	if fileExists(filepath.Join(primary, "Example.jpg")) {
		t.Error("original should have been moved out of the primary dir")
	}
	if !fileExists(filepath.Join(editedRaw, "Example.jpg")) {
		t.Error("original should be preserved in EditedRaw")
	}
}

func TestResolver_NumberedDuplicate(t *testing.T) {
	t.Run("accepted without its own record", func(t *testing.T) {
		r, primary, _, editedRaw := newTestResolver(t)
		writeFile(t, filepath.Join(primary, "photo.jpg"), "original")
		writeFile(t, filepath.Join(primary, "photo(1).jpg"), "copy")

		ref, ok := r.Resolve("photo.jpg", NewMovedLedger())
		if !ok || ref.Name != "photo(1).jpg" {
			t.Fatalf("got %+v (ok=%v), want photo(1).jpg", ref, ok)
		}
		if !fileExists(filepath.Join(editedRaw, "photo.jpg")) {
			t.Error("original should be preserved in EditedRaw")
		}
	})

	t.Run("skipped when it has its own record", func(t *testing.T) {
		r, primary, _, _ := newTestResolver(t)
		writeFile(t, filepath.Join(primary, "photo.jpg"), "original")
		writeFile(t, filepath.Join(primary, "photo(1).jpg"), "copy")
		writeFile(t, filepath.Join(primary, "photo.jpg(1).json"), "{}")

		ref, ok := r.Resolve("photo.jpg", NewMovedLedger())
		if !ok || ref.Name != "photo.jpg" {
			t.Fatalf("got %+v (ok=%v), want photo.jpg", ref, ok)
		}
		if !fileExists(filepath.Join(primary, "photo.jpg")) {
			t.Error("plain original must stay in place")
		}
	})
}

func TestResolver_DisambiguatesAgainstLedger(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	// The (1) copy has its own record, so only the ledger step may claim it
	writeFile(t, filepath.Join(primary, "file(1).jpg"), "second")
	writeFile(t, filepath.Join(primary, "file.jpg(1).json"), "{}")

	if _, ok := r.Resolve("file.jpg", NewMovedLedger()); ok {
		t.Fatal("without a ledger entry file(1).jpg must not match")
	}

	ledger := NewMovedLedger()
	ledger.Add("file.jpg")
	ref, ok := r.Resolve("file.jpg", ledger)
	if !ok || ref.Name != "file(1).jpg" {
		t.Fatalf("got %+v (ok=%v), want file(1).jpg", ref, ok)
	}
}

func TestResolver_TruncationFallback(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	stem := "A very long holiday photo title that the exporter cut short"
	short := string([]rune(stem)[:DefaultMaxStemLength])
	writeFile(t, filepath.Join(primary, short+".jpg"), "data")

	ref, ok := r.Resolve(stem+".jpg", NewMovedLedger())
	if !ok {
		t.Fatal("expected the truncated name to match")
	}
	if ref.Name != short+".jpg" {
		t.Errorf("got %q, want %q", ref.Name, short+".jpg")
	}
}

func TestResolver_TruncatedEditedVersion(t *testing.T) {
	r, primary, _, editedRaw := newTestResolver(t)
	stem := strings.Repeat("x", 60)
	short := strings.Repeat("x", DefaultMaxStemLength)
	writeFile(t, filepath.Join(primary, short+".jpg"), "original")
	writeFile(t, filepath.Join(primary, short+"-edited.jpg"), "edited")

	ref, ok := r.Resolve(stem+".jpg", NewMovedLedger())
	if !ok || ref.Name != short+"-edited.jpg" {
		t.Fatalf("got %+v (ok=%v), want the truncated edited name", ref, ok)
	}
	if !fileExists(filepath.Join(editedRaw, short+".jpg")) {
		t.Error("truncated original should be preserved in EditedRaw")
	}
}

func TestResolver_SanitizesTitle(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	writeFile(t, filepath.Join(primary, "Whats up.jpg"), "data")

	ref, ok := r.Resolve("What's up?.jpg", NewMovedLedger())
	if !ok || ref.Name != "Whats up.jpg" {
		t.Fatalf("got %+v (ok=%v), want Whats up.jpg", ref, ok)
	}
}

func TestResolver_SearchesMatchedRoot(t *testing.T) {
	r, _, matched, _ := newTestResolver(t)
	writeFile(t, filepath.Join(matched, "moved.jpg"), "data")

	ref, ok := r.Resolve("moved.jpg", NewMovedLedger())
	if !ok || ref.Dir != matched {
		t.Fatalf("got %+v (ok=%v), want moved.jpg in MatchedMedia", ref, ok)
	}

	// Claimed earlier in this run: not available to another record
	ledger := NewMovedLedger()
	ledger.Add("moved.jpg")
	if ref, ok := r.Resolve("moved.jpg", ledger); ok {
		t.Errorf("got %+v, want no match for a ledger entry", ref)
	}
}

func TestResolver_NotFound(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	writeFile(t, filepath.Join(primary, "other.jpg"), "data")

	for _, title := range []string{"missing.jpg", "", "?"} {
		if ref, ok := r.Resolve(title, NewMovedLedger()); ok {
			t.Errorf("Resolve(%q) = %+v, want not found", title, ref)
		}
	}
}

func TestResolver_IgnoresDirectories(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	writeFile(t, filepath.Join(primary, "album.jpg", "inner.jpg"), "data")

	if ref, ok := r.Resolve("album.jpg", NewMovedLedger()); ok {
		t.Errorf("got %+v, a directory must never match", ref)
	}
}
