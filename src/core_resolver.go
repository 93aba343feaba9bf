package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Characters the export tool strips from filenames
var titleSanitizer = strings.NewReplacer(
	"%", "", "<", "", ">", "", "=", "", ":", "", "?", "", "¿", "",
	"*", "", "#", "", "&", "", "{", "", "}", "", "\\", "", "@", "",
	"!", "", "+", "", "|", "", "\"", "", "'", "",
)

// SanitizeTitle removes characters that never survive export into a filename
func SanitizeTitle(title string) string {
	return titleSanitizer.Replace(title)
}

// splitTitle splits at the last dot. ok is false for names without one.
func splitTitle(title string) (stem, ext string, ok bool) {
	i := strings.LastIndexByte(title, '.')
	if i < 0 {
		return title, "", false
	}
	return title[:i], title[i+1:], true
}

// withSuffix inserts suffix between stem and extension
func withSuffix(title, suffix string) string {
	stem, ext, ok := splitTitle(title)
	if !ok {
		return stem + suffix
	}
	return stem + suffix + "." + ext
}

// truncateStem shortens the stem to max characters, keeping the extension.
// ok is false when the stem already fits.
func truncateStem(title string, max int) (string, bool) {
	stem, ext, hasExt := splitTitle(title)
	runes := []rune(stem)
	if len(runes) <= max {
		return title, false
	}
	short := string(runes[:max])
	if hasExt {
		short += "." + ext
	}
	return short, true
}

// MovedLedger is the ordered set of filenames relocated during one run
type MovedLedger struct {
	names []string
	set   map[string]struct{}
}

func NewMovedLedger() *MovedLedger {
	return &MovedLedger{set: make(map[string]struct{})}
}

// Add records name. Adding a name twice is a no-op.
func (l *MovedLedger) Add(name string) {
	if _, ok := l.set[name]; ok {
		return
	}
	l.set[name] = struct{}{}
	l.names = append(l.names, name)
}

func (l *MovedLedger) Contains(name string) bool {
	_, ok := l.set[name]
	return ok
}

func (l *MovedLedger) Len() int {
	return len(l.names)
}

// Names returns the names in insertion order
func (l *MovedLedger) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Disambiguate returns title if the ledger lacks it, otherwise the title with
// the lowest "(n)" suffix not in the ledger
func Disambiguate(title string, ledger *MovedLedger) string {
	if !ledger.Contains(title) {
		return title
	}
	// n can not exceed ledger.Len()+1: at most Len() candidates are taken
	limit := ledger.Len() + 1
	for n := 1; n < limit; n++ {
		candidate := withSuffix(title, fmt.Sprintf("(%d)", n))
		if !ledger.Contains(candidate) {
			return candidate
		}
	}
	return withSuffix(title, fmt.Sprintf("(%d)", limit))
}

// Resolver maps a record title to a media file on disk
type Resolver struct {
	primary   string
	editedRaw string
	roots     []string

	editedSuffix  string
	maxStemLength int

	mover *mover
	log   *zap.Logger
}

// NewResolver searches primary, then matched, then editedRaw. Originals
// displaced by an edited version are moved into editedRaw.
func NewResolver(primary, matched, editedRaw string, cfg *Config, log *zap.Logger) *Resolver {
	return &Resolver{
		primary:       primary,
		editedRaw:     editedRaw,
		roots:         []string{primary, matched, editedRaw},
		editedSuffix:  cfg.EditedSuffix,
		maxStemLength: cfg.MaxStemLength,
		mover:         newMover(cfg, log),
		log:           log,
	}
}

// Resolve sanitizes title and returns the first existing candidate.
// ok is false when nothing matched in any root.
func (r *Resolver) Resolve(title string, ledger *MovedLedger) (MediaFileRef, bool) {
	title = SanitizeTitle(title)
	if title == "" {
		return MediaFileRef{}, false
	}
	short, truncated := truncateStem(title, r.maxStemLength)

	for _, root := range r.roots {
		if name, ok := r.resolveIn(root, title, ledger); ok {
			return MediaFileRef{Name: name, Dir: root}, true
		}
		if !truncated {
			continue
		}
		if name, ok := r.resolveIn(root, short, ledger); ok {
			r.log.Debug("matched truncated name",
				zap.String("title", title),
				zap.String("name", name))
			return MediaFileRef{Name: name, Dir: root}, true
		}
	}
	return MediaFileRef{}, false
}

// resolveIn runs the fixed priority order for one candidate title in one root
func (r *Resolver) resolveIn(root, title string, ledger *MovedLedger) (string, bool) {
	exists := func(name string) bool {
		// Outside the primary root a ledger entry was already claimed this run
		if root != r.primary && ledger.Contains(name) {
			return false
		}
		return lookupExists(filepath.Join(root, name), r.log)
	}

	edited := withSuffix(title, "-"+r.editedSuffix)
	if exists(edited) {
		r.preserveOriginal(root, title)
		return edited, true
	}

	numbered := withSuffix(title, "(1)")
	if exists(numbered) && !lookupExists(filepath.Join(r.primary, title+"(1).json"), r.log) {
		r.preserveOriginal(root, title)
		return numbered, true
	}

	if exists(title) {
		return title, true
	}

	if alt := Disambiguate(title, ledger); alt != title && exists(alt) {
		return alt, true
	}
	return "", false
}

// preserveOriginal moves the un-suffixed original out of the primary root so
// the edited copy is the one that gets processed
func (r *Resolver) preserveOriginal(root, title string) {
	if root != r.primary {
		return
	}
	orig := filepath.Join(r.primary, title)
	if !lookupExists(orig, r.log) {
		return
	}
	dst := filepath.Join(r.editedRaw, title)
	if err := r.mover.safeMove(orig, dst); err != nil {
		r.log.Warn("could not preserve original", zap.String("file", orig), zap.Error(err))
		return
	}
	r.log.Debug("preserved original", zap.String("file", orig), zap.String("dest", dst))
}
