// Package docindex builds an inventory of candidate quiz documents from a
// directory tree, with each file's detected format level.
package docindex

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/schema"
)

// Entry describes a single discovered quiz document.
type Entry struct {
	Path  string // relative to the scanned root
	Level schema.FormatLevel
	Size  int64
}

// Index is the inventory of a document tree.
type Index struct {
	Root    string
	Entries []Entry
	Skipped []string // oversized or unreadable files, relative paths
}

// maxFileSize is the largest document read for detection. Quiz documents are
// small; anything bigger is almost certainly not one.
const defaultMaxFileSize = 1 << 20 // 1 MB

// defaultIgnore is the default set of directory names to skip.
// Matching is against directory base names only, not full paths.
var defaultIgnore = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// Options tunes a Build walk. The zero value uses the defaults.
type Options struct {
	// IgnoreDirs supplements the default ignore list; entries are matched
	// against directory base names.
	IgnoreDirs []string

	// MaxFileSize overrides the size cap. Zero means the default.
	MaxFileSize int64
}

// Build walks the directory at root and classifies every markdown file.
func Build(root string, opts Options) (Index, error) {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	extraIgnore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, p := range opts.IgnoreDirs {
		extraIgnore[p] = true
	}
	shouldIgnoreDir := func(name string) bool {
		return defaultIgnore[name] || extraIgnore[name]
	}

	idx := Index{Root: root}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if shouldIgnoreDir(d.Name()) && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			idx.Skipped = append(idx.Skipped, rel)
			return nil
		}
		if info.Size() > maxSize {
			idx.Skipped = append(idx.Skipped, rel)
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			idx.Skipped = append(idx.Skipped, rel)
			return nil
		}

		idx.Entries = append(idx.Entries, Entry{
			Path:  rel,
			Level: format.Detect(string(data)),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil {
		return Index{}, fmt.Errorf("docindex: walk %s: %w", root, err)
	}

	sort.Slice(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Path < idx.Entries[j].Path
	})
	return idx, nil
}

// ByLevel returns the entries at the given format level, in path order.
func (idx Index) ByLevel(level schema.FormatLevel) []Entry {
	var out []Entry
	for _, e := range idx.Entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Summary produces a human-readable text block of the inventory.
func (idx Index) Summary() string {
	var sb strings.Builder

	counts := map[schema.FormatLevel]int{}
	for _, e := range idx.Entries {
		counts[e.Level]++
	}

	fmt.Fprintf(&sb, "=== Documents (%d) ===\n", len(idx.Entries))
	for _, e := range idx.Entries {
		fmt.Fprintf(&sb, "  %s (%s)\n", e.Path, e.Level)
	}

	sb.WriteString("\n=== Levels ===\n")
	for _, level := range []schema.FormatLevel{
		schema.FormatValidCurrent,
		schema.FormatLegacySyntax,
		schema.FormatSemiStructured,
		schema.FormatRaw,
		schema.FormatUnknown,
	} {
		if n := counts[level]; n > 0 {
			fmt.Fprintf(&sb, "  %s: %d\n", level, n)
		}
	}

	if len(idx.Skipped) > 0 {
		sb.WriteString("\n=== Skipped ===\n")
		for _, s := range idx.Skipped {
			fmt.Fprintf(&sb, "  %s\n", s)
		}
	}
	return sb.String()
}
