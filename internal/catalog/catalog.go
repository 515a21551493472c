// Package catalog lists the RAW files of one folder.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"rawcull/internal/errors"
	"rawcull/internal/log"

	"github.com/cristalhq/natsort"
	"github.com/gobwas/glob"
)

// Entry is one RAW file. Path is absolute and identifies the entry.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Options controls which files are listed and how they are ordered.
type Options struct {
	// Extensions without the leading dot, matched case-insensitively.
	Extensions []string
	// NaturalSort orders IMG_2 before IMG_10.
	NaturalSort bool
}

// Catalog is the ordered set of RAW files in a directory. It is safe for
// concurrent use; Rescan swaps the entry list atomically.
type Catalog struct {
	dir     string
	opts    Options
	matcher glob.Glob

	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// Scan lists the RAW files directly inside dir. Subdirectories are not
// descended into.
func Scan(dir string, opts Options) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.NewFileError("invalid directory", dir, errors.DirectoryNotFound, err)
	}
	matcher, err := compileMatcher(opts.Extensions)
	if err != nil {
		return nil, err
	}

	c := &Catalog{dir: abs, opts: opts, matcher: matcher}
	if err := c.Rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// compileMatcher builds a pattern like "*.{raf,nef}" from the extension list.
func compileMatcher(exts []string) (glob.Glob, error) {
	if len(exts) == 0 {
		return nil, errors.NewConfigError("no RAW extensions configured", "library.extensions", errors.InvalidConfig, nil)
	}
	clean := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			clean = append(clean, e)
		}
	}
	pattern := fmt.Sprintf("*.{%s}", strings.Join(clean, ","))
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewConfigError("invalid extension pattern", "library.extensions", errors.InvalidConfig, err)
	}
	return g, nil
}

// Rescan re-reads the directory and replaces the entry list.
func (c *Catalog) Rescan() error {
	logger := log.LogWithFields(log.F("directory", c.dir))

	info, err := os.Stat(c.dir)
	if err != nil {
		return errors.NewFileError("directory not found", c.dir, errors.DirectoryNotFound, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", c.dir, errors.DirectoryNotFound, nil)
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.NewFileError("failed to read directory", c.dir, errors.DirectoryNotFound, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !c.Matches(de.Name()) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			logger.Debugf("skipping %s: %v", de.Name(), err)
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(c.dir, de.Name()),
			Name:    de.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	c.sort(entries)

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Path] = i
	}

	c.mu.Lock()
	c.entries = entries
	c.index = index
	c.mu.Unlock()

	logger.With(log.F("count", len(entries))).Info("Catalog scanned")
	return nil
}

func (c *Catalog) sort(entries []Entry) {
	if c.opts.NaturalSort {
		sort.SliceStable(entries, func(i, j int) bool {
			return natsort.Less(entries[i].Name, entries[j].Name)
		})
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// Matches reports whether name has one of the catalog's RAW extensions.
func (c *Catalog) Matches(name string) bool {
	return c.matcher.Match(strings.ToLower(name))
}

// Dir returns the absolute directory path.
func (c *Catalog) Dir() string {
	return c.dir
}

// Entries returns a copy of the entries in display order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup returns the entry with the given path.
func (c *Catalog) Lookup(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[path]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Index returns the position of path in display order, or -1.
func (c *Catalog) Index(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[path]; ok {
		return i
	}
	return -1
}
