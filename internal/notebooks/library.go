// File: internal/notebooks/library.go

// Package notebooks keeps a small local registry of NotebookLM notebooks so
// research runs can name a notebook by id instead of pasting URLs. The
// library is a JSON file under the data dir; the "active" notebook is the
// default target when neither --notebook-url nor --notebook-id is given.
package notebooks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const libraryFile = "library.json"

// Notebook is one registered notebook.
type Notebook struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	URL   string    `json:"url"`
	Added time.Time `json:"added"`
}

// Library is the on-disk notebook registry. Not safe for concurrent use;
// the CLI is single-user, single-process.
type Library struct {
	path    string
	Active  string              `json:"active"`
	Entries map[string]Notebook `json:"notebooks"`
}

// Open loads the library from dataDir, creating an empty one when the file
// does not exist yet.
func Open(dataDir string) (*Library, error) {
	lib := &Library{
		path:    filepath.Join(dataDir, libraryFile),
		Entries: map[string]Notebook{},
	}
	data, err := os.ReadFile(lib.path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("reading notebook library: %w", err)
	}
	if err := json.Unmarshal(data, lib); err != nil {
		return nil, fmt.Errorf("parsing notebook library %s: %w", lib.path, err)
	}
	if lib.Entries == nil {
		lib.Entries = map[string]Notebook{}
	}
	return lib, nil
}

// Save writes the library back to disk.
func (l *Library) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding notebook library: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return fmt.Errorf("writing notebook library: %w", err)
	}
	return nil
}

// Add registers a notebook. The first notebook added becomes active.
func (l *Library) Add(id, name, url string) error {
	if id == "" || url == "" {
		return fmt.Errorf("notebook id and url are required")
	}
	if _, exists := l.Entries[id]; exists {
		return fmt.Errorf("notebook %q already registered", id)
	}
	l.Entries[id] = Notebook{ID: id, Name: name, URL: url, Added: time.Now().UTC()}
	if l.Active == "" {
		l.Active = id
	}
	return nil
}

// Remove deletes a notebook, clearing the active marker if it pointed there.
func (l *Library) Remove(id string) error {
	if _, exists := l.Entries[id]; !exists {
		return fmt.Errorf("notebook %q not found", id)
	}
	delete(l.Entries, id)
	if l.Active == id {
		l.Active = ""
	}
	return nil
}

// Get looks a notebook up by id.
func (l *Library) Get(id string) (Notebook, bool) {
	nb, ok := l.Entries[id]
	return nb, ok
}

// SetActive marks the default notebook for future runs.
func (l *Library) SetActive(id string) error {
	if _, exists := l.Entries[id]; !exists {
		return fmt.Errorf("notebook %q not found", id)
	}
	l.Active = id
	return nil
}

// ActiveNotebook returns the active notebook, if one is set.
func (l *Library) ActiveNotebook() (Notebook, bool) {
	if l.Active == "" {
		return Notebook{}, false
	}
	return l.Get(l.Active)
}

// List returns all notebooks sorted by id.
func (l *Library) List() []Notebook {
	out := make([]Notebook, 0, len(l.Entries))
	for _, nb := range l.Entries {
		out = append(out, nb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
