// Package rows persists the structured harvest output as append-only
// line-delimited JSON files. Rows are appended as produced, not buffered to
// end-of-run, so a crash loses at most the in-flight page; the same files
// are read back by the loader for the bulk upsert.
package rows

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/venue"
)

// File names inside the rows directory.
const (
	RestaurantsFile = "restaurants.jsonl"
	MenusFile       = "menus.jsonl"
	MenuItemsFile   = "menu_items.jsonl"
)

// Sink receives rows incrementally as the harvest produces them.
type Sink interface {
	AppendRestaurant(v venue.Venue) error
	AppendMenu(m menu.Menu) error
	AppendItems(items []menu.Item) error
}

// Writer is the filesystem Sink: one JSONL file per table, opened for
// append so interrupted runs resume without rewriting prior output.
type Writer struct {
	mu          sync.Mutex
	restaurants *os.File
	menus       *os.File
	items       *os.File
}

// Open creates (or re-opens) the rows directory for appending.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create rows dir: %w", err)
	}
	w := &Writer{}
	for _, bind := range []struct {
		name string
		dst  **os.File
	}{
		{RestaurantsFile, &w.restaurants},
		{MenusFile, &w.menus},
		{MenuItemsFile, &w.items},
	} {
		f, err := os.OpenFile(filepath.Join(dir, bind.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("open %s: %w", bind.name, err)
		}
		*bind.dst = f
	}
	return w, nil
}

// AppendRestaurant writes one restaurant row.
func (w *Writer) AppendRestaurant(v venue.Venue) error {
	return w.appendLine(w.restaurants, v)
}

// AppendMenu writes one menu row.
func (w *Writer) AppendMenu(m menu.Menu) error {
	return w.appendLine(w.menus, m)
}

// AppendItems writes the items of one parsed page.
func (w *Writer) AppendItems(items []menu.Item) error {
	for _, item := range items {
		if err := w.appendLine(w.items, item); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) appendLine(f *os.File, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// Close releases all file handles.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, f := range []*os.File{w.restaurants, w.menus, w.items} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.restaurants, w.menus, w.items = nil, nil, nil
	return firstErr
}

// ReadRestaurants loads every restaurant row from dir.
func ReadRestaurants(dir string) ([]venue.Venue, error) {
	return readJSONL[venue.Venue](filepath.Join(dir, RestaurantsFile))
}

// ReadMenus loads every menu row from dir.
func ReadMenus(dir string) ([]menu.Menu, error) {
	return readJSONL[menu.Menu](filepath.Join(dir, MenusFile))
}

// ReadItems loads every menu-item row from dir.
func ReadItems(dir string) ([]menu.Item, error) {
	return readJSONL[menu.Item](filepath.Join(dir, MenuItemsFile))
}

func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("decode row in %s: %w", path, err)
		}
		out = append(out, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
