// Package snapshot persists captured feed item sets for offline
// inspection. Snapshots are an operator tool; the render path never reads
// them.
package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/scenescope/scenescope/internal/feed"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Metadata struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	MinHeat   float64   `json:"min_heat"`
	MaxHeat   float64   `json:"max_heat"`
}

// Save writes one snapshot: metadata.json plus items.csv under a fresh
// snapshot directory. Returns the snapshot id.
func (s *Store) Save(mode string, items []feed.Item) (string, error) {
	id := fmt.Sprintf("%s_%d", mode, time.Now().Unix())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	minHeat, maxHeat := 1.0, 0.0
	for _, it := range items {
		if it.Heat < minHeat {
			minHeat = it.Heat
		}
		if it.Heat > maxHeat {
			maxHeat = it.Heat
		}
	}
	if len(items) == 0 {
		minHeat, maxHeat = 0, 0
	}

	meta := Metadata{
		ID:        id,
		Mode:      mode,
		Timestamp: time.Now(),
		Count:     len(items),
		MinHeat:   minHeat,
		MaxHeat:   maxHeat,
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "items.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	w := csv.NewWriter(csvFile)
	defer w.Flush()
	if err := w.Write([]string{"target_id", "heat"}); err != nil {
		return "", err
	}
	for _, it := range items {
		row := []string{
			strconv.Itoa(it.TargetID),
			strconv.FormatFloat(it.Heat, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Load reads one snapshot's metadata.
func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", id, err)
	}
	return &meta, nil
}

// LoadItems reads one snapshot's item set.
func (s *Store) LoadItems(id string) ([]feed.Item, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "items.csv"))
	if err != nil {
		return nil, fmt.Errorf("load snapshot items %s: %w", id, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		return nil, err
	}
	var items []feed.Item
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad target id %q: %w", rec[0], err)
		}
		heat, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad heat %q: %w", rec[1], err)
		}
		items = append(items, feed.Item{TargetID: id, Heat: heat})
	}
	return items, nil
}

// List returns all snapshots, newest first.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var metas []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		metas = append(metas, *meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Timestamp.After(metas[j].Timestamp)
	})
	return metas, nil
}

// ExportCSV writes a snapshot's item set as CSV to w, same layout as the
// stored items.csv.
func (s *Store) ExportCSV(id string, w io.Writer) error {
	items, err := s.LoadItems(id)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"target_id", "heat"}); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			strconv.Itoa(it.TargetID),
			strconv.FormatFloat(it.Heat, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes a snapshot as a single JSON document to w.
func (s *Store) ExportJSON(id string, w io.Writer) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	items, err := s.LoadItems(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata
		Items []feed.Item `json:"items"`
	}{Metadata: *meta, Items: items})
}
