package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"VolPulse/internal/domain/models"
	applogger "VolPulse/pkg/logger"
)

// historyDocument is the on-disk snapshot format. Timestamps are RFC3339
// so snapshots stay readable and portable across restarts.
type historyDocument struct {
	SavedAt time.Time                     `json:"saved_at"`
	Series  map[string][]historyPointJSON `json:"series"`
}

type historyPointJSON struct {
	Timestamp time.Time `json:"ts"`
	IV        float64   `json:"iv"`
}

// FileHistoryStore persists volatility history as a single JSON snapshot.
// Writes go through a temp file and rename so a crash mid-save never
// truncates the previous snapshot.
type FileHistoryStore struct {
	path string
	l    *applogger.Logger
}

func NewFileHistoryStore(path string, l *applogger.Logger) *FileHistoryStore {
	return &FileHistoryStore{path: path, l: l}
}

func (s *FileHistoryStore) Save(_ context.Context, history map[string][]models.HistoryPoint) error {
	doc := historyDocument{
		SavedAt: time.Now().UTC(),
		Series:  make(map[string][]historyPointJSON, len(history)),
	}
	for symbol, points := range history {
		series := make([]historyPointJSON, len(points))
		for i, p := range points {
			series[i] = historyPointJSON{Timestamp: p.Timestamp, IV: p.IV}
		}
		doc.Series[symbol] = series
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("history temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close history temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history snapshot: %w", err)
	}

	if s.l != nil {
		s.l.Debug("history snapshot written",
			applogger.String("path", s.path),
			applogger.Int("instruments", len(history)),
		)
	}
	return nil
}

// Load reads the latest snapshot. A missing file is treated as an empty
// history so first boot works without any provisioning step.
func (s *FileHistoryStore) Load(_ context.Context) (map[string][]models.HistoryPoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]models.HistoryPoint{}, nil
		}
		return nil, fmt.Errorf("read history snapshot: %w", err)
	}

	var doc historyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode history snapshot: %w", err)
	}

	out := make(map[string][]models.HistoryPoint, len(doc.Series))
	for symbol, series := range doc.Series {
		points := make([]models.HistoryPoint, len(series))
		for i, p := range series {
			points[i] = models.HistoryPoint{Timestamp: p.Timestamp, IV: p.IV}
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
		out[symbol] = points
	}
	return out, nil
}

func (s *FileHistoryStore) Health(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("history dir unavailable: %w", err)
	}
	return nil
}

func (s *FileHistoryStore) Close() error { return nil }
