package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"dca-backtest/internal/model"
)

// Supported tick file extensions.
const (
	ExtCSV  = ".csv"
	ExtJSON = ".json"
)

// LoadTicks reads a tick file. CSV files hold timestamp,qty,price rows (an
// optional header is skipped); JSON files hold a dense [[ts,qty,price],...]
// array. The stream is validated before it is returned.
func LoadTicks(path string) ([]model.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ticks []model.Tick
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		ticks, err = ParseTicksCSV(f)
	case ExtJSON:
		ticks, err = ParseTicksJSON(f)
	default:
		return nil, model.DataError("unsupported tick file %q (want .csv or .json)", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := model.ValidateTicks(ticks); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ticks, nil
}

func ParseTicksCSV(r io.Reader) ([]model.Tick, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var ticks []model.Tick
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.DataError("csv: %v", err)
		}
		ts, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			if line == 1 {
				// header
				continue
			}
			return nil, model.DataError("csv line %d: bad timestamp %q", line, rec[0])
		}
		qty, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, model.DataError("csv line %d: bad qty %q", line, rec[1])
		}
		price, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, model.DataError("csv line %d: bad price %q", line, rec[2])
		}
		ticks = append(ticks, model.Tick{Timestamp: ts, Qty: qty, Price: price})
	}
	return ticks, nil
}

func ParseTicksJSON(r io.Reader) ([]model.Tick, error) {
	var ticks []model.Tick
	if err := json.NewDecoder(r).Decode(&ticks); err != nil {
		return nil, model.DataError("json: %v", err)
	}
	return ticks, nil
}

// SampleTicks buckets ticks into intervalMS windows: quantity is summed, the
// price is the last trade of the window and the timestamp is the window start.
// intervalMS <= 0 returns ticks unchanged.
func SampleTicks(ticks []model.Tick, intervalMS int64) []model.Tick {
	if intervalMS <= 0 || len(ticks) == 0 {
		return ticks
	}
	out := make([]model.Tick, 0, len(ticks)/4+1)
	for _, t := range ticks {
		bucket := floorDiv(t.Timestamp, intervalMS) * intervalMS
		if n := len(out); n > 0 && out[n-1].Timestamp == bucket {
			out[n-1].Qty += t.Qty
			out[n-1].Price = t.Price
			continue
		}
		out = append(out, model.Tick{Timestamp: bucket, Qty: t.Qty, Price: t.Price})
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// TickFile describes a tick file available for backtests.
type TickFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Format  string    `json:"format"`
	Size    int64     `json:"size_bytes"`
	ModTime time.Time `json:"modified_at"`
}

// ListTickFiles returns the .csv and .json files directly under dir, sorted
// by name.
func ListTickFiles(dir string) ([]TickFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []TickFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ExtCSV && ext != ExtJSON {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, TickFile{
			Name:    strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:    filepath.Join(dir, e.Name()),
			Format:  strings.TrimPrefix(ext, "."),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
