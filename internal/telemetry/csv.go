// Package telemetry reads and writes per-tick player samples as CSV.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/pable/go-cs-tactics/internal/model"
)

// Header is the column order Write produces. Read accepts the columns in
// any order; the utility columns may be omitted.
var Header = []string{
	"tick", "player_id", "player_name", "side", "round",
	"x", "y", "z", "vx", "vy", "vz",
	"health", "flash_duration",
	"utility_kind", "utility_x", "utility_y", "utility_z",
}

var required = []string{"tick", "player_id", "side", "round", "x", "y", "z", "health"}

// Read parses every row into a validated sample. Row numbers in errors are
// 1-based and count the header.
func Read(r io.Reader) ([]model.TelemetrySample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read telemetry: %w: empty file", model.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read telemetry header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("read telemetry: %w: missing column %q", model.ErrInvalidInput, name)
		}
	}
	reader.FieldsPerRecord = len(header)

	var out []model.TelemetrySample
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read telemetry: %w", err)
		}
		s, err := parseRow(row{rec: rec, cols: cols})
		if err != nil {
			return nil, fmt.Errorf("telemetry row %d: %w", line, err)
		}
		out = append(out, s)
	}
	return out, nil
}

type row struct {
	rec  []string
	cols map[string]int
}

// get returns the trimmed cell for name, "" when the column is absent.
func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r row) intCol(name string) (int, error) {
	v, err := strconv.Atoi(r.get(name))
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %v", model.ErrInvalidInput, name, err)
	}
	return v, nil
}

// floatCol parses an optional numeric cell; empty means zero.
func (r row) floatCol(name string) (float64, error) {
	s := r.get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %v", model.ErrInvalidInput, name, err)
	}
	return v, nil
}

func (r row) vectorCols(x, y, z string) (r3.Vector, error) {
	var v r3.Vector
	var err error
	if v.X, err = r.floatCol(x); err != nil {
		return v, err
	}
	if v.Y, err = r.floatCol(y); err != nil {
		return v, err
	}
	v.Z, err = r.floatCol(z)
	return v, err
}

func parseRow(r row) (model.TelemetrySample, error) {
	tick, err := r.intCol("tick")
	if err != nil {
		return model.TelemetrySample{}, err
	}
	round, err := r.intCol("round")
	if err != nil {
		return model.TelemetrySample{}, err
	}
	health, err := r.intCol("health")
	if err != nil {
		return model.TelemetrySample{}, err
	}
	side, err := model.ParseSide(r.get("side"))
	if err != nil {
		return model.TelemetrySample{}, err
	}
	pos, err := r.vectorCols("x", "y", "z")
	if err != nil {
		return model.TelemetrySample{}, err
	}
	vel, err := r.vectorCols("vx", "vy", "vz")
	if err != nil {
		return model.TelemetrySample{}, err
	}
	flash, err := r.floatCol("flash_duration")
	if err != nil {
		return model.TelemetrySample{}, err
	}

	var util *model.UtilityUse
	if kind := r.get("utility_kind"); kind != "" {
		k, err := model.ParseUtilityKind(kind)
		if err != nil {
			return model.TelemetrySample{}, err
		}
		at, err := r.vectorCols("utility_x", "utility_y", "utility_z")
		if err != nil {
			return model.TelemetrySample{}, err
		}
		util = &model.UtilityUse{Kind: k, Position: at}
	}

	return model.NewTelemetrySample(tick, r.get("player_id"), r.get("player_name"), side, round,
		pos, vel, health, flash, util)
}

// Write emits samples under Header.
func Write(w io.Writer, samples []model.TelemetrySample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write telemetry header: %w", err)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, s := range samples {
		rec := []string{
			strconv.Itoa(s.Tick), s.PlayerID, s.PlayerName, s.Side.String(), strconv.Itoa(s.RoundNumber),
			f(s.Position.X), f(s.Position.Y), f(s.Position.Z),
			f(s.Velocity.X), f(s.Velocity.Y), f(s.Velocity.Z),
			strconv.Itoa(s.Health), f(s.FlashDuration),
			"", "", "", "",
		}
		if u := s.Utility; u != nil {
			rec[13], rec[14], rec[15], rec[16] = u.Kind.String(), f(u.Position.X), f(u.Position.Y), f(u.Position.Z)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write telemetry tick %d: %w", s.Tick, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
