package checkpoint

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/notargets/qdata/quadrature"
)

// Record describes one saved field without its data
type Record struct {
	RunID     string
	Field     string
	Cycle     int
	Time      float64
	Width     int
	Points    int
	Elements  int
	Signature string
}

// Words returns the number of float64 words in the saved blob
func (r Record) Words() int {
	return r.Points * r.Width
}

// Signature fingerprints the per-element point counts of a layout. Two
// layouts with equal signatures index their data identically.
func Signature(l *quadrature.Layout) string {
	counts := l.Counts()
	buf := make([]byte, 0, 8*len(counts))
	for _, n := range counts {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n))
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// canonicalField normalises field names so visually equal names share a key
func canonicalField(name string) (string, error) {
	f := strings.TrimSpace(norm.NFC.String(name))
	if f == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return f, nil
}

// Save writes the contents of data as field at cycle for the current run.
// Saving a record twice overwrites it. Saving None writes nothing.
func (s *Store) Save(ctx context.Context, field string, cycle int, t float64, data quadrature.Store) error {
	run, err := s.currentRun()
	if err != nil {
		return err
	}
	f, err := canonicalField(field)
	if err != nil {
		return err
	}
	data = quadrature.OrNone(data)
	if data.Empty() {
		slog.Debug("checkpoint skipped empty store", "field", f, "cycle", cycle)
		return nil
	}
	l := data.Layout()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
		(run_id, field, cycle, time, width, points, elements, signature, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, field, cycle) DO UPDATE SET
			time = excluded.time,
			width = excluded.width,
			points = excluded.points,
			elements = excluded.elements,
			signature = excluded.signature,
			data = excluded.data
	`,
		run,
		f,
		cycle,
		t,
		data.Width(),
		data.Len(),
		l.ElementCount(),
		Signature(l),
		encodeWords(data.Raw()),
	)
	if err != nil {
		return fmt.Errorf("save %s cycle %d: %w", f, cycle, err)
	}
	slog.Info("checkpoint saved", "run", run, "field", f, "cycle", cycle, "points", data.Len())
	return nil
}

// Load restores field at cycle of the current run into data. The saved
// record must have been written from a store with the same layout and width.
// Loading into None reads nothing.
func (s *Store) Load(ctx context.Context, field string, cycle int, data quadrature.Store) (Record, error) {
	data = quadrature.OrNone(data)
	if data.Empty() {
		slog.Debug("checkpoint load skipped for empty store", "field", field, "cycle", cycle)
		return Record{}, nil
	}
	rec, words, err := s.Fetch(ctx, field, cycle)
	if err != nil {
		return Record{}, err
	}
	l := data.Layout()
	switch {
	case rec.Width != data.Width():
		return rec, fmt.Errorf("%w: width %d, store has %d", ErrLayoutMismatch, rec.Width, data.Width())
	case rec.Points != data.Len():
		return rec, fmt.Errorf("%w: %d points, store has %d", ErrLayoutMismatch, rec.Points, data.Len())
	case rec.Elements != l.ElementCount():
		return rec, fmt.Errorf("%w: %d elements, store has %d", ErrLayoutMismatch, rec.Elements, l.ElementCount())
	case rec.Signature != Signature(l):
		return rec, fmt.Errorf("%w: per-element point counts differ", ErrLayoutMismatch)
	}
	copy(data.Raw(), words)
	slog.Debug("checkpoint loaded", "run", rec.RunID, "field", rec.Field, "cycle", cycle)
	return rec, nil
}

// Fetch reads field at cycle of the current run as raw words
func (s *Store) Fetch(ctx context.Context, field string, cycle int) (Record, []float64, error) {
	run, err := s.currentRun()
	if err != nil {
		return Record{}, nil, err
	}
	f, err := canonicalField(field)
	if err != nil {
		return Record{}, nil, err
	}
	rec := Record{RunID: run, Field: f, Cycle: cycle}
	var blob []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT time, width, points, elements, signature, data
		FROM records
		WHERE run_id = ? AND field = ? AND cycle = ?
	`, run, f, cycle).Scan(&rec.Time, &rec.Width, &rec.Points, &rec.Elements, &rec.Signature, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, fmt.Errorf("%w: %s cycle %d", ErrNotFound, f, cycle)
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("fetch %s cycle %d: %w", f, cycle, err)
	}
	words, err := decodeWords(blob, rec.Words())
	if err != nil {
		return Record{}, nil, fmt.Errorf("fetch %s cycle %d: %w", f, cycle, err)
	}
	return rec, words, nil
}

// Latest returns the record of field with the highest cycle in the current run
func (s *Store) Latest(ctx context.Context, field string) (Record, error) {
	run, err := s.currentRun()
	if err != nil {
		return Record{}, err
	}
	f, err := canonicalField(field)
	if err != nil {
		return Record{}, err
	}
	rec := Record{RunID: run, Field: f}
	err = s.db.QueryRowContext(ctx, `
		SELECT cycle, time, width, points, elements, signature
		FROM records
		WHERE run_id = ? AND field = ?
		ORDER BY cycle DESC
		LIMIT 1
	`, run, f).Scan(&rec.Cycle, &rec.Time, &rec.Width, &rec.Points, &rec.Elements, &rec.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, f)
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest %s: %w", f, err)
	}
	return rec, nil
}

// List returns every record in the database ordered by run, field and cycle
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.field, r.cycle, r.time, r.width, r.points, r.elements, r.signature
		FROM records r
		JOIN runs ON runs.id = r.run_id
		ORDER BY runs.created_at, r.run_id, r.field, r.cycle
	`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RunID, &rec.Field, &rec.Cycle, &rec.Time,
			&rec.Width, &rec.Points, &rec.Elements, &rec.Signature); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func encodeWords(words []float64) []byte {
	buf := make([]byte, 0, 8*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(w))
	}
	return buf
}

func decodeWords(blob []byte, n int) ([]float64, error) {
	if len(blob) != 8*n {
		return nil, fmt.Errorf("blob holds %d bytes, want %d", len(blob), 8*n)
	}
	words := make([]float64, n)
	for i := range words {
		words[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return words, nil
}
