// Package telemetry holds the ordered per-subject sample sequences of one
// replay. A Store is built once from a parsed feed and is read-only after.
package telemetry

import (
	"math"
	"strconv"

	"github.com/carnagereport/theater/pkg/core"
)

// Feed is a parsed telemetry table as handed over by a source.
type Feed struct {
	Header []string
	Rows   [][]string
}

// Bounds is the time range covered by a store.
type Bounds struct {
	MinTimeMs int64
	MaxTimeMs int64
}

// DurationMs is the span between the first and last sample.
func (b Bounds) DurationMs() int64 {
	return b.MaxTimeMs - b.MinTimeMs
}

// Store owns the samples of one replay.
type Store struct {
	subjects []string
	teams    map[string]core.Team
	samples  map[string][]core.Sample
	bounds   Bounds
	count    int
}

// Load parses a feed into a Store. Any malformed header or cell fails the
// whole load; there is no partial store.
func Load(feed Feed) (*Store, error) {
	idx, err := indexHeader(feed.Header)
	if err != nil {
		return nil, err
	}

	s := &Store{
		teams:   make(map[string]core.Team),
		samples: make(map[string][]core.Sample),
		bounds:  Bounds{MinTimeMs: math.MaxInt64, MaxTimeMs: math.MinInt64},
	}

	for i, row := range feed.Rows {
		sample, err := parseRow(idx, row, i+1)
		if err != nil {
			return nil, err
		}

		prev, seen := s.samples[sample.SubjectID]
		if !seen {
			s.subjects = append(s.subjects, sample.SubjectID)
		}
		if n := len(prev); n > 0 && sample.TimeMs < prev[n-1].TimeMs {
			return nil, &FormatError{
				Column: fieldTime.String(),
				Row:    i + 1,
				Value:  strconv.FormatInt(sample.TimeMs, 10),
				Reason: "timestamps must not decrease for subject " + sample.SubjectID,
			}
		}
		if _, ok := s.teams[sample.SubjectID]; !ok || s.teams[sample.SubjectID] == core.TeamNone {
			s.teams[sample.SubjectID] = sample.Team
		}

		s.samples[sample.SubjectID] = append(prev, sample)
		s.bounds.MinTimeMs = min(s.bounds.MinTimeMs, sample.TimeMs)
		s.bounds.MaxTimeMs = max(s.bounds.MaxTimeMs, sample.TimeMs)
		s.count++
	}

	if s.count == 0 {
		s.bounds = Bounds{}
	}
	return s, nil
}

func parseRow(idx columnIndex, row []string, rowNum int) (core.Sample, error) {
	var sample core.Sample
	var err error

	fail := func(f field, reason string) (core.Sample, error) {
		return sample, &FormatError{Column: f.String(), Row: rowNum, Value: idx.cell(row, f), Reason: reason}
	}

	sample.SubjectID = idx.cell(row, fieldSubject)
	if sample.SubjectID == "" {
		return fail(fieldSubject, "empty subject id")
	}

	sample.TimeMs, err = parseIntFromFloat(idx.cell(row, fieldTime))
	if err != nil {
		return fail(fieldTime, "not an integer millisecond timestamp")
	}

	coords := [3]*float64{&sample.Position.X, &sample.Position.Y, &sample.Position.Z}
	for i, f := range []field{fieldX, fieldY, fieldZ} {
		*coords[i], err = strconv.ParseFloat(idx.cell(row, f), 64)
		if err != nil {
			return fail(f, "not a number")
		}
	}

	sample.Team = core.ParseTeam(idx.cell(row, fieldTeam))

	if sample.FacingYaw, err = parseOptionalFloat(idx.cell(row, fieldYaw)); err != nil {
		return fail(fieldYaw, "not a number")
	}
	if sample.FacingPitch, err = parseOptionalFloat(idx.cell(row, fieldPitch)); err != nil {
		return fail(fieldPitch, "not a number")
	}
	if sample.Crouching, err = parseBool(idx.cell(row, fieldCrouching)); err != nil {
		return fail(fieldCrouching, "not a boolean")
	}
	if sample.Airborne, err = parseBool(idx.cell(row, fieldAirborne)); err != nil {
		return fail(fieldAirborne, "not a boolean")
	}
	sample.Weapon = idx.cell(row, fieldWeapon)

	return sample, nil
}

// SamplesFor returns the ordered samples of one subject. The slice is the
// store's own backing array and must not be modified. Unknown subjects get nil.
func (s *Store) SamplesFor(subjectID string) []core.Sample {
	return s.samples[subjectID]
}

// Subjects returns subject ids in first-appearance order.
func (s *Store) Subjects() []string {
	out := make([]string, len(s.subjects))
	copy(out, s.subjects)
	return out
}

// Has reports whether the subject has at least one sample.
func (s *Store) Has(subjectID string) bool {
	return len(s.samples[subjectID]) > 0
}

// Team returns the first non-empty team recorded for a subject.
func (s *Store) Team(subjectID string) core.Team {
	return s.teams[subjectID]
}

// Bounds returns the time range of the whole feed.
func (s *Store) Bounds() Bounds {
	return s.bounds
}

// Len is the total number of samples.
func (s *Store) Len() int {
	return s.count
}
