package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

type field int

const (
	fieldSubject field = iota
	fieldTime
	fieldX
	fieldY
	fieldZ
	fieldTeam
	fieldYaw
	fieldPitch
	fieldCrouching
	fieldAirborne
	fieldWeapon
	fieldCount
)

// columnAliases maps lower-cased header names onto fields. The first alias is
// the name used in error messages.
var columnAliases = [fieldCount][]string{
	fieldSubject:   {"PlayerName", "SubjectId", "Player"},
	fieldTime:      {"GameTimeMs", "TimeMs"},
	fieldX:         {"X"},
	fieldY:         {"Y"},
	fieldZ:         {"Z"},
	fieldTeam:      {"Team"},
	fieldYaw:       {"FacingYaw", "Yaw"},
	fieldPitch:     {"FacingPitch", "Pitch"},
	fieldCrouching: {"IsCrouching", "Crouching"},
	fieldAirborne:  {"IsAirborne", "Airborne"},
	fieldWeapon:    {"CurrentWeapon", "Weapon"},
}

var requiredFields = []field{fieldSubject, fieldTime, fieldX, fieldY, fieldZ}

func (f field) String() string {
	return columnAliases[f][0]
}

// columnIndex holds the position of each field in a row, -1 when absent.
type columnIndex [fieldCount]int

func indexHeader(header []string) (columnIndex, error) {
	var idx columnIndex
	for i := range idx {
		idx[i] = -1
	}

	lookup := make(map[string]field)
	for f, aliases := range columnAliases {
		for _, a := range aliases {
			lookup[strings.ToLower(a)] = field(f)
		}
	}

	for i, name := range header {
		f, ok := lookup[strings.ToLower(strings.TrimSpace(name))]
		if !ok || idx[f] != -1 {
			continue
		}
		idx[f] = i
	}

	for _, f := range requiredFields {
		if idx[f] == -1 {
			return idx, &FormatError{Column: f.String(), Reason: "required column missing from header"}
		}
	}
	return idx, nil
}

func (idx columnIndex) cell(row []string, f field) string {
	i := idx[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseIntFromFloat parses a string that may be an integer ("1000") or an
// integral float ("1000.00") into int64. Exporters that go through a
// spreadsheet tend to write every number as a float.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("parseBool: %q is not a boolean", s)
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
