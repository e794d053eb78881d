// Package roster loads the enrolled-student spreadsheet: a name-keyed lookup of
// each student's CID and UID.
package roster

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/xuri/excelize/v2"
)

var log = event.Log

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("roster is missing a required column")

	// ErrDuplicateName is returned when two rows share the same Name.
	ErrDuplicateName = errors.New("roster names must be unique")
)

// Entry is one enrolled student.
type Entry struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
	UID  string `json:"uid"`
}

// Roster maps student names to their identifiers. Read-only after loading.
type Roster struct {
	entries    map[string]Entry
	normalized map[string]string // normalized name -> exact name, ambiguous keys removed
}

// New builds a roster from entries. Names must be unique.
func New(entries []Entry) (*Roster, error) {
	r := &Roster{
		entries:    make(map[string]Entry, len(entries)),
		normalized: make(map[string]string, len(entries)),
	}

	ambiguous := make(map[string]bool)
	for _, e := range entries {
		if _, ok := r.entries[e.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		r.entries[e.Name] = e

		key := facematch.NormalizePersonName(e.Name)
		if _, ok := r.normalized[key]; ok {
			ambiguous[key] = true
		}
		r.normalized[key] = e.Name
	}
	for key := range ambiguous {
		delete(r.normalized, key)
	}

	return r, nil
}

// Lookup returns the entry for name. An exact match wins; otherwise a name that
// differs only in case, diacritics or separators ("jan_novak" for "Jan Novák")
// is accepted as long as it is unambiguous.
func (r *Roster) Lookup(name string) (Entry, bool) {
	if e, ok := r.entries[name]; ok {
		return e, true
	}
	if exact, ok := r.normalized[facematch.NormalizePersonName(name)]; ok {
		return r.entries[exact], true
	}
	return Entry{}, false
}

// Len returns the number of enrolled students.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Entries returns all entries sorted by name.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load reads a roster workbook from path. sheet may be empty to use the first sheet.
func Load(path, sheet string) (*Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	r, err := read(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	log.Infof("roster: loaded %d students from %s", r.Len(), path)
	return r, nil
}

// Read parses a roster workbook from r.
func Read(rd io.Reader, sheet string) (*Roster, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	return read(f, sheet)
}

func read(f *excelize.File, sheet string) (*Roster, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMissingColumn, sheet)
	}

	nameCol, cidCol, uidCol, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			Name: name,
			CID:  strings.TrimSpace(cell(row, cidCol)),
			UID:  strings.TrimSpace(cell(row, uidCol)),
		})
	}

	return New(entries)
}

// headerColumns locates the Name, CID and UID columns in the header row.
func headerColumns(header []string) (name, cid, uid int, err error) {
	name, cid, uid = -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case constants.RosterNameColumn:
			name = i
		case constants.RosterCIDColumn:
			cid = i
		case constants.RosterUIDColumn:
			uid = i
		}
	}

	var missing []string
	if name < 0 {
		missing = append(missing, constants.RosterNameColumn)
	}
	if cid < 0 {
		missing = append(missing, constants.RosterCIDColumn)
	}
	if uid < 0 {
		missing = append(missing, constants.RosterUIDColumn)
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return name, cid, uid, nil
}

// cell returns row[i], or "" when excelize trimmed trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
