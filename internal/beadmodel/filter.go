package beadmodel

import (
	"sort"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Filter is the pure, seven-stage AND-semantics pipeline of §4.9. A zero
// Filter (all sets empty, AgeDays 0, Search "") is the pass-through
// identity.
type Filter struct {
	Statuses        map[Status]bool
	Priorities      map[Priority]bool
	Types           map[IssueType]bool
	SessionStates   map[SessionState]bool // evaluated with hasSession=false treated as SessionIdle
	HideEpicChildren bool
	AgeDays         int // 0 = disabled; retains beads where now-updated_at > AgeDays days
	Search          string
}

// SessionLookup resolves whether a bead has a session and what state it is in.
type SessionLookup func(beadID string) (state SessionState, ok bool)

// Apply runs the filter pipeline in the fixed §4.9 order. now is passed in
// explicitly so the pipeline stays pure and testable.
func Apply(beads []Bead, f Filter, lookup SessionLookup, now time.Time) []Bead {
	out := make([]Bead, 0, len(beads))
	for _, b := range beads {
		if len(f.Statuses) > 0 && !f.Statuses[b.Status] {
			continue
		}
		if len(f.Priorities) > 0 && !f.Priorities[b.Priority] {
			continue
		}
		if len(f.Types) > 0 && !f.Types[b.IssueType] {
			continue
		}
		if len(f.SessionStates) > 0 {
			state, ok := SessionIdle, false
			if lookup != nil {
				state, ok = lookup(b.ID)
			}
			if !ok {
				state = SessionIdle
			}
			if !f.SessionStates[state] {
				continue
			}
		}
		if f.HideEpicChildren && b.ParentID != "" {
			continue
		}
		if f.AgeDays > 0 {
			age := now.Sub(b.UpdatedAt)
			if age <= time.Duration(f.AgeDays)*24*time.Hour {
				continue
			}
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(b.Title), q) && !strings.Contains(strings.ToLower(b.ID), q) {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// ParseAgeQuery turns free text ("2 weeks", "since monday", or a bare
// integer) into a day count, extending §4.9's bare-integer Age filter per
// SPEC_FULL.md's supplemented natural-language entry.
func ParseAgeQuery(text string, ref time.Time) (days int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if n, err := parseIntStrict(text); err == nil && n >= 0 {
		return n, true
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	result, err := w.Parse(text, ref)
	if err != nil || result == nil {
		return 0, false
	}
	d := ref.Sub(result.Time)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour)), true
}

func parseIntStrict(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotInt
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 && s != "0" {
		return 0, errNotInt
	}
	return n, nil
}

var errNotInt = &notIntError{}

type notIntError struct{}

func (*notIntError) Error() string { return "not an integer" }

// SortField selects the board's sort key.
type SortField int

const (
	SortSession SortField = iota
	SortPriority
	SortUpdated
)

// Sort orders beads in place per field, stably. Session ordering and
// Priority ordering are defined in SessionState/Priority; Updated is
// newer-first.
func Sort(beads []Bead, field SortField, lookup SessionLookup) {
	switch field {
	case SortSession:
		sort.SliceStable(beads, func(i, j int) bool {
			si, oki := SessionIdle, false
			sj, okj := SessionIdle, false
			if lookup != nil {
				si, oki = lookup(beads[i].ID)
				sj, okj = lookup(beads[j].ID)
			}
			return sessionRank(si, oki) > sessionRank(sj, okj)
		})
	case SortPriority:
		sort.SliceStable(beads, func(i, j int) bool {
			return beads[i].Priority < beads[j].Priority
		})
	case SortUpdated:
		sort.SliceStable(beads, func(i, j int) bool {
			return beads[i].UpdatedAt.After(beads[j].UpdatedAt)
		})
	}
}
