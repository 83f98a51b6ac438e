package overtime

import (
	"sort"
	"strings"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// RAW INPUT
// =============================================================================

// RawEntry is an entry as handed over by a parsing collaborator.
// Start and End are "15:04", "15:04:05", RFC 3339, or "2006-01-02 15:04".
// End may be "24:00" for work that runs until midnight.
type RawEntry struct {
	CaseReference string
	ActivityLabel string
	Start         string
	End           string
}

// RawDay groups the raw entries of one worker on one date.
type RawDay struct {
	WorkerID     WorkerID
	EmployeeType EmployeeType
	Date         generic.Date
	Entries      []RawEntry
}

// =============================================================================
// NORMALIZER
// =============================================================================

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalize validates and sorts a raw day. It returns *EntryError for
// unparsable or inverted entries and *OverlapError for intersecting ones.
//
// Timestamps carrying a UTC offset are read in the offset of the day's
// earliest such timestamp, so durations are elapsed time even when a day
// mixes offsets or crosses a daylight-saving change.
func Normalize(raw RawDay) (WorkerDay, error) {
	day := WorkerDay{
		WorkerID:     raw.WorkerID,
		EmployeeType: raw.EmployeeType,
		Date:         raw.Date,
		Entries:      make([]TimeEntry, 0, len(raw.Entries)),
	}
	entryErr := func(i int, reason string) error {
		re := raw.Entries[i]
		return &EntryError{Worker: raw.WorkerID, Date: raw.Date, Index: i,
			Start: re.Start, End: re.End, Reason: reason}
	}

	stamps := make([][2]stamp, len(raw.Entries))
	var (
		ref      *time.Location
		earliest time.Time
	)
	for i, re := range raw.Entries {
		start, err := parseStamp(raw.Date, re.Start, false)
		if err != nil {
			return WorkerDay{}, entryErr(i, "start: "+err.Error())
		}
		end, err := parseStamp(raw.Date, re.End, true)
		if err != nil {
			return WorkerDay{}, entryErr(i, "end: "+err.Error())
		}
		stamps[i] = [2]stamp{start, end}
		for _, st := range stamps[i] {
			if st.zoned && (ref == nil || st.t.Before(earliest)) {
				earliest = st.t
				_, offset := st.t.Zone()
				ref = time.FixedZone("", offset)
			}
		}
	}

	for i, re := range raw.Entries {
		start, err := stamps[i][0].place(raw.Date, ref, false)
		if err != nil {
			return WorkerDay{}, entryErr(i, "start: "+err.Error())
		}
		end, err := stamps[i][1].place(raw.Date, ref, true)
		if err != nil {
			return WorkerDay{}, entryErr(i, "end: "+err.Error())
		}
		if !end.After(start) {
			return WorkerDay{}, entryErr(i, "end is not after start")
		}

		day.Entries = append(day.Entries, TimeEntry{
			CaseReference: strings.TrimSpace(re.CaseReference),
			ActivityLabel: strings.TrimSpace(re.ActivityLabel),
			Start:         start,
			End:           end,
			Duration:      end.Sub(start),
		})
	}

	sort.SliceStable(day.Entries, func(i, j int) bool {
		return day.Entries[i].Start.Before(day.Entries[j].Start)
	})

	for i := 1; i < len(day.Entries); i++ {
		prev, cur := day.Entries[i-1], day.Entries[i]
		if cur.Start.Before(prev.End) {
			return WorkerDay{}, &OverlapError{Worker: raw.WorkerID, Date: raw.Date, First: prev, Second: cur}
		}
	}

	return day, nil
}

type dateMismatch struct{ got generic.Date }

func (e dateMismatch) Error() string { return "belongs to " + e.got.String() }

// stamp is a parsed raw timestamp before it is placed on the day.
type stamp struct {
	t     time.Time
	zoned bool // carried an explicit UTC offset
}

// parseStamp parses a bare time of day or a full timestamp. Bare times
// are placed on date directly.
func parseStamp(date generic.Date, s string, isEnd bool) (stamp, error) {
	s = strings.TrimSpace(s)
	if c, err := generic.ParseClock(s); err == nil {
		if c == generic.EndOfDay && !isEnd {
			return stamp{}, generic.ErrInvalidClock
		}
		return stamp{t: date.At(c)}, nil
	}

	var lastErr error
	for i, layout := range instantLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			lastErr = err
			continue
		}
		return stamp{t: t, zoned: i == 0}, nil
	}
	return stamp{}, lastErr
}

// place resolves a stamp to an instant on date, in UTC wall-clock terms.
// Zoned stamps are first read in ref. A full timestamp must name the same
// calendar day; midnight of the next day is allowed for ends only.
func (st stamp) place(date generic.Date, ref *time.Location, isEnd bool) (time.Time, error) {
	t := st.t
	if st.zoned {
		t = t.In(ref)
	}
	got := generic.DateOf(t)
	clock := generic.ClockOf(t)
	if got == date {
		return date.At(clock), nil
	}
	if isEnd && clock == 0 && got == date.AddDays(1) {
		return date.At(generic.EndOfDay), nil
	}
	return time.Time{}, dateMismatch{got: got}
}
