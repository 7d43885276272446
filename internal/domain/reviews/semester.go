package reviews

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
)

// Season end months. A review becomes locked for author edits once the
// current date is past the end month of its labeled year.
var seasonEndMonth = map[Season]time.Month{
	SeasonSpring: time.May,
	SeasonSummer: time.August,
	SeasonFall:   time.December,
	SeasonWinter: time.February,
}

type Semester struct {
	Season Season
	Year   int
}

func (s Semester) String() string {
	return fmt.Sprintf("%s %d", s.Season, s.Year)
}

// ParseSemester accepts exactly "{Spring|Summer|Fall|Winter} <4-digit year>".
// Anything else is invalid input at creation time.
func ParseSemester(label string) (Semester, error) {
	parts := strings.Fields(strings.TrimSpace(label))
	if len(parts) != 2 {
		return Semester{}, fmt.Errorf("semester label %q: want \"Season Year\"", label)
	}
	season := Season(parts[0])
	if _, ok := seasonEndMonth[season]; !ok {
		return Semester{}, fmt.Errorf("semester label %q: unknown season %q", label, parts[0])
	}
	if len(parts[1]) != 4 {
		return Semester{}, fmt.Errorf("semester label %q: year must be four digits", label)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return Semester{}, fmt.Errorf("semester label %q: bad year: %w", label, err)
	}
	return Semester{Season: season, Year: year}, nil
}

// Locked reports whether the semester has closed as of now. Past years are
// always locked, future years always open; within the labeled year the
// semester locks once the current month is past its end month.
func (s Semester) Locked(now time.Time) bool {
	end, ok := seasonEndMonth[s.Season]
	if !ok {
		return true
	}
	switch {
	case s.Year < now.Year():
		return true
	case s.Year > now.Year():
		return false
	default:
		return now.Month() > end
	}
}

// SemesterLocked is the fail-safe lock check used at edit/delete call sites:
// labels that do not parse are treated as locked.
func SemesterLocked(label string, now time.Time) bool {
	sem, err := ParseSemester(label)
	if err != nil {
		return true
	}
	return sem.Locked(now)
}
