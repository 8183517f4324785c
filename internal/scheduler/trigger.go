package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Trigger computes fire times for a schedule expression.
type Trigger interface {
	// Next returns the first fire time strictly after t.
	Next(t time.Time) time.Time
}

var intervalRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseSchedule accepts either an interval literal ("30m", "1h", "2d")
// or a five-field cron expression ("0 3 * * *").
func ParseSchedule(expr string) (Trigger, error) {
	expr = strings.TrimSpace(expr)
	if m := intervalRe.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid interval: %q", expr)
		}
		unit := map[string]time.Duration{
			"s": time.Second,
			"m": time.Minute,
			"h": time.Hour,
			"d": 24 * time.Hour,
		}[m[2]]
		return intervalTrigger{every: time.Duration(n) * unit}, nil
	}

	if strings.Contains(expr, " ") {
		return parseCron(expr)
	}
	return nil, fmt.Errorf("invalid schedule expression: %q", expr)
}

// intervalTrigger fires at a fixed period.
type intervalTrigger struct {
	every time.Duration
}

func (t intervalTrigger) Next(after time.Time) time.Time {
	return after.Add(t.every)
}

// cronTrigger is a minimal five-field cron table:
// minute hour day-of-month month day-of-week.
type cronTrigger struct {
	minute, hour, dom, month, dow map[int]bool
	domAny, dowAny                bool
}

func parseCron(expr string) (*cronTrigger, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression needs 5 fields, got %d: %q", len(fields), expr)
	}

	bounds := [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}
	sets := make([]map[int]bool, 5)
	for i, f := range fields {
		set, err := parseCronField(f, bounds[i][0], bounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("cron field %d: %w", i+1, err)
		}
		sets[i] = set
	}

	return &cronTrigger{
		minute: sets[0],
		hour:   sets[1],
		dom:    sets[2],
		month:  sets[3],
		dow:    sets[4],
		domAny: fields[2] == "*",
		dowAny: fields[4] == "*",
	}, nil
}

func parseCronField(field string, lo, hi int) (map[int]bool, error) {
	set := make(map[int]bool)
	for _, term := range strings.Split(field, ",") {
		base, stepStr, hasStep := strings.Cut(term, "/")
		step := 1
		if hasStep {
			var err error
			step, err = strconv.Atoi(stepStr)
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("bad step in %q", term)
			}
		}

		from, to := lo, hi
		switch {
		case base == "*":
			// full range
		case strings.Contains(base, "-"):
			a, b, _ := strings.Cut(base, "-")
			var err1, err2 error
			from, err1 = strconv.Atoi(a)
			to, err2 = strconv.Atoi(b)
			if err1 != nil || err2 != nil || from > to {
				return nil, fmt.Errorf("bad range %q", term)
			}
		default:
			n, err := strconv.Atoi(base)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", term)
			}
			from, to = n, n
		}

		if from < lo || to > hi {
			return nil, fmt.Errorf("value out of range [%d,%d]: %q", lo, hi, term)
		}
		for v := from; v <= to; v += step {
			set[v] = true
		}
	}
	return set, nil
}

// Next scans forward minute by minute. Bounded at four years, well past
// any satisfiable five-field expression.
func (t *cronTrigger) Next(after time.Time) time.Time {
	c := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(4, 0, 0)

	for c.Before(limit) {
		if !t.month[int(c.Month())] {
			c = time.Date(c.Year(), c.Month(), 1, 0, 0, 0, 0, c.Location()).AddDate(0, 1, 0)
			continue
		}
		if !t.dayMatches(c) {
			c = c.AddDate(0, 0, 1).Truncate(24 * time.Hour)
			c = time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, after.Location())
			continue
		}
		if !t.hour[c.Hour()] {
			c = c.Truncate(time.Hour).Add(time.Hour)
			continue
		}
		if !t.minute[c.Minute()] {
			c = c.Add(time.Minute)
			continue
		}
		return c
	}
	return time.Time{}
}

// dayMatches applies the standard cron rule: when both day fields are
// restricted, either may match.
func (t *cronTrigger) dayMatches(c time.Time) bool {
	domOK := t.dom[c.Day()]
	dowOK := t.dow[int(c.Weekday())]
	if !t.domAny && !t.dowAny {
		return domOK || dowOK
	}
	return domOK && dowOK
}
