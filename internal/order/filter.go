package order

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type TimeRange string

const (
	RangeHour      TimeRange = "hour"
	RangeDay       TimeRange = "day"
	RangeYesterday TimeRange = "yesterday"
	RangeWeek      TimeRange = "week"
	RangeMonth     TimeRange = "month"
)

// Condition is one parameterized comparison on a column of the order query.
type Condition struct {
	Column string
	Op     string
	Value  any
}

// Predicate is a named group of conditions; all conditions of all
// predicates are ANDed.
type Predicate struct {
	Name       string
	Conditions []Condition
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Bounds returns [from, to) for the range relative to now. A zero to means
// the range is open ended.
func (r TimeRange) Bounds(now time.Time) (from, to time.Time, err error) {
	switch r {
	case RangeHour:
		return now.Add(-time.Hour), time.Time{}, nil
	case RangeDay:
		return startOfDay(now), time.Time{}, nil
	case RangeYesterday:
		today := startOfDay(now)
		return today.AddDate(0, 0, -1), today, nil
	case RangeWeek:
		return now.AddDate(0, 0, -7), time.Time{}, nil
	case RangeMonth:
		return now.AddDate(0, 0, -30), time.Time{}, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown time range %q", string(r))
	}
}

func TimeRangePredicate(r TimeRange, now time.Time) (Predicate, error) {
	from, to, err := r.Bounds(now)
	if err != nil {
		return Predicate{}, err
	}

	// Buckets follow the caller's calendar; bounds are sent as UTC instants.
	p := Predicate{
		Name:       "time_range:" + string(r),
		Conditions: []Condition{{Column: "o.created_at", Op: ">=", Value: from.UTC()}},
	}
	if !to.IsZero() {
		p.Conditions = append(p.Conditions, Condition{Column: "o.created_at", Op: "<", Value: to.UTC()})
	}
	return p, nil
}

func ApprovedPredicate(approved bool) Predicate {
	return Predicate{
		Name:       fmt.Sprintf("approved:%t", approved),
		Conditions: []Condition{{Column: "o.approved", Op: "=", Value: approved}},
	}
}

func IDPredicate(id int64) Predicate {
	return Predicate{
		Name:       fmt.Sprintf("id:%d", id),
		Conditions: []Condition{{Column: "o.id", Op: "=", Value: id}},
	}
}

// where renders predicates as a WHERE clause with $n placeholders starting at 1.
func where(preds []Predicate) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, p := range preds {
		for _, c := range p.Conditions {
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Column, c.Op, len(args)))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListFilter holds the GET /orders query filters.
type ListFilter struct {
	TimeRange *TimeRange
	Approved  *bool
}

func ParseListFilter(q url.Values) (ListFilter, error) {
	var (
		f    ListFilter
		verr ValidationError
	)

	if raw := q.Get("time_range"); raw != "" {
		tr := TimeRange(raw)
		if _, _, err := tr.Bounds(time.Now()); err != nil {
			verr.Add("time_range", "must be one of hour, day, yesterday, week, month")
		} else {
			f.TimeRange = &tr
		}
	}

	switch raw := q.Get("approved"); raw {
	case "":
	case "0", "1":
		approved := raw == "1"
		f.Approved = &approved
	default:
		verr.Add("approved", "must be 0 or 1")
	}

	if err := verr.orNil(); err != nil {
		return ListFilter{}, err
	}
	return f, nil
}

// Predicates turns the filter into query predicates relative to now.
func (f ListFilter) Predicates(now time.Time) ([]Predicate, error) {
	var preds []Predicate
	if f.TimeRange != nil {
		p, err := TimeRangePredicate(*f.TimeRange, now)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if f.Approved != nil {
		preds = append(preds, ApprovedPredicate(*f.Approved))
	}
	return preds, nil
}
