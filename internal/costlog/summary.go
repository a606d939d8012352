package costlog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GroupBy selects how Summarize buckets entries.
type GroupBy string

const (
	GroupByModel   GroupBy = "model"
	GroupByProject GroupBy = "project"
	GroupByMonth   GroupBy = "month"
	GroupByDay     GroupBy = "day"
)

// ParseGroupBy validates a grouping name.
func ParseGroupBy(value string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(value))) {
	case "", GroupByModel:
		return GroupByModel, nil
	case GroupByProject:
		return GroupByProject, nil
	case GroupByMonth:
		return GroupByMonth, nil
	case GroupByDay:
		return GroupByDay, nil
	default:
		return "", fmt.Errorf("unsupported grouping: %s (want model, project, month or day)", value)
	}
}

// Group is one bucket of a Summary.
type Group struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Summary aggregates cost log entries.
type Summary struct {
	Count  int       `json:"count"`
	Tokens int       `json:"tokens"`
	Cost   float64   `json:"cost"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
	Groups []Group   `json:"groups"`
}

// AverageCost returns the mean cost per query.
func (s Summary) AverageCost() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Cost / float64(s.Count)
}

// Summarize totals entries and buckets them by the given grouping.
// Groups are sorted by descending cost, except time groupings which sort by key.
func Summarize(entries []Entry, by GroupBy) Summary {
	summary := Summary{}
	buckets := make(map[string]*Group)

	for _, e := range entries {
		summary.Count++
		summary.Tokens += e.TokenCount
		summary.Cost += e.Cost
		if summary.First.IsZero() || e.Timestamp.Before(summary.First) {
			summary.First = e.Timestamp
		}
		if e.Timestamp.After(summary.Last) {
			summary.Last = e.Timestamp
		}

		key := groupKey(e, by)
		g, ok := buckets[key]
		if !ok {
			g = &Group{Key: key}
			buckets[key] = g
		}
		g.Count++
		g.Tokens += e.TokenCount
		g.Cost += e.Cost
	}

	summary.Groups = make([]Group, 0, len(buckets))
	for _, g := range buckets {
		summary.Groups = append(summary.Groups, *g)
	}

	timeOrdered := by == GroupByMonth || by == GroupByDay
	sort.Slice(summary.Groups, func(i, j int) bool {
		a, b := summary.Groups[i], summary.Groups[j]
		if timeOrdered || a.Cost == b.Cost {
			return a.Key < b.Key
		}
		return a.Cost > b.Cost
	})
	return summary
}

func groupKey(e Entry, by GroupBy) string {
	switch by {
	case GroupByProject:
		if e.Project == "" {
			return "(none)"
		}
		return e.Project
	case GroupByMonth:
		return e.Timestamp.Format("2006-01")
	case GroupByDay:
		return e.Timestamp.Format("2006-01-02")
	default:
		if e.Model == "" {
			return "(unknown)"
		}
		return e.Model
	}
}

// ParseSince turns a lookback such as "30d", "2w" or "12h" into a cutoff
// relative to now. An empty value means no cutoff.
func ParseSince(value string, now time.Time) (time.Time, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "all" {
		return time.Time{}, nil
	}

	unit := v[len(v)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.Atoi(v[:len(v)-1])
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid lookback: %s", value)
		}
		days := n
		if unit == 'w' {
			days = n * 7
		}
		return now.AddDate(0, 0, -days), nil
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return time.Time{}, fmt.Errorf("invalid lookback: %s", value)
	}
	return now.Add(-d), nil
}
