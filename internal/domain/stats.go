package domain

import "time"

// Stats is the precomputed summary served with list responses.
type Stats struct {
	TotalApps     int              `json:"totalApps"`
	CategoryStats map[Category]int `json:"categoryStats"`
	TopApps       int              `json:"topApps"`
	LastUpdated   int64            `json:"lastUpdated"`
}

// ComputeStats derives the summary from the canonical list.
func ComputeStats(apps []App, now time.Time) Stats {
	s := Stats{CategoryStats: map[Category]int{}, LastUpdated: Millis(now)}
	for _, a := range apps {
		s.Add(a)
	}
	return s
}

// Add counts a.
func (s *Stats) Add(a App) {
	if s.CategoryStats == nil {
		s.CategoryStats = map[Category]int{}
	}
	s.TotalApps++
	s.CategoryStats[a.Category]++
	if a.IsTop {
		s.TopApps++
	}
}

// Remove uncounts a. Counters never go below zero.
func (s *Stats) Remove(a App) {
	s.TotalApps = max(s.TotalApps-1, 0)
	if s.CategoryStats != nil {
		if n := s.CategoryStats[a.Category] - 1; n > 0 {
			s.CategoryStats[a.Category] = n
		} else {
			delete(s.CategoryStats, a.Category)
		}
	}
	if a.IsTop {
		s.TopApps = max(s.TopApps-1, 0)
	}
}

// Replace swaps old for updated.
func (s *Stats) Replace(old, updated App) {
	s.Remove(old)
	s.Add(updated)
}

// Matches reports whether s agrees with apps, ignoring LastUpdated.
func (s Stats) Matches(apps []App) bool {
	want := ComputeStats(apps, time.Time{})
	if s.TotalApps != want.TotalApps || s.TopApps != want.TopApps {
		return false
	}
	if len(s.CategoryStats) != len(want.CategoryStats) {
		return false
	}
	for c, n := range want.CategoryStats {
		if s.CategoryStats[c] != n {
			return false
		}
	}
	return true
}
