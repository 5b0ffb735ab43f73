package staffing

import (
	"sort"
	"time"

	"clinic-booking/internal/timeofday"
)

// Stage narrows a candidate set. A stage only ever drops candidates or annotates the
// ones it keeps.
type Stage func(candidates []Candidate) []Candidate

// Apply runs the stages in order.
func Apply(candidates []Candidate, stages ...Stage) []Candidate {
	for _, stage := range stages {
		candidates = stage(candidates)
	}
	return candidates
}

func keep(candidates []Candidate, pass func(Candidate) bool) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if pass(candidate) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// AtLocation keeps the candidates assigned to the given location.
func AtLocation(locationID int64) Stage {
	return func(candidates []Candidate) []Candidate {
		return keep(candidates, func(c Candidate) bool {
			return c.LocationID == locationID
		})
	}
}

// Qualified keeps the candidates sharing at least one service with the room and
// records the shared services, in ascending id order.
func Qualified(roomServices []int64, staffServices []StaffService) Stage {
	offered := make(map[int64]bool, len(roomServices))
	for _, id := range roomServices {
		offered[id] = true
	}
	matched := make(map[int64][]int64)
	seen := make(map[StaffService]bool)
	for _, qualification := range staffServices {
		if !offered[qualification.ServiceID] || seen[qualification] {
			continue
		}
		seen[qualification] = true
		matched[qualification.StaffID] = append(matched[qualification.StaffID], qualification.ServiceID)
	}
	for _, ids := range matched {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return func(candidates []Candidate) []Candidate {
		kept := make([]Candidate, 0, len(candidates))
		for _, candidate := range candidates {
			ids := matched[candidate.StaffID]
			if len(ids) == 0 {
				continue
			}
			candidate.MatchedServiceIDs = append([]int64(nil), ids...)
			candidate.MatchedServiceCount = len(ids)
			kept = append(kept, candidate)
		}
		return kept
	}
}

// Available keeps the candidates with a work pattern at their location covering the
// date and without an approved leave covering the date and time.
// Leaves apply whatever the location they were filed for.
func Available(date time.Time, at timeofday.Clock, patterns []WorkPattern, leaves []Leave) Stage {
	type staffLocation struct {
		staffID    int64
		locationID int64
	}
	working := make(map[staffLocation]bool)
	for _, pattern := range patterns {
		if pattern.Covers(date) {
			working[staffLocation{staffID: pattern.StaffID, locationID: pattern.LocationID}] = true
		}
	}
	onLeave := make(map[int64]bool)
	for _, leave := range leaves {
		if leave.Blocks(date, at) {
			onLeave[leave.StaffID] = true
		}
	}
	return func(candidates []Candidate) []Candidate {
		return keep(candidates, func(c Candidate) bool {
			return working[staffLocation{staffID: c.StaffID, locationID: c.LocationID}] && !onLeave[c.StaffID]
		})
	}
}

// NotBooked keeps the candidates without a booking running at the given time.
func NotBooked(at timeofday.Clock, bookings []Booking) Stage {
	busy := make(map[int64]bool)
	for _, booking := range bookings {
		if booking.Running(at) {
			busy[booking.StaffID] = true
		}
	}
	return func(candidates []Candidate) []Candidate {
		return keep(candidates, func(c Candidate) bool {
			return !busy[c.StaffID]
		})
	}
}

// SortByName orders candidates by name. Staff and location ids break ties so the output
// is stable across calls.
func SortByName(candidates []Candidate) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.StaffName != b.StaffName {
			return a.StaffName < b.StaffName
		}
		if a.StaffID != b.StaffID {
			return a.StaffID < b.StaffID
		}
		return a.LocationID < b.LocationID
	})
	return candidates
}
