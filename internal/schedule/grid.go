package schedule

import (
	"strings"

	"clinic-booking/internal/timeofday"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const cancelledStatus = "cancelled"

// narrow clips the window to one half of the day. The midpoint is taken on the wall
// clock span and is not aligned to slots.
func narrow(window Window, mode ViewMode) Window {
	midpoint := window.TimeFrom.Midpoint(window.TimeTo)
	switch mode {
	case Morning:
		window.TimeTo = midpoint
	case Afternoon:
		window.TimeFrom = midpoint
	}
	return window
}

// timeAxis lists the slot starts from TimeFrom, stepping by SlotMinutes, strictly before TimeTo.
func timeAxis(window Window) []timeofday.Clock {
	if window.SlotMinutes <= 0 || !window.TimeFrom.Before(window.TimeTo) {
		return []timeofday.Clock{}
	}
	axis := make([]timeofday.Clock, 0, int(window.TimeTo-window.TimeFrom)/window.SlotMinutes+1)
	for t := window.TimeFrom; t.Before(window.TimeTo); t = t.Add(window.SlotMinutes) {
		axis = append(axis, t)
	}
	return axis
}

// paginate returns the rooms of the requested page, the page actually shown and the
// number of pages. Out of range pages are clamped into [1, totalPages].
func paginate(rooms []Room, maxColumns, page int) ([]Room, int, int) {
	if maxColumns <= 0 {
		maxColumns = 1
	}
	totalPages := (len(rooms) + maxColumns - 1) / maxColumns
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * maxColumns
	end := start + maxColumns
	if start > len(rooms) {
		start = len(rooms)
	}
	if end > len(rooms) {
		end = len(rooms)
	}
	return rooms[start:end], page, totalPages
}

type cellKey struct {
	roomID    int64
	startTime timeofday.Clock
}

// indexBookings keys bookings by exact (room, start time). A cancelled booking never
// hides an active one holding the same slot.
func indexBookings(bookings []Booking) map[cellKey]Booking {
	index := make(map[cellKey]Booking, len(bookings))
	for _, booking := range bookings {
		key := cellKey{roomID: booking.RoomID, startTime: booking.StartTime}
		if current, found := index[key]; found && current.Status != cancelledStatus {
			continue
		}
		index[key] = booking
	}
	return index
}

// humanizeStatus turns "in_progress" into "In Progress".
// A Caser keeps state, so one is built per call.
func humanizeStatus(status string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(status, "_", " "))
}

// buildRows overlays the bookings on the time axis × rooms matrix. Bookings that do not
// start exactly on a slot are not shown.
func buildRows(axis []timeofday.Clock, rooms []Room, bookings map[cellKey]Booking) []Timeslot {
	rows := make([]Timeslot, 0, len(axis))
	for _, t := range axis {
		row := Timeslot{Time: t, Slots: make([]Cell, 0, len(rooms))}
		for _, room := range rooms {
			booking, found := bookings[cellKey{roomID: room.ID, startTime: t}]
			if !found {
				row.Slots = append(row.Slots, Cell{
					RoomID:      room.ID,
					Status:      availableStatus,
					StatusLabel: humanizeStatus(availableStatus),
				})
				continue
			}
			bookingID := booking.ID
			row.Slots = append(row.Slots, Cell{
				RoomID:      room.ID,
				Status:      booking.Status,
				StatusLabel: humanizeStatus(booking.Status),
				BookingID:   &bookingID,
				PatientName: booking.PatientName,
				DoctorName:  booking.DoctorName,
				ServiceName: booking.ServiceName,
			})
		}
		rows = append(rows, row)
	}
	return rows
}
