package staffing

import (
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/timeofday"
)

// Weekday is the day of week as stored in work patterns, Sunday being 0.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WeekdayOf returns the stored weekday of the given date.
func WeekdayOf(date time.Time) Weekday {
	switch date.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	}
	return Sunday
}

// PartOfDay is the granularity of a leave.
type PartOfDay string

const (
	FullDay   PartOfDay = "full"
	Morning   PartOfDay = "morning"
	Afternoon PartOfDay = "afternoon"
)

// Blocks tells whether a leave of this part of day covers the given time.
// An empty part of day is a full day.
func (p PartOfDay) Blocks(at timeofday.Clock) bool {
	switch p {
	case Morning:
		return at.Before(timeofday.Noon)
	case Afternoon:
		return !at.Before(timeofday.Noon)
	}
	return true
}

// Request holds the parameters of an eligibility query. Each Check flag enables one
// narrowing stage.
type Request struct {
	RoomID        int64
	Role          string
	LocationID    *int64
	Date          *time.Time
	Time          *timeofday.Clock
	CheckLocation bool
	CheckTimeslot bool
	CheckBooking  bool
}

// Validate checks if the given request is valid.
func (r Request) Validate() error {
	if r.RoomID <= 0 {
		return apierrors.NewValidationError("room_id", "required")
	}
	if r.Role == "" {
		return apierrors.NewValidationError("role", "required")
	}
	if r.CheckLocation && r.LocationID == nil {
		return apierrors.InvalidRequest(ErrLocationRequired)
	}
	if (r.CheckTimeslot || r.CheckBooking) && (r.Date == nil || r.Time == nil) {
		return apierrors.InvalidRequest(ErrDateTimeRequired)
	}
	return nil
}

// ByRoom asks for every staff member of the role qualified for the room.
func ByRoom(roomID int64, role string) Request {
	return Request{RoomID: roomID, Role: role}
}

// ByRoomAtLocation narrows ByRoom to staff assigned to the location.
func ByRoomAtLocation(roomID int64, role string, locationID int64) Request {
	request := ByRoom(roomID, role)
	request.LocationID = &locationID
	request.CheckLocation = true
	return request
}

// AvailableAt narrows ByRoomAtLocation to staff whose work pattern covers the date
// and who are not on leave at the given time.
func AvailableAt(roomID int64, role string, locationID int64, date time.Time, at timeofday.Clock) Request {
	request := ByRoomAtLocation(roomID, role, locationID)
	request.Date = &date
	request.Time = &at
	request.CheckTimeslot = true
	return request
}

// FreeAt narrows AvailableAt to staff without a booking running at the given time.
func FreeAt(roomID int64, role string, locationID int64, date time.Time, at timeofday.Clock) Request {
	request := AvailableAt(roomID, role, locationID, date, at)
	request.CheckBooking = true
	return request
}

// Candidate is a staff member at one of its assigned locations.
type Candidate struct {
	StaffID             int64   `json:"staff_id" dbfield:"staff_id"`
	StaffName           string  `json:"staff_name" dbfield:"staff_name"`
	Role                string  `json:"role" dbfield:"role"`
	LocationID          int64   `json:"location_id" dbfield:"location_id"`
	MatchedServiceCount int     `json:"matched_service_count"`
	MatchedServiceIDs   []int64 `json:"matched_service_ids"`
}

// StaffService is an active qualification of a staff member.
type StaffService struct {
	StaffID   int64 `dbfield:"staff_id"`
	ServiceID int64 `dbfield:"service_id"`
}

// WorkPattern is a recurring weekly availability of a staff member at a location.
type WorkPattern struct {
	StaffID    int64      `dbfield:"staff_id"`
	LocationID int64      `dbfield:"location_id"`
	Weekday    Weekday    `dbfield:"weekday"`
	ValidFrom  *time.Time `dbfield:"valid_from"`
	ValidTo    *time.Time `dbfield:"valid_to"`
}

// Covers tells whether the pattern applies on the given date.
func (w WorkPattern) Covers(date time.Time) bool {
	if w.Weekday != WeekdayOf(date) {
		return false
	}
	day := dateOnly(date)
	if w.ValidFrom != nil && dateOnly(*w.ValidFrom).After(day) {
		return false
	}
	if w.ValidTo != nil && dateOnly(*w.ValidTo).Before(day) {
		return false
	}
	return true
}

// Leave is an approved absence of a staff member.
type Leave struct {
	StaffID   int64      `dbfield:"staff_id"`
	DateFrom  time.Time  `dbfield:"date_from"`
	DateTo    time.Time  `dbfield:"date_to"`
	PartOfDay *PartOfDay `dbfield:"part_of_day"`
}

// Blocks tells whether the leave covers the given date and time.
func (l Leave) Blocks(date time.Time, at timeofday.Clock) bool {
	day := dateOnly(date)
	if dateOnly(l.DateFrom).After(day) || dateOnly(l.DateTo).Before(day) {
		return false
	}
	if l.PartOfDay == nil {
		return true
	}
	return l.PartOfDay.Blocks(at)
}

// Booking is the time range a staff member is busy with a non cancelled booking.
type Booking struct {
	StaffID   int64           `dbfield:"staff_id"`
	StartTime timeofday.Clock `dbfield:"start_time"`
	EndTime   timeofday.Clock `dbfield:"end_time"`
}

// Running tells whether the booking is running at the given time, end excluded.
func (b Booking) Running(at timeofday.Clock) bool {
	return !at.Before(b.StartTime) && at.Before(b.EndTime)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
