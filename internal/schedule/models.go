package schedule

import (
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/timeofday"
)

// ViewMode selects which half of the day a grid shows.
type ViewMode string

const (
	FullDay   ViewMode = "full"
	Morning   ViewMode = "am"
	Afternoon ViewMode = "pm"
)

// ParseViewMode parses a view mode, empty meaning the full day.
func ParseViewMode(value string) (ViewMode, error) {
	switch ViewMode(value) {
	case "", FullDay:
		return FullDay, nil
	case Morning, Afternoon:
		return ViewMode(value), nil
	}
	return "", apierrors.NewValidationError("view", "must be one of full, am, pm")
}

// Source tells which level of configuration produced an effective schedule.
type Source string

const (
	FromException Source = "exception"
	FromConfig    Source = "config"
	FromDefault   Source = "default"
)

// Window is an operating window split into slots of SlotMinutes.
type Window struct {
	TimeFrom    timeofday.Clock `json:"time_from"`
	TimeTo      timeofday.Clock `json:"time_to"`
	SlotMinutes int             `json:"slot_min"`
}

// EffectiveSchedule is the schedule in force for a building on a date.
type EffectiveSchedule struct {
	Window
	Closed bool   `json:"closed"`
	Source Source `json:"source"`
}

// Exception is a day specific override of a building schedule.
type Exception struct {
	TimeFrom    *timeofday.Clock `dbfield:"time_from"`
	TimeTo      *timeofday.Clock `dbfield:"time_to"`
	SlotMinutes *int             `dbfield:"slot_minutes"`
	IsClosed    bool             `dbfield:"is_closed"`
}

// Config is the generic schedule of a building.
type Config struct {
	TimeFrom    timeofday.Clock `dbfield:"time_from"`
	TimeTo      timeofday.Clock `dbfield:"time_to"`
	SlotMinutes *int            `dbfield:"slot_minutes"`
}

// Building identifies the building a grid is built for.
type Building struct {
	CompanyCode string
	LocationID  int64
	BuildingID  int64
}

type Room struct {
	ID   int64  `json:"id" dbfield:"id"`
	Name string `json:"name" dbfield:"name"`
}

// Booking is the part of a booking shown in a grid cell.
type Booking struct {
	ID          int64           `dbfield:"id"`
	RoomID      int64           `dbfield:"room_id"`
	StartTime   timeofday.Clock `dbfield:"start_time"`
	Status      string          `dbfield:"status"`
	PatientName *string         `dbfield:"patient_name"`
	DoctorName  *string         `dbfield:"doctor_name"`
	ServiceName *string         `dbfield:"service_name"`
}

const availableStatus = "available"

// Cell is one room at one time of the grid.
type Cell struct {
	RoomID      int64   `json:"room_id"`
	Status      string  `json:"status"`
	StatusLabel string  `json:"status_label"`
	BookingID   *int64  `json:"booking_id,omitempty"`
	PatientName *string `json:"patient_name,omitempty"`
	DoctorName  *string `json:"doctor_name,omitempty"`
	ServiceName *string `json:"service_name,omitempty"`
}

// Timeslot is a row of the grid.
type Timeslot struct {
	Time  timeofday.Clock `json:"time"`
	Slots []Cell          `json:"slots"`
}

type Grid struct {
	Date string `json:"date"`
	Window
	Rooms      []Room     `json:"rooms"`
	Timeslots  []Timeslot `json:"timeslots"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
}

// GridState tells whether a grid could be produced.
type GridState string

const (
	GridReady   GridState = "ready"
	GridClosed  GridState = "closed"
	GridNoRooms GridState = "no_rooms"
)

// GridResult is either a ready grid or one of the benign empty states.
type GridResult struct {
	State   GridState `json:"state"`
	Message string    `json:"message,omitempty"`
	Grid    *Grid     `json:"grid,omitempty"`
}

// GridRequest holds the parameters of a grid query.
type GridRequest struct {
	Building
	Date     time.Time
	ViewMode ViewMode
	Page     int
}

// Validate checks if the given request is valid.
func (r GridRequest) Validate() error {
	if r.CompanyCode == "" {
		return apierrors.NewValidationError("company", "required")
	}
	if r.LocationID <= 0 {
		return apierrors.NewValidationError("location", "required")
	}
	if r.BuildingID <= 0 {
		return apierrors.NewValidationError("building_id", "required")
	}
	if r.Date.IsZero() {
		return apierrors.NewValidationError("date", "required")
	}
	if _, err := ParseViewMode(string(r.ViewMode)); err != nil {
		return err
	}
	return nil
}
