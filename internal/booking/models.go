package booking

import (
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/timeofday"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	Booked     Status = "booked"
	InProgress Status = "in_progress"
	Cancelled  Status = "cancelled"
	Completed  Status = "completed"
	NoShow     Status = "no_show"
)

// Action is a lifecycle operation moving a booking between statuses.
type Action string

const (
	CheckIn    Action = "check_in"
	Cancel     Action = "cancel"
	Complete   Action = "complete"
	MarkNoShow Action = "no_show"
)

type transition struct {
	from []Status
	to   Status
}

var transitions = map[Action]transition{
	CheckIn:    {from: []Status{Booked}, to: InProgress},
	Cancel:     {from: []Status{Booked}, to: Cancelled},
	Complete:   {from: []Status{InProgress}, to: Completed},
	MarkNoShow: {from: []Status{InProgress}, to: NoShow},
}

// Next returns the status reached by applying action to a booking in status from.
// It reports false when the action is unknown or from is not a valid predecessor.
func Next(action Action, from Status) (Status, bool) {
	t, ok := transitions[action]
	if !ok {
		return "", false
	}
	for _, status := range t.from {
		if status == from {
			return t.to, true
		}
	}
	return "", false
}

// Booking is one room slot reserved for a patient, a staff member and a service.
type Booking struct {
	ID              int64           `json:"id" dbfield:"id"`
	ResourceTrackID int64           `json:"resource_track_id" dbfield:"resource_track_id"`
	CompanyCode     string          `json:"company_code" dbfield:"company_code"`
	LocationID      int64           `json:"location_id" dbfield:"location_id"`
	BuildingID      int64           `json:"building_id" dbfield:"building_id"`
	RoomID          int64           `json:"room_id" dbfield:"room_id"`
	PatientID       int64           `json:"patient_id" dbfield:"patient_id"`
	StaffID         int64           `json:"staff_id" dbfield:"staff_id"`
	ServiceID       int64           `json:"service_id" dbfield:"service_id"`
	BookingDate     time.Time       `json:"booking_date" dbfield:"booking_date"`
	StartTime       timeofday.Clock `json:"start_time" dbfield:"start_time"`
	EndTime         timeofday.Clock `json:"end_time" dbfield:"end_time"`
	Status          Status          `json:"status" dbfield:"status"`
	SourceOfAd      *string         `json:"source_of_ad,omitempty" dbfield:"source_of_ad"`
	Note            *string         `json:"note,omitempty" dbfield:"note"`
	CancelReason    *string         `json:"cancel_reason,omitempty" dbfield:"cancel_reason"`
	CreatedAt       time.Time       `json:"created_at" dbfield:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" dbfield:"updated_at"`
}

// History is an append-only record of a status change.
type History struct {
	ID        int64     `json:"id" dbfield:"id"`
	BookingID int64     `json:"booking_id" dbfield:"booking_id"`
	OldStatus *Status   `json:"old_status" dbfield:"old_status"`
	NewStatus Status    `json:"new_status" dbfield:"new_status"`
	ChangedBy *int64    `json:"changed_by" dbfield:"changed_by"`
	ChangedAt time.Time `json:"changed_at" dbfield:"changed_at"`
	Note      *string   `json:"note,omitempty" dbfield:"note"`
}

// CreateRequest holds the data needed to book a slot.
type CreateRequest struct {
	ResourceTrackID int64   `json:"resource_track_id"`
	CompanyCode     string  `json:"company_code"`
	LocationID      int64   `json:"location_id"`
	BuildingID      int64   `json:"building_id"`
	RoomID          int64   `json:"room_id"`
	PatientID       int64   `json:"patient_id"`
	StaffID         int64   `json:"staff_id"`
	ServiceID       int64   `json:"service_id"`
	BookingDate     string  `json:"booking_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	SourceOfAd      *string `json:"source_of_ad"`
	Note            *string `json:"note"`
}

// Validate checks if the given request is valid.
func (c CreateRequest) Validate() error {
	_, err := c.toBooking()
	return err
}

// toBooking parses the request into a new booked booking.
func (c CreateRequest) toBooking() (Booking, error) {
	booking := Booking{}
	identifiers := []struct {
		field string
		value int64
	}{
		{"resource_track_id", c.ResourceTrackID},
		{"location_id", c.LocationID},
		{"building_id", c.BuildingID},
		{"room_id", c.RoomID},
		{"patient_id", c.PatientID},
		{"staff_id", c.StaffID},
		{"service_id", c.ServiceID},
	}
	for _, id := range identifiers {
		if id.value <= 0 {
			return booking, apierrors.NewValidationError(id.field, "required")
		}
	}
	if c.CompanyCode == "" {
		return booking, apierrors.NewValidationError("company_code", "required")
	}
	date, err := time.Parse("2006-01-02", c.BookingDate)
	if err != nil {
		return booking, apierrors.NewValidationError("booking_date", "expected YYYY-MM-DD")
	}
	start, err := timeofday.Parse(c.StartTime)
	if err != nil {
		return booking, apierrors.InvalidRequest("%s", err.Error())
	}
	end, err := timeofday.Parse(c.EndTime)
	if err != nil {
		return booking, apierrors.InvalidRequest("%s", err.Error())
	}
	if !start.Before(end) {
		return booking, apierrors.NewValidationError("end_time", "must be after start_time")
	}
	return Booking{
		ResourceTrackID: c.ResourceTrackID,
		CompanyCode:     c.CompanyCode,
		LocationID:      c.LocationID,
		BuildingID:      c.BuildingID,
		RoomID:          c.RoomID,
		PatientID:       c.PatientID,
		StaffID:         c.StaffID,
		ServiceID:       c.ServiceID,
		BookingDate:     date,
		StartTime:       start,
		EndTime:         end,
		Status:          Booked,
		SourceOfAd:      c.SourceOfAd,
		Note:            c.Note,
	}, nil
}

// CreateResult is the answer to a successful creation.
type CreateResult struct {
	ID     int64  `json:"id"`
	Status Status `json:"status"`
}

// TransitionRequest carries the optional data of a lifecycle transition.
// Reason is only stored by cancellations.
type TransitionRequest struct {
	Reason *string `json:"reason"`
	Note   *string `json:"note"`
}

// NoteRequest replaces the booking note.
type NoteRequest struct {
	Note *string `json:"note"`
}

// StatusChange is a committed transition.
type StatusChange struct {
	BookingID int64  `json:"id"`
	From      Status `json:"old_status"`
	To        Status `json:"status"`
}
