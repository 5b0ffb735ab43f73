package staffing

type Error string

const (
	ErrRoomNotFound      = "room not found"
	ErrLocationRequired  = "location_id is required when check_location is set"
	ErrDateTimeRequired  = "date and time are required when check_timeslot or check_booking is set"
	ErrInvalidIdentifier = "invalid identifier"
	ErrInvalidDate       = "invalid date, expected YYYY-MM-DD"
	ErrInvalidCheckFlag  = "invalid check flag, expected true or false"
)

func (e Error) Error() string {
	return string(e)
}
