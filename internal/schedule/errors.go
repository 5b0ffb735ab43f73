package schedule

type Error string

const (
	ErrInvalidDateReference = "invalid date reference"
	ErrInvalidIdentifier    = "invalid identifier"
	ErrInvalidPage          = "invalid page"
	ErrScheduleClosed       = "the schedule is closed on this date"
	ErrNoRoomsAvailable     = "no rooms available for this building"
)

func (e Error) Error() string {
	return string(e)
}
