package booking

type Error string

const (
	ErrBookingNotFound   = "booking not found"
	ErrInvalidIdentifier = "invalid identifier"
	ErrInvalidTransition = "cannot %s a booking in status %s"
	ErrMalformedBody     = "malformed request body"
)

func (e Error) Error() string {
	return string(e)
}
