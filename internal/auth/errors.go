package auth

// UnauthorizedError represents the errors returned if the user is not authorized.
type UnauthorizedError struct {
	reason string
}

func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{reason: reason}
}

func (v UnauthorizedError) Error() string {
	if v.reason == "" {
		return "not authorized"
	}
	return "not authorized: " + v.reason
}
