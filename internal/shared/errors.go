package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Account errors
	ErrDuplicateUsername  = fmt.Errorf("username already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrMissingIdentity    = fmt.Errorf("no active identity")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrAuthDenied          = fmt.Errorf("authorization denied by provider")
	ErrMissingRequestToken = fmt.Errorf("missing request token")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// API and service errors
	ErrNetworkFailure = fmt.Errorf("network failure")
	ErrMovieNotFound  = fmt.Errorf("movie not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
