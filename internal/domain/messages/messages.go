// Package messages holds the user-facing strings returned by the API.
//
// Every failure reason is a symbolic Reason constant; the text behind it is
// resolved through Reason.Message and cannot be changed at runtime.
package messages

type Reason string

const (
	UsernameRequired           Reason = "USERNAME_REQUIRED"
	UsernameMinLength          Reason = "USERNAME_MIN_LENGTH"
	UsernameMaxLength          Reason = "USERNAME_MAX_LENGTH"
	EmailRequired              Reason = "EMAIL_REQUIRED"
	EmailInvalid               Reason = "EMAIL_INVALID"
	PasswordRequired           Reason = "PASSWORD_REQUIRED"
	PasswordMinLength          Reason = "PASSWORD_MIN_LENGTH"
	PasswordMustHaveCharacters Reason = "PASSWORD_MUST_HAVE_CHARACTERS"
	PasswordMaxBytes           Reason = "PASSWORD_MAX_BYTES"
	UserIDRequired             Reason = "USER_ID_REQUIRED"
	UserIDInvalid              Reason = "USER_ID_INVALID"
	UserIDLength               Reason = "USER_ID_LENGTH"

	SubjectRequired      Reason = "SUBJECT_REQUIRED"
	SubjectMinLength     Reason = "SUBJECT_MIN_LENGTH"
	SubjectMaxLength     Reason = "SUBJECT_MAX_LENGTH"
	DescriptionMaxLength Reason = "DESCRIPTION_MAX_LENGTH"
	StatusRequired       Reason = "STATUS_REQUIRED"
	StatusInvalid        Reason = "STATUS_INVALID"
	TaskIDRequired       Reason = "TASK_ID_REQUIRED"
	TaskIDInvalid        Reason = "TASK_ID_INVALID"
	TaskIDLength         Reason = "TASK_ID_LENGTH"

	AuthHeaderRequired Reason = "AUTH_HEADER_REQUIRED"
	BodyMalformed      Reason = "BODY_MALFORMED"
	BodyTooLarge       Reason = "BODY_TOO_LARGE"
)

// Message returns the text shown to the client for r.
func (r Reason) Message() string {
	switch r {
	case UsernameRequired:
		return "Username is a required field"
	case UsernameMinLength:
		return "Username must be at least 3 characters long"
	case UsernameMaxLength:
		return "Username must be no longer than 20 characters"
	case EmailRequired:
		return "Email is a required field"
	case EmailInvalid:
		return "Invalid email address"
	case PasswordRequired:
		return "Password is a required field"
	case PasswordMinLength:
		return "Password must be at least 7 characters long"
	case PasswordMustHaveCharacters:
		return "Password must contain at least one lowercase character, one uppercase character, one number and one special symbol"
	case PasswordMaxBytes:
		return "Password must be no longer than 72 bytes"
	case UserIDRequired:
		return "User ID is a required field"
	case UserIDInvalid:
		return "User ID must only contain alphanumeric characters"
	case UserIDLength:
		return "User ID must be 24 characters long"
	case SubjectRequired:
		return "Subject is a required field"
	case SubjectMinLength:
		return "Subject must be at least 10 characters long"
	case SubjectMaxLength:
		return "Subject must be no longer than 100 characters"
	case DescriptionMaxLength:
		return "Description must be no longer than 300 characters"
	case StatusRequired:
		return "Status is a required field"
	case StatusInvalid:
		return "Status must be one of the following categories: Pending, Complete"
	case TaskIDRequired:
		return "Task ID is a required field"
	case TaskIDInvalid:
		return "Task ID must only contain alphanumeric characters"
	case TaskIDLength:
		return "Task ID must be 24 characters long"
	case AuthHeaderRequired:
		return "Authorization header is required"
	case BodyMalformed:
		return "Request body must be a JSON object"
	case BodyTooLarge:
		return "Request body is too large"
	}
	return string(r)
}

// Response messages.
const (
	BadRequest     = "Bad request"
	UserRegistered = "Successful user registration"
	UserUpdated    = "Successful user update"
	TaskCreated    = "Successful task creation"
	TaskUpdated    = "Successful task update"

	AuthFailed   = "Authentication failed"
	TokenInvalid = "Invalid token"

	UserNotFound  = "User was not found"
	TaskNotFound  = "Task was not found"
	TasksNotFound = "Task were not found"
	ServerError   = "Server error"

	RouteNotFound    = "Not found"
	MethodNotAllowed = "Method not allowed"
)
