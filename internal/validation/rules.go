package validation

import (
	"taskmanager/internal/domain/messages"
)

const (
	usernameMin    = "min=3"
	usernameMax    = "max=20"
	passwordMin    = "min=7"
	subjectMin     = "min=10"
	subjectMax     = "max=100"
	descriptionMax = "max=300"
	idLength       = "len=24"
	statusOneOf    = "oneof=Pending Complete"

	// bcrypt rejects longer input.
	passwordMaxBytes = TagMaxBytes + "=72"
)

func subjectField(optional bool) Field {
	checks := []Check{
		{Tag: subjectMin, Reason: messages.SubjectMinLength},
		{Tag: subjectMax, Reason: messages.SubjectMaxLength},
	}
	if !optional {
		checks = append([]Check{{Tag: "required", Reason: messages.SubjectRequired}}, checks...)
	}
	return Field{Name: "subject", Optional: optional, Checks: checks}
}

func descriptionField() Field {
	return Field{Name: "description", Optional: true, Checks: []Check{
		{Tag: descriptionMax, Reason: messages.DescriptionMaxLength},
	}}
}

func statusField(optional bool) Field {
	checks := []Check{{Tag: statusOneOf, Reason: messages.StatusInvalid}}
	if !optional {
		checks = append([]Check{{Tag: "required", Reason: messages.StatusRequired}}, checks...)
	}
	return Field{Name: "status", Optional: optional, Checks: checks}
}

func usernameField(optional bool) Field {
	checks := []Check{
		{Tag: usernameMin, Reason: messages.UsernameMinLength},
		{Tag: usernameMax, Reason: messages.UsernameMaxLength},
	}
	if !optional {
		checks = append([]Check{{Tag: "required", Reason: messages.UsernameRequired}}, checks...)
	}
	return Field{Name: "username", Optional: optional, Checks: checks}
}

func emailField(optional bool) Field {
	checks := []Check{{Tag: TagEmailAddress, Reason: messages.EmailInvalid}}
	if !optional {
		checks = append([]Check{{Tag: "required", Reason: messages.EmailRequired}}, checks...)
	}
	return Field{Name: "email", Optional: optional, Checks: checks}
}

func passwordField(optional bool) Field {
	checks := []Check{
		{Tag: passwordMin, Reason: messages.PasswordMinLength},
		{Tag: TagStrongPassword, Reason: messages.PasswordMustHaveCharacters},
		{Tag: passwordMaxBytes, Reason: messages.PasswordMaxBytes},
	}
	if !optional {
		checks = append([]Check{{Tag: "required", Reason: messages.PasswordRequired}}, checks...)
	}
	return Field{Name: "password", Optional: optional, Checks: checks}
}

func idField(required, invalid, length messages.Reason) Field {
	return Field{Name: "id", Checks: []Check{
		{Tag: "required", Reason: required},
		{Tag: TagObjectID, Reason: invalid},
		{Tag: idLength, Reason: length},
	}}
}

func TaskCreate() RuleSet {
	return RuleSet{Name: "task_create", Fields: []Field{
		subjectField(false),
		descriptionField(),
		statusField(false),
		usernameField(true),
	}}
}

func TaskUpdate() RuleSet {
	return RuleSet{Name: "task_update", Fields: []Field{
		idField(messages.TaskIDRequired, messages.TaskIDInvalid, messages.TaskIDLength),
		subjectField(true),
		descriptionField(),
		statusField(true),
	}}
}

func TaskDelete() RuleSet {
	return RuleSet{Name: "task_delete", Fields: []Field{
		idField(messages.TaskIDRequired, messages.TaskIDInvalid, messages.TaskIDLength),
	}}
}

func TaskFetchByStatus() RuleSet {
	return RuleSet{Name: "task_fetch_status", Fields: []Field{statusField(false)}}
}

func TaskFetchByUsername() RuleSet {
	return RuleSet{Name: "task_fetch_username", Fields: []Field{usernameField(false)}}
}

func TaskFetchBySubject() RuleSet {
	return RuleSet{Name: "task_fetch_subject", Fields: []Field{subjectField(false)}}
}

func UserRegister() RuleSet {
	return RuleSet{Name: "user_register", Fields: []Field{
		usernameField(false),
		emailField(false),
		passwordField(false),
	}}
}

func UserUpdate() RuleSet {
	return RuleSet{Name: "user_update", Fields: []Field{
		idField(messages.UserIDRequired, messages.UserIDInvalid, messages.UserIDLength),
		usernameField(true),
		emailField(true),
		passwordField(true),
	}}
}

func Login() RuleSet {
	return RuleSet{Name: "login", Fields: []Field{
		usernameField(false),
		passwordField(false),
	}}
}
