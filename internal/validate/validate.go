// Package validate holds the form checks screens run before calling the
// tracker. The tracker itself only rejects empty fields.
package validate

import (
	"strings"
	"unicode/utf8"

	"taskdeck/internal/service"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

func reject(msg string) error {
	return service.NewError(service.CodeValidationRejected, msg)
}

// Email reports whether email looks like an address.
func Email(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// Login checks the login form.
func Login(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return reject("please fill in all fields")
	}
	if !Email(email) {
		return reject("please enter a valid email")
	}
	return nil
}

// Registration checks the registration form.
func Registration(name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return reject("please fill in all fields")
	}
	if !Email(email) {
		return reject("please enter a valid email")
	}
	if password != confirm {
		return reject("passwords do not match")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return reject("password must be at least 6 characters")
	}
	return nil
}

// TaskTitle checks the add-task form.
func TaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return reject("enter a title for the task")
	}
	return nil
}
