// Package profile stores user profile documents, their favorites list and
// profile photos.
package profile

import (
	"strings"

	"github.com/popcorn/popcorn/internal/validate"
)

// User is a profile document.
type User struct {
	UserID          string  `json:"userId"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	ProfilePhotoURL string  `json:"profilePhotoUrl,omitempty"`
	DateOfBirth     string  `json:"dateOfBirth,omitempty"`
	Gender          string  `json:"gender,omitempty"`
	MobileNumber    string  `json:"mobileNumber,omitempty"`
	ShortBio        string  `json:"shortBio,omitempty"`
	Favorites       []int64 `json:"favorites"`
}

// Update holds the user-editable profile fields.
type Update struct {
	Name         string `json:"name" form:"name"`
	DateOfBirth  string `json:"dateOfBirth" form:"dateOfBirth"`
	Gender       string `json:"gender" form:"gender"`
	MobileNumber string `json:"mobileNumber" form:"mobileNumber"`
	ShortBio     string `json:"shortBio" form:"shortBio"`
}

// Normalize trims surrounding whitespace from every field.
func (u Update) Normalize() Update {
	return Update{
		Name:         strings.TrimSpace(u.Name),
		DateOfBirth:  strings.TrimSpace(u.DateOfBirth),
		Gender:       strings.TrimSpace(u.Gender),
		MobileNumber: strings.TrimSpace(u.MobileNumber),
		ShortBio:     strings.TrimSpace(u.ShortBio),
	}
}

// Validate applies the profile form rules.
func (u Update) Validate() error {
	var v validate.Error
	v.Check(!validate.Blank(u.Name), "name", "Name is required")
	v.Check(!validate.Blank(u.DateOfBirth), "dateOfBirth", "Date of birth is required")
	v.Check(validate.MobileNumber(u.MobileNumber), "mobileNumber", "Mobile number must be 10 digits")
	return v.Err()
}

// Apply copies the editable fields onto user. Identity, email, photo and
// favorites are left untouched.
func (u Update) Apply(user User) User {
	user.Name = u.Name
	user.DateOfBirth = u.DateOfBirth
	user.Gender = u.Gender
	user.MobileNumber = u.MobileNumber
	user.ShortBio = u.ShortBio
	return user
}
