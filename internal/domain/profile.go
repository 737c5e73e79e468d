package domain

import (
	"fmt"
	"strings"
)

type Profile struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth Date   `json:"dob"`
}

func NewProfile(first, last string, dob Date) Profile {
	return Profile{FirstName: first, LastName: last, DateOfBirth: dob}
}

// Equal matches names case-insensitively and the date of birth exactly.
func (p Profile) Equal(o Profile) bool {
	return strings.EqualFold(p.FirstName, o.FirstName) &&
		strings.EqualFold(p.LastName, o.LastName) &&
		p.DateOfBirth == o.DateOfBirth
}

// Compare orders by last name, first name, then date of birth.
func (p Profile) Compare(o Profile) int {
	if c := strings.Compare(strings.ToLower(p.LastName), strings.ToLower(o.LastName)); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(p.FirstName), strings.ToLower(o.FirstName)); c != 0 {
		return c
	}
	return p.DateOfBirth.Compare(o.DateOfBirth)
}

func (p Profile) String() string {
	return fmt.Sprintf("%s %s %s", p.FirstName, p.LastName, p.DateOfBirth)
}
