package server

import (
	"fmt"
	"math/rand/v2"

	"github.com/jacobmichels/portal"
)

type SignupRequest struct {
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	RegistrationNumber string `json:"registrationNumber"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirmPassword"`
}

func (r SignupRequest) NewUser() portal.NewUser {
	return portal.NewUser{
		FullName:           r.FullName,
		Email:              r.Email,
		RegistrationNumber: r.RegistrationNumber,
		PasswordHash:       r.Password,
	}
}

func (r SignupRequest) Valid() error {
	if err := r.NewUser().Valid(); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", portal.ErrValidationFailed)
	}
	return nil
}

type LoginRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
	Password           string `json:"password"`
}

func (r LoginRequest) Valid() error {
	if r.RegistrationNumber == "" || r.Password == "" {
		return fmt.Errorf("%w: please fill in all fields", portal.ErrValidationFailed)
	}
	return nil
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r AdminLoginRequest) Valid() error {
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("%w: please fill in all fields", portal.ErrValidationFailed)
	}
	return nil
}

// CourseRequest is the admin course form. Code is taken from the path on edit.
// Nil lists and an empty color mean "not provided".
type CourseRequest struct {
	Code          string       `json:"code"`
	Title         string       `json:"title"`
	Credits       int          `json:"credits"`
	Instructor    string       `json:"instructor"`
	Syllabus      []string     `json:"syllabus"`
	Prerequisites []string     `json:"prerequisites"`
	Color         portal.Color `json:"color"`
}

// NewCourse fills the gaps of a new course: empty lists and a random palette color
func (r CourseRequest) NewCourse() portal.Course {
	c := portal.Course{
		Code:          r.Code,
		Title:         r.Title,
		Credits:       r.Credits,
		Instructor:    r.Instructor,
		Syllabus:      r.Syllabus,
		Prerequisites: r.Prerequisites,
		Color:         r.Color,
	}
	if c.Syllabus == nil {
		c.Syllabus = []string{}
	}
	if c.Prerequisites == nil {
		c.Prerequisites = []string{}
	}
	if c.Color == "" {
		c.Color = portal.Colors[rand.IntN(len(portal.Colors))]
	}
	return c
}

// Merge applies the form to the stored course, keeping the fields the form left out
func (r CourseRequest) Merge(stored portal.Course) portal.Course {
	c := stored
	c.Title = r.Title
	c.Credits = r.Credits
	c.Instructor = r.Instructor
	if r.Syllabus != nil {
		c.Syllabus = r.Syllabus
	}
	if r.Prerequisites != nil {
		c.Prerequisites = r.Prerequisites
	}
	if r.Color != "" {
		c.Color = r.Color
	}
	return c
}

// UserResponse is a User without its password
type UserResponse struct {
	ID                 string      `json:"id"`
	FullName           string      `json:"fullName"`
	Email              string      `json:"email"`
	RegistrationNumber string      `json:"registrationNumber"`
	Role               portal.Role `json:"role"`
}

func newUserResponse(u portal.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		FullName:           u.FullName,
		Email:              u.Email,
		RegistrationNumber: u.RegistrationNumber,
		Role:               u.Role,
	}
}
