package models

// User represents the signed-in student or teacher
type User struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// DisplayName returns the name shown to other room members, falling back to the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// CurrentUser is the response of the getCurrentUser action
type CurrentUser struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User
}

// Registration holds the fields submitted by the sign-up form
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginResult is the response of the loginUser action
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// Profile holds the editable profile of a user
type Profile struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	AvatarURL   string `json:"avatarUrl"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	ClassGrade  string `json:"classGrade"`
	School      string `json:"school"`
	Address     string `json:"address"`
	ParentName  string `json:"parentName"`
	ParentPhone string `json:"parentPhone"`
	LastLogin   string `json:"lastLogin"`
	Bio         string `json:"bio"`
	StudyGoals  string `json:"studyGoals"`
}

// ProfileUpdateResult is the response of the updateProfile action
type ProfileUpdateResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Profile *Profile `json:"profile,omitempty"`
}
