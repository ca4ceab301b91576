package users

import (
	"time"
)

// User represents a stored user record
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Age       time.Time `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserView is the read projection returned by list and get
type UserView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       string `json:"age"`
}

// View projects the user for read responses, rendering age as YYYY-MM-DD in UTC
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       FormatAge(u.Age),
	}
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Age       string `json:"age" form:"age"`
}

// Validate checks required fields in fixed order; the first missing field wins.
func (r *CreateUserRequest) Validate() error {
	switch {
	case r.FirstName == "":
		return NewUserValidationError(MsgFirstNameRequired)
	case r.LastName == "":
		return NewUserValidationError(MsgLastNameRequired)
	case r.Email == "":
		return NewUserValidationError(MsgEmailRequired)
	case r.Age == "":
		return NewUserValidationError(MsgAgeRequired)
	}
	return nil
}

// ToUser converts a validated request to a User without an ID
func (r *CreateUserRequest) ToUser() (*User, error) {
	age, err := ParseAge(r.Age)
	if err != nil {
		return nil, NewUserValidationErrorWithCause(MsgAgeInvalid, err)
	}

	return &User{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Age:       age,
	}, nil
}

// UpdateUserRequest carries the fields a client wants replaced. Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" form:"first_name"`
	LastName  *string `json:"last_name,omitempty" form:"last_name"`
	Email     *string `json:"email,omitempty" form:"email"`
	Age       *string `json:"age,omitempty" form:"age"`
}

// ToPatch converts the request into a store patch. Only age is checked, since it must be a date.
func (r *UpdateUserRequest) ToPatch() (*UserPatch, error) {
	patch := &UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	}

	if r.Age != nil {
		age, err := ParseAge(*r.Age)
		if err != nil {
			return nil, NewUserValidationErrorWithCause(MsgAgeInvalid, err)
		}
		patch.Age = &age
	}

	return patch, nil
}

// UserPatch is a partial update merged over an existing record by the store
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Age       *time.Time
}

// Apply merges the supplied fields over user
func (p *UserPatch) Apply(user *User) {
	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.Age != nil {
		user.Age = p.Age.UTC()
	}
}

// MessageResponse is the body returned by update and delete
type MessageResponse struct {
	Message string `json:"message"`
}
