package validation

import "github.com/example/perfumery/pkg/models"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest is the admin variant of RegisterRequest and may set a role.
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,min=2,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone" validate:"omitempty,min=7,max=20"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=customer admin"`
}

type UserPatch struct {
	Name     *string      `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Phone    *string      `json:"phone" validate:"omitempty,min=7,max=20"`
	Password *string      `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *models.Role `json:"role" validate:"omitempty,oneof=customer admin"`
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Password == nil && p.Role == nil
}

func ValidateUserPatch(p UserPatch) error {
	if p.Empty() {
		e := &Error{}
		e.add("body", "must contain at least one field")
		return e
	}
	return Struct(p)
}
