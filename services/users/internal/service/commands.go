package service

import "github.com/TomWia9/HoppyHub-sub002/pkg/auth"

// RegisterUser creates an account. Only administrators may pick a role other
// than User.
type RegisterUser struct {
	Actor    auth.Actor `json:"-"`
	Email    string     `json:"email" validate:"required,email,max=255"`
	Username string     `json:"username" validate:"required,min=3,max=100"`
	Password string     `json:"password" validate:"required"`
	Role     string     `json:"role" validate:"omitempty,oneof=User Administrator"`
}

func (RegisterUser) CommandName() string { return "RegisterUser" }

type UpdateUsername struct {
	Actor    auth.Actor `json:"-"`
	UserID   string     `json:"-" validate:"required,uuid"`
	Username string     `json:"username" validate:"required,min=3,max=100"`
}

func (UpdateUsername) CommandName() string { return "UpdateUsername" }

type ChangePassword struct {
	Actor           auth.Actor `json:"-"`
	UserID          string     `json:"-" validate:"required,uuid"`
	CurrentPassword string     `json:"current_password" validate:"required"`
	NewPassword     string     `json:"new_password" validate:"required"`
}

func (ChangePassword) CommandName() string { return "ChangePassword" }

// DeleteUser soft-deletes an account.
type DeleteUser struct {
	Actor  auth.Actor `json:"-"`
	UserID string     `json:"-" validate:"required,uuid"`
}

func (DeleteUser) CommandName() string { return "DeleteUser" }

// Login exchanges credentials for an access token.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (Login) CommandName() string { return "Login" }
