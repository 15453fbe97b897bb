package models

import (
	"github.com/go-playground/validator/v10"
)

type User struct {
	ID           int64  `db:"id" json:"user_id"`
	Username     string `db:"username" json:"username" validate:"required,max=50"`
	Email        string `db:"email" json:"email" validate:"required,email,max=100"`
	PasswordHash string `db:"password_hash" json:"-"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
}

func (u *User) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}
