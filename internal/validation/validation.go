// Package validation renders request payloads into the field -> message maps
// the API responds with on 400s.
package validation

import (
	"unicode/utf8"

	"github.com/geocoder89/postline/internal/domain/post"
	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Errors maps a field name to a human readable message. Empty means valid.
type Errors map[string]string

func (e Errors) IsValid() bool {
	return len(e) == 0
}

func Register(req user.RegisterRequest) Errors {
	errs := Errors{}

	if !lengthBetween(req.Name, 2, 30) {
		errs["name"] = "Name must be between 2 and 30 characters"
	}
	if req.Name == "" {
		errs["name"] = "Name field is required"
	}

	if !isEmail(req.Email) {
		errs["email"] = "Email must be a valid email address"
	}
	if req.Email == "" {
		errs["email"] = "Email field is required"
	}

	if !lengthBetween(req.Password, 8, 64) {
		errs["password"] = "Password must be between 8 and 64 characters"
	}
	if req.Password == "" {
		errs["password"] = "Password field is required"
	}

	if req.Password2 != req.Password {
		errs["password2"] = "Passwords must match"
	}
	if req.Password2 == "" {
		errs["password2"] = "Password confirm field is required"
	}

	return errs
}

func Login(req user.LoginRequest) Errors {
	errs := Errors{}

	if !isEmail(req.Email) {
		errs["email"] = "Email must be a valid email address"
	}
	if req.Email == "" {
		errs["email"] = "Email field is required"
	}

	if req.Password == "" {
		errs["password"] = "Password field is required"
	}

	return errs
}

func Post(req post.CreatePostRequest) Errors {
	errs := Errors{}

	if !lengthBetween(req.Text, 10, 300) {
		errs["text"] = "Post must be between 10 and 300 characters"
	}
	if req.Text == "" {
		errs["text"] = "Text field is required"
	}

	return errs
}

func isEmail(s string) bool {
	if s == "" {
		return false
	}

	return validate.Var(s, "email") == nil
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)

	return n >= min && n <= max
}
