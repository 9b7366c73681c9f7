package handlers

import "strings"

type normalizer interface {
	normalize()
}

type RegisterForm struct {
	Username        string `form:"username" json:"username" validate:"required,alphanum,min=3,max=20"`
	Password        string `form:"password" json:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"eqfield=Password"`
}

func (f *RegisterForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Password = strings.TrimSpace(f.Password)
	f.ConfirmPassword = strings.TrimSpace(f.ConfirmPassword)
}

var registerMessages = map[string]string{
	"username.required":        "Username is required",
	"username.alphanum":        "Only letters and numbers",
	"username.min":             "Must be between 3 and 20 characters",
	"username.max":             "Must be between 3 and 20 characters",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters",
	"confirm_password.eqfield": "Passwords do not match",
}

type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (f *LoginForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Password = strings.TrimSpace(f.Password)
}

var loginMessages = map[string]string{
	"username.required": "Username is required",
	"password.required": "Password is required",
}

type LinkForm struct {
	Title       string `form:"title" json:"title" validate:"required,min=3,max=100"`
	URL         string `form:"url" json:"url" validate:"required,httpurl"`
	Description string `form:"description" json:"description" validate:"max=500"`
}

func (f *LinkForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.URL = strings.TrimSpace(f.URL)
	f.Description = strings.TrimSpace(f.Description)
}

var linkMessages = map[string]string{
	"title.required":  "Title is required",
	"title.min":       "Title must be between 3 and 100 characters",
	"title.max":       "Title must be between 3 and 100 characters",
	"url.required":    "URL is required",
	"url.httpurl":     "Must be a valid URL (http/https)",
	"description.max": "Description cannot exceed 500 characters",
}
