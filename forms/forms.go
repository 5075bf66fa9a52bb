// Package forms binds and validates submitted form data. Validation is
// pure: nothing here touches storage, and a failed form is handed back to
// the template with the original input and field-level errors intact.
package forms

import (
	"net/http"
	"strconv"
	"strings"
)

// Errors maps a field name to its validation message.
type Errors map[string]string

const maxFormMemory = 50 << 20

// PostForm carries a post create/edit submission. Group holds the raw
// submitted value so a rejected form re-renders with the same selection;
// GroupID is the parsed optional reference.
type PostForm struct {
	Text    string
	Group   string
	GroupID *uint
	Errors  Errors
}

// ParsePostForm binds a multipart post submission. The image file itself
// stays in r.MultipartForm for the handler to persist after validation.
func ParsePostForm(r *http.Request) *PostForm {
	// ParseMultipartForm fails on plain urlencoded bodies, which the
	// form helpers below still handle via FormValue.
	r.ParseMultipartForm(maxFormMemory)

	form := &PostForm{
		Text:   r.FormValue("text"),
		Group:  r.FormValue("group"),
		Errors: Errors{},
	}

	if form.Group != "" {
		id, err := strconv.ParseUint(form.Group, 10, 64)
		if err != nil {
			form.Errors["group"] = "Select a valid group"
		} else {
			groupID := uint(id)
			form.GroupID = &groupID
		}
	}
	return form
}

// Valid checks the bound fields and records field errors. The group
// reference is only checked for shape here; existence is the caller's
// lookup against storage, reported through MarkGroupInvalid.
func (f *PostForm) Valid() bool {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors["text"] = "Text is required"
	}
	return len(f.Errors) == 0
}

// MarkGroupInvalid records a group existence failure found by the caller.
func (f *PostForm) MarkGroupInvalid() {
	f.Errors["group"] = "Select a valid group"
	f.GroupID = nil
}

// MarkImageInvalid records an image upload failure found by the caller.
func (f *PostForm) MarkImageInvalid(reason string) {
	f.Errors["image"] = reason
}

type CommentForm struct {
	Text   string
	Errors Errors
}

func ParseCommentForm(r *http.Request) *CommentForm {
	r.ParseForm()
	return &CommentForm{
		Text:   r.FormValue("text"),
		Errors: Errors{},
	}
}

func (f *CommentForm) Valid() bool {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors["text"] = "Text is required"
	}
	return len(f.Errors) == 0
}

// SignupForm extends the base registration contract with the profile
// fields. Username/email uniqueness is storage's call; the auth handler
// reports it back through MarkTaken.
type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
	Errors    Errors
}

const minPasswordLength = 8

func ParseSignupForm(r *http.Request) *SignupForm {
	r.ParseForm()
	return &SignupForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password1: r.FormValue("password1"),
		Password2: r.FormValue("password2"),
		Errors:    Errors{},
	}
}

func (f *SignupForm) Valid() bool {
	if f.FirstName == "" {
		f.Errors["first_name"] = "First name is required"
	}
	if f.LastName == "" {
		f.Errors["last_name"] = "Last name is required"
	}
	if f.Username == "" {
		f.Errors["username"] = "Username is required"
	}
	if f.Email == "" {
		f.Errors["email"] = "Email is required"
	} else if !strings.Contains(f.Email, "@") {
		f.Errors["email"] = "Enter a valid email address"
	}
	if len(f.Password1) < minPasswordLength {
		f.Errors["password1"] = "Password must be at least 8 characters"
	}
	if f.Password1 != f.Password2 {
		f.Errors["password2"] = "Passwords do not match"
	}
	return len(f.Errors) == 0
}

// MarkTaken records a uniqueness violation surfaced by storage.
func (f *SignupForm) MarkTaken(field string) {
	switch field {
	case "username":
		f.Errors["username"] = "Username is already in use"
	case "email":
		f.Errors["email"] = "Email is already in use"
	}
}

type LoginForm struct {
	Username string
	Password string
	Errors   Errors
}

func ParseLoginForm(r *http.Request) *LoginForm {
	r.ParseForm()
	return &LoginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Valid() bool {
	if f.Username == "" {
		f.Errors["username"] = "Username is required"
	}
	if f.Password == "" {
		f.Errors["password"] = "Password is required"
	}
	return len(f.Errors) == 0
}

// MarkBadCredentials records a failed username/password check.
func (f *LoginForm) MarkBadCredentials() {
	f.Errors["password"] = "Invalid username or password"
}
