package forms

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func postRequest(values url.Values) *SignupForm {
	r := httptest.NewRequest("POST", "/auth/signup/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ParseSignupForm(r)
}

func TestPostFormRequiresText(t *testing.T) {
	r := httptest.NewRequest("POST", "/create/", strings.NewReader(url.Values{
		"text": {"   "},
	}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParsePostForm(r)
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "text")
	// Original input is preserved for re-rendering.
	assert.Equal(t, "   ", form.Text)
}

func TestPostFormParsesOptionalGroup(t *testing.T) {
	r := httptest.NewRequest("POST", "/create/", strings.NewReader(url.Values{
		"text":  {"hello"},
		"group": {"3"},
	}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParsePostForm(r)
	assert.True(t, form.Valid())
	if assert.NotNil(t, form.GroupID) {
		assert.Equal(t, uint(3), *form.GroupID)
	}
}

func TestPostFormAbsentGroupIsValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/create/", strings.NewReader(url.Values{
		"text": {"hello"},
	}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParsePostForm(r)
	assert.True(t, form.Valid())
	assert.Nil(t, form.GroupID)
}

func TestPostFormRejectsMalformedGroup(t *testing.T) {
	r := httptest.NewRequest("POST", "/create/", strings.NewReader(url.Values{
		"text":  {"hello"},
		"group": {"not-a-number"},
	}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParsePostForm(r)
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "group")
}

func TestCommentFormRequiresText(t *testing.T) {
	r := httptest.NewRequest("POST", "/posts/1/comment/", strings.NewReader(url.Values{
		"text": {""},
	}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParseCommentForm(r)
	assert.False(t, form.Valid())
}

func TestSignupFormValid(t *testing.T) {
	form := postRequest(url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"username":   {"ada"},
		"email":      {"ada@example.com"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	})
	assert.True(t, form.Valid())
	assert.Empty(t, form.Errors)
}

func TestSignupFormPasswordMismatch(t *testing.T) {
	form := postRequest(url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"username":   {"ada"},
		"email":      {"ada@example.com"},
		"password1":  {"s3cret-pass"},
		"password2":  {"different"},
	})
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "password2")
}

func TestSignupFormShortPassword(t *testing.T) {
	form := postRequest(url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"username":   {"ada"},
		"email":      {"ada@example.com"},
		"password1":  {"short"},
		"password2":  {"short"},
	})
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "password1")
}

func TestSignupFormBadEmail(t *testing.T) {
	form := postRequest(url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"username":   {"ada"},
		"email":      {"not-an-email"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	})
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "email")
}

func TestSignupFormMarkTaken(t *testing.T) {
	form := &SignupForm{Errors: Errors{}}
	form.MarkTaken("username")
	assert.Contains(t, form.Errors, "username")
}

func TestLoginFormRequiresFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login/", strings.NewReader(""))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := ParseLoginForm(r)
	assert.False(t, form.Valid())
	assert.Contains(t, form.Errors, "username")
	assert.Contains(t, form.Errors, "password")
}
