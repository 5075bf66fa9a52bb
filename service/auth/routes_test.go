package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/scribahq/scriba/cmd/models"
	"github.com/scribahq/scriba/cmd/utils"
	"github.com/scribahq/scriba/templates"
)

func TestMain(m *testing.M) {
	os.Setenv("SECRET_KEY", "test-secret")
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func newTestServer(t *testing.T, db *gorm.DB) *mux.Router {
	t.Helper()
	render, err := templates.New()
	require.NoError(t, err)

	router := mux.NewRouter().StrictSlash(true)
	NewHandler(db, render).RegisterRoutes(router)
	return router
}

func submit(router http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func signupValues() url.Values {
	return url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"username":   {"ada"},
		"email":      {"ada@example.com"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	}
}

func TestSignupCreatesUser(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)

	w := submit(router, "/auth/signup/", signupValues())
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, db.Where("username = ?", "ada").First(&user).Error)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, "ada@example.com", user.Email)

	// Password is stored hashed, never in the clear.
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestSignupDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)

	require.Equal(t, http.StatusFound, submit(router, "/auth/signup/", signupValues()).Code)

	second := signupValues()
	second.Set("email", "other@example.com")
	w := submit(router, "/auth/signup/", second)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username is already in use")

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSignupPasswordMismatchReRenders(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)

	values := signupValues()
	values.Set("password2", "different")
	w := submit(router, "/auth/signup/", values)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match")
	// Submitted profile fields are preserved in the re-rendered form.
	assert.Contains(t, w.Body.String(), `value="Ada"`)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestLoginSetsSessionAndHonorsNext(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)
	require.Equal(t, http.StatusFound, submit(router, "/auth/signup/", signupValues()).Code)

	w := submit(router, "/auth/login/", url.Values{
		"username": {"ada"},
		"password": {"s3cret-pass"},
		"next":     {"/create/"},
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/create/", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session, "session cookie not set")
	assert.NotEmpty(t, session.Value)
	assert.True(t, session.HttpOnly)
}

func TestLoginBadPassword(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)
	require.Equal(t, http.StatusFound, submit(router, "/auth/signup/", signupValues()).Code)

	w := submit(router, "/auth/login/", url.Values{
		"username": {"ada"},
		"password": {"wrong"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)
	require.Equal(t, http.StatusFound, submit(router, "/auth/signup/", signupValues()).Code)

	w := submit(router, "/auth/login/", url.Values{
		"username": {"ada"},
		"password": {"s3cret-pass"},
		"next":     {"https://evil.example.com/"},
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogoutClearsCookie(t *testing.T) {
	db := newTestDB(t)
	router := newTestServer(t, db)

	r := httptest.NewRequest("GET", "/auth/logout/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, utils.SessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
