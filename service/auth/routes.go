package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/scribahq/scriba/cmd/models"
	"github.com/scribahq/scriba/cmd/utils"
	"github.com/scribahq/scriba/forms"
	"github.com/scribahq/scriba/templates"
)

const sessionLifetime = 14 * 24 * time.Hour

type Handler struct {
	db     *gorm.DB
	render *templates.Renderer
}

func NewHandler(db *gorm.DB, render *templates.Renderer) *Handler {
	return &Handler{db: db, render: render}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/signup/", h.Signup).Methods("GET", "POST")
	router.HandleFunc("/auth/login/", h.Login).Methods("GET", "POST")
	router.HandleFunc("/auth/logout/", h.Logout).Methods("GET")
}

type signupPage struct {
	Form *forms.SignupForm
}

// Signup registers a new user. Username and email uniqueness violations
// come back as field errors on the re-rendered form, with the schema's
// unique indexes as the fallback for concurrent registrations.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "signup.html", signupPage{
			Form: &forms.SignupForm{Errors: forms.Errors{}},
		})
		return
	}

	form := forms.ParseSignupForm(r)
	if !form.Valid() {
		h.render.Render(w, http.StatusOK, "signup.html", signupPage{Form: form})
		return
	}

	var existing models.User
	result := h.db.Where("username = ? OR email = ?", form.Username, form.Email).First(&existing)
	if result.Error == nil {
		if existing.Username == form.Username {
			form.MarkTaken("username")
		}
		if existing.Email == form.Email {
			form.MarkTaken("email")
		}
		h.render.Render(w, http.StatusOK, "signup.html", signupPage{Form: form})
		return
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     form.Username,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: string(passwordHash),
	}
	if err := h.db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "duplicate key") {
			form.MarkTaken("username")
			h.render.Render(w, http.StatusOK, "signup.html", signupPage{Form: form})
			return
		}
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	go func() {
		if err := sendWelcomeEmail(user.Email, user.FirstName); err != nil {
			log.Printf("Error sending welcome email: %v", err)
		}
	}()

	http.Redirect(w, r, "/", http.StatusFound)
}

// sendWelcomeEmail greets a freshly registered user. SMTP settings come
// from the environment; a missing host simply skips the mail.
func sendWelcomeEmail(email, firstName string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		return nil
	}
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to Scriba")
	m.SetBody("text/plain", "Hi "+firstName+", your account is ready. Happy writing!")

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return errors.New("invalid SMTP port")
	}
	d := gomail.NewDialer(smtpHost, port, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

type loginPage struct {
	Form *forms.LoginForm
	Next string
}

// Login checks the password and starts a browser session. A next
// parameter carried by the login redirect is honored on success so the
// user lands back where they were headed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render.Render(w, http.StatusOK, "login.html", loginPage{
			Form: &forms.LoginForm{Errors: forms.Errors{}},
			Next: r.URL.Query().Get("next"),
		})
		return
	}

	form := forms.ParseLoginForm(r)
	next := r.FormValue("next")
	if !form.Valid() {
		h.render.Render(w, http.StatusOK, "login.html", loginPage{Form: form, Next: next})
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", form.Username).First(&user).Error; err != nil {
		form.MarkBadCredentials()
		h.render.Render(w, http.StatusOK, "login.html", loginPage{Form: form, Next: next})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		form.MarkBadCredentials()
		h.render.Render(w, http.StatusOK, "login.html", loginPage{Form: form, Next: next})
		return
	}

	token, err := utils.GenerateToken(user.ID, sessionLifetime)
	if err != nil {
		http.Error(w, "Error generating session token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionLifetime / time.Second),
	})

	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

// Logout drops the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// safeNext keeps the post-login redirect on this site. Anything that does
// not parse as a local path falls back to the home page.
func safeNext(next string) string {
	if next == "" {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return u.RequestURI()
}
