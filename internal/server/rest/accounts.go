package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
)

type userView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Name: u.FullName(), Email: u.Email, IsSuperuser: u.IsSuperuser}
}

type loginResponse struct {
	Message   string    `json:"message"`
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := bindFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	age, err := f.intPtr("age")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err = s.accounts.Register(r.Context(), services.RegisterInput{
		Email:    f["email"],
		Password: f["password"],
		Name:     f["name"],
		Age:      age,
		Country:  f["country"],
		Purpose:  f["purpose"],
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Usuario creado exitosamente"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := bindFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	email, password := f["email"], f["password"]
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingCredentials})
		return
	}

	sess, user, err := s.accounts.Login(r.Context(), email, password)
	if errors.Is(err, common.ErrorUnauthorized) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidCredentials})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login exitoso",
		User:      newUserView(user),
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := tokenFromContext(r.Context()); token != "" {
		s.accounts.Logout(r.Context(), token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageBody{Message: "Sesión cerrada correctamente"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(userFromContext(r.Context())))
}
