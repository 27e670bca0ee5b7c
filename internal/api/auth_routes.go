package api

import (
	"errors"
	"net/http"
	"net/mail"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/auth"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUserJSON struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

func (c *credentials) normalize() error {
	c.Email = auth.NormalizeEmail(c.Email)
	if c.Email == "" || c.Password == "" {
		return invalid("email and password are required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return invalid("invalid email address")
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if errors.Is(err, auth.ErrWeakPassword) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	u, err := s.store.Users.Create(r.Context(), &models.User{Email: req.Email, PasswordHash: hash})
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "email is already registered")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}

	writeData(w, http.StatusCreated, "User registered successfully.", authUserJSON{ID: u.ID, Email: u.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.store.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}

	ok, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		s.log.Error("check password", zap.Int64("userId", u.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		s.log.Error("issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, "Login successful.", authUserJSON{ID: u.ID, Email: u.Email, Token: token})
}
