package http

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
	"fintrack/internal/storage"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		respond.Error(w, http.StatusBadRequest, "username and email are required")
		return
	}
	if len(req.Password) < 8 || !utf8.ValidString(req.Password) {
		respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = core.DefaultCurrency
	}

	hash, err := auth.HashPassword(req.Password, s.deps.BcryptCost)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := s.deps.Store.CreateUser(r.Context(), core.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       core.RoleUser,
		Active:       true,
		Currency:     currency,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "username or email already taken")
			return
		}
		writeDomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "user created", newUserView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.deps.Store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.Active {
		respond.Error(w, http.StatusForbidden, "account is deactivated")
		return
	}

	token, err := s.deps.Tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", map[string]any{
		"token": token,
		"user":  newUserView(user),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	user, err := s.deps.Store.GetUser(r.Context(), principal.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newUserView(user))
}
