// internal/api/auth_handlers.go
package api

import (
	stderrors "errors"
	"net/http"
	"strings"

	"bizpilot/internal/common/auth"
	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/validation"
	"bizpilot/internal/models"
	"bizpilot/internal/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := bind(r, validation.Registration, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.fail(w, r, errors.NewInternalError(err))
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Preferences:  models.DefaultPreferences(),
		IsActive:     true,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if stderrors.Is(err, store.ErrDuplicateEmail) {
			s.fail(w, r, errors.NewDuplicateEmailError(store.NormalizeEmail(req.Email)))
			return
		}
		s.fail(w, r, errors.NewDatabaseInsertFailedError(err))
		return
	}

	result, err := s.issue(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("user registered", map[string]interface{}{"userId": user.ID})
	s.ok(w, http.StatusCreated, "User registered successfully", result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := bind(r, validation.Login, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	invalid := unauthorized("Invalid email or password")

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			s.fail(w, r, invalid)
			return
		}
		s.fail(w, r, errors.NewQueryExecutionFailedError("login", err))
		return
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.fail(w, r, invalid)
		return
	}

	user, err = s.store.MutateUser(r.Context(), user.ID, func(u *models.User) error {
		u.Stats.LastLoginAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("login", err))
		return
	}

	result, err := s.issue(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Login successful", result)
}

func (s *Server) issue(user *models.User) (*models.AuthResult, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return &models.AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, "", map[string]interface{}{"user": requestState(r).User})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := bind(r, validation.ProfileUpdate, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	st := requestState(r)
	user, err := s.store.MutateUser(r.Context(), st.User.ID, func(u *models.User) error {
		req.Apply(u)
		return nil
	})
	if err != nil {
		s.fail(w, r, notFound(err, "User", st.User.ID))
		return
	}
	s.ok(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": user})
}

// handleLogout denylists the presented token until it expires.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	st := requestState(r)
	if err := s.tokens.Revoke(r.Context(), st.Session); err != nil {
		s.fail(w, r, errors.NewInternalError(err))
		return
	}
	s.log.Info("user logged out", map[string]interface{}{"userId": st.User.ID, "tokenId": st.Session.ID})
	s.ok(w, http.StatusOK, "Logged out successfully", nil)
}
