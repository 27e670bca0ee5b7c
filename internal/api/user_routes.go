package api

import (
	"net/http"
	"strings"
	"time"
)

type profileRequest struct {
	FullName        *string    `json:"fullName"`
	Mobile          *string    `json:"mobile"`
	DateOfBirth     *flexTime  `json:"dateOfBirth"`
	Address         *string    `json:"address"`
	StartingBalance *flexFloat `json:"startingBalance"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	u, err := s.store.Users.GetByID(r.Context(), claims.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}
	writeData(w, http.StatusOK, "User retrieved successfully.", u)
}

// handleUpdateProfile changes only the fields present in the body.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.store.Users.GetByID(r.Context(), claims.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}

	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Mobile != nil {
		u.Mobile = strings.TrimSpace(*req.Mobile)
	}
	if req.Address != nil {
		u.Address = strings.TrimSpace(*req.Address)
	}
	if req.DateOfBirth != nil {
		if req.DateOfBirth.IsZero() {
			u.DateOfBirth = nil
		} else {
			if req.DateOfBirth.After(time.Now()) {
				writeError(w, http.StatusBadRequest, "dateOfBirth cannot be in the future")
				return
			}
			dob := req.DateOfBirth.Time
			u.DateOfBirth = &dob
		}
	}
	if req.StartingBalance != nil {
		if *req.StartingBalance < 0 {
			writeError(w, http.StatusBadRequest, "startingBalance cannot be negative")
			return
		}
		u.StartingBalance = float64(*req.StartingBalance)
	}

	updated, err := s.store.Users.UpdateProfile(r.Context(), u)
	if err != nil {
		s.writeStoreError(w, r, err, "user")
		return
	}
	// the starting balance feeds every cached stat
	s.cache.Invalidate(r.Context(), u.ID)

	writeData(w, http.StatusOK, "User updated successfully.", updated)
}
