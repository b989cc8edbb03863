package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
)

type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type registerResponse struct {
	Identifier string `json:"identifier"`
}

type loginResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
	Opaque string `json:"opaque"`
}

type whoamiResponse struct {
	UserID int64 `json:"user_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identifier, err := s.auth.Register(r.Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidEmail), errors.Is(err, common.ErrorWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, common.ErrorDuplicateIdentifier):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Identifier: identifier})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(common.AuthorizationHeaderName, FormatAuthHeader(session))
	writeJSON(w, http.StatusOK, loginResponse{UserID: session.UserID, Token: session.Token, Opaque: session.Opaque})
}

func (s *HTTPServer) handleWhoami(w http.ResponseWriter, r *http.Request) {

	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, whoamiResponse{UserID: userID})
}
