package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"trivia-quiz-service/internal/domain"
)

type httpMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// errorKind is how a domain error is reported to REST and websocket clients.
type errorKind struct {
	err     error
	status  int
	kind    string
	message string
}

// Checked in order; the first match wins. An empty message means err.Error() is shown.
var errorKinds = []errorKind{
	{domain.ErrRateLimited, http.StatusTooManyRequests, "rateLimited", "Too many requests, please wait before trying again"},
	{domain.ErrSourceUnavailable, http.StatusServiceUnavailable, "sourceUnavailable", "Questions are unavailable right now"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "sessionExpired", "Token expired"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Token is not valid"},
	{domain.ErrInvalidSubmission, http.StatusBadRequest, "invalidSubmission", ""},
	{domain.ErrInvalidRequest, http.StatusBadRequest, "invalidRequest", ""},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalidCredentials", ""},
	{domain.ErrUserExists, http.StatusBadRequest, "userExists", "User already exists"},
	{domain.ErrNoHistory, http.StatusNotFound, "noHistory", "No quiz history found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "userNotFound", "User not found"},
	{domain.ErrOptionNotFound, http.StatusBadRequest, "optionNotFound", ""},
	{domain.ErrAlreadyAnswered, http.StatusConflict, "alreadyAnswered", ""},
	{domain.ErrSessionCompleted, http.StatusConflict, "sessionCompleted", ""},
	{domain.ErrSessionInProgress, http.StatusConflict, "sessionInProgress", ""},
	{domain.ErrStorageFailure, http.StatusInternalServerError, "storageFailure", "Could not save or load data"},
}

func classify(err error) (status int, kind, message string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			message = k.message
			if message == "" {
				message = err.Error()
			}
			return k.status, k.kind, message
		}
	}
	return http.StatusInternalServerError, "internal", "Internal server error"
}

func writeMessage(w http.ResponseWriter, status int, msgType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(httpMessage{Status: strconv.Itoa(status), Message: message, Type: msgType}); err != nil {
		log.Printf("http: write message: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, kind, message := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("http: %v", err)
	}
	writeMessage(w, status, kind, message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		log.Printf("http: write body: %v", err)
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browsers use for websocket upgrades.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
