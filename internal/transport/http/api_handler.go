package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

const maxQuestionAmount = 50

type identityKey struct{}

// APIDeps are the use cases served over REST.
type APIDeps struct {
	Accounts      *auth.Service
	Loader        app.QuestionSetLoader
	Submitter     *app.AttemptSubmitter
	History       *app.HistoryAggregator
	QuestionCount int
}

type APIHandler struct {
	accounts      *auth.Service
	loader        app.QuestionSetLoader
	submitter     *app.AttemptSubmitter
	history       *app.HistoryAggregator
	questionCount int
}

func NewAPIHandler(deps APIDeps) *APIHandler {
	count := deps.QuestionCount
	if count <= 0 {
		count = app.DefaultQuestionCount
	}
	return &APIHandler{
		accounts:      deps.Accounts,
		loader:        deps.Loader,
		submitter:     deps.Submitter,
		history:       deps.History,
		questionCount: count,
	}
}

// Register mounts the /api routes on r.
func (h *APIHandler) Register(r *mux.Router) {
	users := r.PathPrefix("/api/users").Subrouter()
	users.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	users.HandleFunc("/login", h.login).Methods(http.MethodPost)
	users.HandleFunc("/profile", h.requireUser(h.profile)).Methods(http.MethodGet)

	quiz := r.PathPrefix("/api/quiz").Subrouter()
	quiz.HandleFunc("/questions", h.questions).Methods(http.MethodGet)
	// results authenticates inside the submitter so an expired token is reported as such.
	quiz.HandleFunc("/results", h.results).Methods(http.MethodPost)
	quiz.HandleFunc("/history", h.requireUser(h.quizHistory)).Methods(http.MethodGet)
	quiz.HandleFunc("/score", h.requireUser(h.totalScore)).Methods(http.MethodGet)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *APIHandler) signup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", "invalid request body")
		return
	}
	user, token, err := h.accounts.Register(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", "invalid request body")
		return
	}
	user, token, err := h.accounts.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *APIHandler) profile(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	user, err := h.accounts.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) questions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	difficulty, err := domain.ParseDifficulty(q.Get("difficulty"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", err.Error())
		return
	}
	count := h.questionCount
	if raw := q.Get("amount"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxQuestionAmount {
			writeMessage(w, http.StatusBadRequest, "badrequest", fmt.Sprintf("amount must be between 1 and %d", maxQuestionAmount))
			return
		}
	}

	set, err := h.loader.Load(r.Context(), q.Get("category"), difficulty, count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// resultsRequest is the client's finished quiz. Any score it carries is ignored.
type resultsRequest struct {
	Score      *int                      `json:"score,omitempty"`
	Category   string                    `json:"category"`
	Difficulty string                    `json:"difficulty"`
	Questions  []domain.AnsweredQuestion `json:"questions"`
}

func (h *APIHandler) results(w http.ResponseWriter, r *http.Request) {
	var req resultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidSubmission))
		return
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidSubmission, err))
		return
	}

	result, err := h.submitter.Submit(r.Context(), req.Questions, req.Category, difficulty, bearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type historyResponse struct {
	QuizHistory []domain.HistoryEntry `json:"quizHistory"`
}

func (h *APIHandler) quizHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.History(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(entries) == 0 {
		writeError(w, domain.ErrNoHistory)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{QuizHistory: entries})
}

func (h *APIHandler) totalScore(w http.ResponseWriter, r *http.Request) {
	summary, err := h.history.TotalScore(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// requireUser rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (h *APIHandler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.accounts.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if identity.Expired {
			writeError(w, domain.ErrSessionExpired)
			return
		}
		if !identity.Valid {
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
	}
}

func identityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(domain.Identity)
	return identity
}
