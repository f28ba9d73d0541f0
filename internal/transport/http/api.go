// Package http exposes the screening service over REST and websockets.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/auth"
	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/export"
	"github.com/go-playground/validator/v10"
)

// API bundles the REST handlers and their dependencies.
type API struct {
	users       *app.UserService
	assessments *app.AssessmentService
	tokens      *auth.TokenManager
	validate    *validator.Validate
}

func NewAPI(users *app.UserService, assessments *app.AssessmentService, tokens *auth.TokenManager) *API {
	return &API{
		users:       users,
		assessments: assessments,
		tokens:      tokens,
		validate:    validator.New(),
	}
}

// Routes registers every REST endpoint on the mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/users/register", allow(http.MethodPost, a.handleRegister))
	mux.HandleFunc("/api/users/login", allow(http.MethodPost, a.handleLogin))
	mux.HandleFunc("/api/users/profile", a.requireAuth(a.handleProfile))
	mux.HandleFunc("/api/users/link-child", allow(http.MethodPost, a.requireAuth(a.handleLinkChild)))
	mux.HandleFunc("/api/users/students", allow(http.MethodGet, a.requireAuth(a.handleStudents)))
	mux.HandleFunc("/api/assessments/start", allow(http.MethodPost, a.requireAuth(a.handleStart)))
	mux.HandleFunc("/api/assessments/submit", allow(http.MethodPost, a.requireAuth(a.handleSubmit)))
	mux.HandleFunc("/api/assessments/results", allow(http.MethodGet, a.requireAuth(a.handleResults)))
	mux.HandleFunc("/api/assessments/export", allow(http.MethodGet, a.requireAuth(a.handleExport)))
}

func allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

type authedHandler func(w http.ResponseWriter, r *http.Request, identity domain.Identity)

// requireAuth resolves the Bearer token into an identity before calling
// the wrapped handler.
func (a *API) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identityFromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, identity)
	}
}

func (a *API) identityFromRequest(r *http.Request) (domain.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return a.tokens.Verify(token)
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
	Age      int    `json:"age"`
	Grade    string `json:"grade"`
	Language string `json:"language"`
	Consent  bool   `json:"consent"`
}

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := a.users.Register(r.Context(), app.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Age:      req.Age,
		Grade:    req.Grade,
		Language: req.Language,
		Consent:  req.Consent,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Grade    string `json:"grade"`
	Language string `json:"language"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	switch r.Method {
	case http.MethodGet:
		user, err := a.users.Profile(r.Context(), identity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req updateProfileRequest
		if err := a.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		user, err := a.users.UpdateProfile(r.Context(), identity, app.ProfileUpdate{
			Name:     req.Name,
			Age:      req.Age,
			Grade:    req.Grade,
			Language: req.Language,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type linkChildRequest struct {
	ChildID string `json:"childId" validate:"required"`
}

func (a *API) handleLinkChild(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	var req linkChildRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.users.LinkChild(r.Context(), identity, req.ChildID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

func (a *API) handleStudents(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	students, err := a.users.Students(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

type startRequest struct {
	Questions []domain.Question `json:"questions"`
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	var req startRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	assessment, err := a.assessments.StartAssessment(r.Context(), identity, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assessment)
}

type submitRequest struct {
	AssessmentID string                   `json:"assessmentId"`
	Answers      []domain.SubmittedAnswer `json:"answers"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	var req submitRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := a.assessments.SubmitAssessment(r.Context(), identity, req.AssessmentID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleResults(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	_, results, err := a.assessments.ResultsForUser(r.Context(), identity, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, domain.Validationf("unknown format %q", format))
		return
	}

	user, results, err := a.assessments.ResultsForUser(r.Context(), identity, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="results-`+user.ID+`.csv"`)
		if err := export.WriteCSV(w, user, results); err != nil {
			log.Printf("csv export for %s: %v", user.ID, err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="results-`+user.ID+`.xlsx"`)
		if err := export.WriteXLSX(w, user, results); err != nil {
			log.Printf("xlsx export for %s: %v", user.ID, err)
		}
	}
}

// decode unmarshals and validates a JSON request body.
func (a *API) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := a.validate.Struct(dst); err != nil {
		return domain.Validationf("%v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged server-side and surface as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrBadCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrAssessmentNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrSessionFinished):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
