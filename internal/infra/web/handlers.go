package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/usecase"
)

var validate = validator.New()

// ===== Request/response bodies =====

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type skillCreateRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=private shared public"`
	SkillMD     string `json:"skill_md" validate:"required"`
	OpenAPIYAML string `json:"openapi_yaml" validate:"required"`
}

type skillUpdateRequest struct {
	Description *string `json:"description"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=private shared public"`
	SkillMD     *string `json:"skill_md"`
	OpenAPIYAML *string `json:"openapi_yaml"`
}

type collaboratorRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=editor viewer"`
}

// Empty input is legal; a skill run does not have to carry a payload.
type runRequest struct {
	InputText string `json:"input_text"`
}

type skillResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type versionResponse struct {
	Version     int       `json:"version"`
	SkillMD     string    `json:"skill_md"`
	OpenAPIYAML string    `json:"openapi_yaml"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type skillDetailResponse struct {
	skillResponse
	LatestVersion versionResponse `json:"latest_version"`
	CanEdit       bool            `json:"can_edit"`
}

type jobResponse struct {
	ID          string    `json:"id"`
	SkillID     int64     `json:"skill_id"`
	RequestedBy int64     `json:"requested_by"`
	InputText   string    `json:"input_text"`
	Status      string    `json:"status"`
	OutputText  string    `json:"output_text"`
	ErrorText   string    `json:"error_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toSkillResponse(s *model.Skill) skillResponse {
	return skillResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: s.Description,
		Visibility:  string(s.Visibility),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toVersionResponse(v *model.SkillVersion) versionResponse {
	return versionResponse{
		Version:     v.Version,
		SkillMD:     v.SkillMD,
		OpenAPIYAML: v.OpenAPIYAML,
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt,
	}
}

func toSkillDetailResponse(d *usecase.SkillDetail) skillDetailResponse {
	return skillDetailResponse{
		skillResponse: toSkillResponse(d.Skill),
		LatestVersion: toVersionResponse(d.LatestVersion),
		CanEdit:       d.CanEdit,
	}
}

func toJobResponse(j *model.RunJob) jobResponse {
	return jobResponse{
		ID:          j.ID,
		SkillID:     j.SkillID,
		RequestedBy: j.RequestedBy,
		InputText:   j.InputText,
		Status:      string(j.Status),
		OutputText:  j.OutputText,
		ErrorText:   j.ErrorText,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ===== Encoding helpers =====

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the domain sentinels onto HTTP statuses. Anything
// unmapped is a 500 with a generic body; details stay in the logs.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrNoVersion):
		writeError(w, http.StatusConflict, "skill has no version")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func skillIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "skillID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid skill id")
		return 0, false
	}
	return id, true
}

// ===== Auth =====

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	user, err := s.userUC.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	token, err := s.auth.Mint(user.ID, user.Email)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.limiter.Allow(r.Context(), loginRateKey(r), loginRateLimit, loginRateWindow)
	if err != nil {
		s.log.Error().Err(err).Msg("login rate limit check failed")
	} else if !ok {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	user, err := s.userUC.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	token, err := s.auth.Mint(user.ID, user.Email)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.userUC.GetByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ===== Skills =====

func (s *Server) handleSkillCreate(w http.ResponseWriter, r *http.Request) {
	var req skillCreateRequest
	if !decodeValid(w, r, &req) {
		return
	}
	detail, err := s.skillUC.Create(r.Context(), userIDFrom(r.Context()),
		req.Name, req.Description, model.SkillVisibility(req.Visibility), req.SkillMD, req.OpenAPIYAML)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSkillDetailResponse(detail))
}

func (s *Server) handleSkillList(w http.ResponseWriter, r *http.Request) {
	includePublic := r.URL.Query().Get("include_public") != "false"
	skills, err := s.skillUC.List(r.Context(), userIDFrom(r.Context()), includePublic)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]skillResponse, 0, len(skills))
	for _, sk := range skills {
		out = append(out, toSkillResponse(sk))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []skillResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleSkillGet(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	detail, err := s.skillUC.Get(r.Context(), skillID, userIDFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillDetailResponse(detail))
}

func (s *Server) handleSkillUpdate(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	var req skillUpdateRequest
	if !decodeValid(w, r, &req) {
		return
	}
	var vis *model.SkillVisibility
	if req.Visibility != nil {
		v := model.SkillVisibility(*req.Visibility)
		vis = &v
	}
	detail, err := s.skillUC.Update(r.Context(), skillID, userIDFrom(r.Context()),
		req.Description, req.SkillMD, req.OpenAPIYAML, vis)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillDetailResponse(detail))
}

func (s *Server) handleSkillVersions(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	versions, err := s.skillUC.Versions(r.Context(), skillID, userIDFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []versionResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleCollaboratorAdd(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	var req collaboratorRequest
	if !decodeValid(w, r, &req) {
		return
	}
	err := s.skillUC.AddCollaborator(r.Context(), skillID, userIDFrom(r.Context()),
		req.Email, model.CollaboratorRole(req.Role))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Jobs =====

func (s *Server) handleSkillRun(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	userID := userIDFrom(r.Context())

	allowed, err := s.limiter.Allow(r.Context(), runRateKey(userID), runRateLimit, runRateWindow)
	if err != nil {
		s.log.Error().Err(err).Msg("run rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many run requests")
		return
	}

	var req runRequest
	if !decodeValid(w, r, &req) {
		return
	}
	job, err := s.jobUC.Run(r.Context(), skillID, userID, req.InputText)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	// 202: the job is queued, not done; poll GET /jobs/{id} for the outcome.
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleSkillJobs(w http.ResponseWriter, r *http.Request) {
	skillID, ok := skillIDParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	jobs, err := s.jobUC.ListBySkill(r.Context(), skillID, userIDFrom(r.Context()), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []jobResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := s.jobUC.Get(r.Context(), jobID, userIDFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}
