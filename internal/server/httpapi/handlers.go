package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
	"github.com/dmitrijs2005/pastekeeper/internal/server/services"
)

// UserService is the account surface the handlers depend on.
type UserService interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, userName string) ([]byte, error)
	Login(ctx context.Context, userName string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// PasteService is the paste surface the handlers depend on.
type PasteService interface {
	Create(ctx context.Context, userID string, title string, protected bool, passphrase string, files []models.PasteFile) (string, error)
	Get(ctx context.Context, pasteID string) (*models.Paste, error)
	Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error)
	List(ctx context.Context, userID string) ([]*models.Paste, error)
	Update(ctx context.Context, userID string, pasteID string, title string, files []models.PasteFile) error
	Delete(ctx context.Context, userID string, pasteID string) error
	GetArchivePutURL(ctx context.Context, userID string, pasteID string) (string, error)
	GetArchiveGetURL(ctx context.Context, userID string, pasteID string) (string, error)
}

func (s *HTTPServer) routes(us UserService, ps PasteService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/user/register", s.handleRegister(us))
	mux.HandleFunc("POST /api/user/salt", s.handleGetSalt(us))
	mux.HandleFunc("POST /api/user/login", s.handleLogin(us))
	mux.HandleFunc("POST /api/user/refresh", s.handleRefresh(us))

	// Reading a paste needs no account: protection is per paste.
	mux.HandleFunc("GET /api/pastes/{id}", s.handleGetPaste(ps))
	mux.HandleFunc("POST /api/pastes/{id}/unlock", s.handleUnlockPaste(ps))

	mux.HandleFunc("GET /api/pastes", s.withAuth(s.handleListPastes(ps)))
	mux.HandleFunc("POST /api/pastes", s.withAuth(s.handleCreatePaste(ps)))
	mux.HandleFunc("PUT /api/pastes/{id}", s.withAuth(s.handleUpdatePaste(ps)))
	mux.HandleFunc("DELETE /api/pastes/{id}", s.withAuth(s.handleDeletePaste(ps)))
	mux.HandleFunc("POST /api/pastes/{id}/archive/presign-put", s.withAuth(s.handlePresignPut(ps)))
	mux.HandleFunc("POST /api/pastes/{id}/archive/presign-get", s.withAuth(s.handlePresignGet(ps)))

	return mux
}

// --- wire types ---

type fileDTO struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	IsMain   bool   `json:"is_main"`
	Body     string `json:"body"`
	Salt     string `json:"salt,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

type pasteDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Protected bool      `json:"protected"`
	CreatedAt string    `json:"created_at,omitempty"`
	Files     []fileDTO `json:"files"`
}

type pasteOverviewDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Protected bool   `json:"protected"`
	CreatedAt string `json:"created_at"`
}

type registerRequest struct {
	Username string `json:"username"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

type saltRequest struct {
	Username string `json:"username"`
}

type saltResponse struct {
	Salt string `json:"salt"`
}

type loginRequest struct {
	Username string `json:"username"`
	Verifier string `json:"verifier"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type unlockRequest struct {
	Passphrase string `json:"passphrase"`
}

type createPasteRequest struct {
	Title      string    `json:"title"`
	Protected  bool      `json:"protected"`
	Passphrase string    `json:"passphrase,omitempty"`
	Files      []fileDTO `json:"files"`
}

type createPasteResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Pastes []pasteOverviewDTO `json:"pastes"`
}

type presignResponse struct {
	URL string `json:"url"`
}

func toPasteDTO(p *models.Paste) *pasteDTO {
	dto := &pasteDTO{
		ID:        p.ID,
		Title:     p.Title,
		Protected: p.Protected,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		Files:     make([]fileDTO, 0, len(p.Files)),
	}
	for _, f := range p.Files {
		dto.Files = append(dto.Files, fileDTO{
			Name:     f.Name,
			Language: f.Language,
			IsMain:   f.IsMain,
			Body:     f.Body,
			Salt:     f.Salt,
			Nonce:    f.Nonce,
		})
	}
	return dto
}

func fromFileDTOs(files []fileDTO) []models.PasteFile {
	result := make([]models.PasteFile, 0, len(files))
	for _, f := range files {
		result = append(result, models.PasteFile{
			Name:     f.Name,
			Language: f.Language,
			IsMain:   f.IsMain,
			Body:     f.Body,
			Salt:     f.Salt,
			Nonce:    f.Nonce,
		})
	}
	return result
}

// --- plumbing ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps sentinel service errors onto HTTP statuses. The 403
// path intentionally carries no detail beyond the denial.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
	default:
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- user handlers ---

func (s *HTTPServer) handleRegister(us UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !readJSON(w, r, &req) {
			return
		}
		salt, err := base64.StdEncoding.DecodeString(req.Salt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid salt encoding")
			return
		}
		verifier, err := base64.StdEncoding.DecodeString(req.Verifier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid verifier encoding")
			return
		}
		if req.Username == "" || len(verifier) == 0 {
			writeError(w, http.StatusBadRequest, "username and verifier are required")
			return
		}
		if _, err := us.Register(r.Context(), req.Username, salt, verifier); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *HTTPServer) handleGetSalt(us UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saltRequest
		if !readJSON(w, r, &req) {
			return
		}
		salt, err := us.GetSalt(r.Context(), req.Username)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saltResponse{Salt: base64.StdEncoding.EncodeToString(salt)})
	}
}

func (s *HTTPServer) handleLogin(us UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !readJSON(w, r, &req) {
			return
		}
		verifier, err := base64.StdEncoding.DecodeString(req.Verifier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid verifier encoding")
			return
		}
		pair, err := us.Login(r.Context(), req.Username, verifier)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

func (s *HTTPServer) handleRefresh(us UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !readJSON(w, r, &req) {
			return
		}
		pair, err := us.RefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

// --- paste handlers ---

func (s *HTTPServer) handleGetPaste(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paste, err := ps.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPasteDTO(paste))
	}
}

func (s *HTTPServer) handleUnlockPaste(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unlockRequest
		if !readJSON(w, r, &req) {
			return
		}
		paste, err := ps.Unlock(r.Context(), r.PathValue("id"), req.Passphrase)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPasteDTO(paste))
	}
}

func (s *HTTPServer) handleListPastes(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pastes, err := ps.List(r.Context(), userIDFromContext(r.Context()))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		resp := listResponse{Pastes: make([]pasteOverviewDTO, 0, len(pastes))}
		for _, p := range pastes {
			resp.Pastes = append(resp.Pastes, pasteOverviewDTO{
				ID:        p.ID,
				Title:     p.Title,
				Protected: p.Protected,
				CreatedAt: p.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *HTTPServer) handleCreatePaste(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPasteRequest
		if !readJSON(w, r, &req) {
			return
		}
		id, err := ps.Create(r.Context(), userIDFromContext(r.Context()),
			req.Title, req.Protected, req.Passphrase, fromFileDTOs(req.Files))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, createPasteResponse{ID: id})
	}
}

func (s *HTTPServer) handleUpdatePaste(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pasteDTO
		if !readJSON(w, r, &req) {
			return
		}
		err := ps.Update(r.Context(), userIDFromContext(r.Context()),
			r.PathValue("id"), req.Title, fromFileDTOs(req.Files))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *HTTPServer) handleDeletePaste(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := ps.Delete(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *HTTPServer) handlePresignPut(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := ps.GetArchivePutURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, presignResponse{URL: url})
	}
}

func (s *HTTPServer) handlePresignGet(ps PasteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := ps.GetArchiveGetURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, presignResponse{URL: url})
	}
}
