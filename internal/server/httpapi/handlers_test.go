package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/logging"
	"github.com/dmitrijs2005/pastekeeper/internal/server/auth"
	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
	"github.com/dmitrijs2005/pastekeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUserService struct {
	registerErr error

	salt    []byte
	saltErr error

	loginPair *services.TokenPair
	loginErr  error

	refreshPair *services.TokenPair
	refreshErr  error
}

func (f *fakeUserService) Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u1", UserName: username}, nil
}

func (f *fakeUserService) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	return f.salt, f.saltErr
}

func (f *fakeUserService) Login(ctx context.Context, userName string, verifier []byte) (*services.TokenPair, error) {
	return f.loginPair, f.loginErr
}

func (f *fakeUserService) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.refreshPair, f.refreshErr
}

type fakePasteService struct {
	paste     *models.Paste
	getErr    error
	unlockErr error

	gotPassphrase string

	list    []*models.Paste
	listErr error

	createdID  string
	createErr  error
	gotCreate  *models.Paste
	gotCreator string

	updateErr error
	deleteErr error
	deletedID string

	putURL string
	getURL string
}

func (f *fakePasteService) Create(ctx context.Context, userID string, title string, protected bool, passphrase string, files []models.PasteFile) (string, error) {
	f.gotCreator = userID
	f.gotCreate = &models.Paste{Title: title, Protected: protected, Files: files}
	f.gotPassphrase = passphrase
	return f.createdID, f.createErr
}

func (f *fakePasteService) Get(ctx context.Context, pasteID string) (*models.Paste, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.paste, nil
}

func (f *fakePasteService) Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error) {
	f.gotPassphrase = passphrase
	if f.unlockErr != nil {
		return nil, f.unlockErr
	}
	return f.paste, nil
}

func (f *fakePasteService) List(ctx context.Context, userID string) ([]*models.Paste, error) {
	return f.list, f.listErr
}

func (f *fakePasteService) Update(ctx context.Context, userID string, pasteID string, title string, files []models.PasteFile) error {
	return f.updateErr
}

func (f *fakePasteService) Delete(ctx context.Context, userID string, pasteID string) error {
	f.deletedID = pasteID
	return f.deleteErr
}

func (f *fakePasteService) GetArchivePutURL(ctx context.Context, userID string, pasteID string) (string, error) {
	return f.putURL, nil
}

func (f *fakePasteService) GetArchiveGetURL(ctx context.Context, userID string, pasteID string) (string, error) {
	return f.getURL, nil
}

func newTestServer(t *testing.T, us UserService, ps PasteService) *HTTPServer {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	s, err := NewHTTPServer(":0", logger, us, ps, testSecret)
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, s *HTTPServer, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set(common.AccessTokenHeaderName, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func validToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("u1", []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return token
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestGetPaste_Public(t *testing.T) {
	ps := &fakePasteService{paste: &models.Paste{
		ID:    "p1",
		Title: "snippet",
		Files: []models.PasteFile{{Name: "main.go", Body: "package main"}},
	}}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodGet, "/api/pastes/p1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dto pasteDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "p1", dto.ID)
	require.Len(t, dto.Files, 1)
	assert.Equal(t, "package main", dto.Files[0].Body)
}

func TestGetPaste_ProtectedDenied(t *testing.T) {
	ps := &fakePasteService{getErr: common.ErrAccessDenied}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodGet, "/api/pastes/p1", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access denied", errorBody(t, rec))
}

func TestGetPaste_NotFound(t *testing.T) {
	ps := &fakePasteService{getErr: common.ErrorNotFound}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodGet, "/api/pastes/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnlockPaste_ForwardsPassphrase(t *testing.T) {
	ps := &fakePasteService{paste: &models.Paste{ID: "p1", Protected: true}}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodPost, "/api/pastes/p1/unlock",
		unlockRequest{Passphrase: "hunter22"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hunter22", ps.gotPassphrase)
}

func TestUnlockPaste_WrongPassphrase(t *testing.T) {
	ps := &fakePasteService{unlockErr: common.ErrAccessDenied}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodPost, "/api/pastes/p1/unlock",
		unlockRequest{Passphrase: "wrong"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access denied", errorBody(t, rec))
}

func TestListPastes_RequiresToken(t *testing.T) {
	s := newTestServer(t, &fakeUserService{}, &fakePasteService{})

	rec := doRequest(t, s, http.MethodGet, "/api/pastes", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListPastes_ExpiredTokenBody(t *testing.T) {
	s := newTestServer(t, &fakeUserService{}, &fakePasteService{})

	expired, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/pastes", nil, expired)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// The client refresh flow keys on this exact message.
	assert.Equal(t, common.ErrTokenExpired.Error(), errorBody(t, rec))
}

func TestListPastes_OK(t *testing.T) {
	ps := &fakePasteService{list: []*models.Paste{
		{ID: "p1", Title: "one", Protected: true},
		{ID: "p2", Title: "two"},
	}}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodGet, "/api/pastes", nil, validToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Pastes, 2)
	assert.True(t, resp.Pastes[0].Protected)
}

func TestCreatePaste(t *testing.T) {
	ps := &fakePasteService{createdID: "p-new"}
	s := newTestServer(t, &fakeUserService{}, ps)

	req := createPasteRequest{
		Title:      "snippet",
		Protected:  true,
		Passphrase: "hunter22",
		Files:      []fileDTO{{Name: "main.go", Body: "ct", Salt: "s", Nonce: "n"}},
	}
	rec := doRequest(t, s, http.MethodPost, "/api/pastes", req, validToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createPasteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p-new", resp.ID)
	assert.Equal(t, "u1", ps.gotCreator)
	assert.Equal(t, "hunter22", ps.gotPassphrase)
	require.Len(t, ps.gotCreate.Files, 1)
}

func TestDeletePaste(t *testing.T) {
	ps := &fakePasteService{}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodDelete, "/api/pastes/p1", nil, validToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", ps.deletedID)
}

func TestLogin(t *testing.T) {
	us := &fakeUserService{loginPair: &services.TokenPair{AccessToken: "a", RefreshToken: "r"}}
	s := newTestServer(t, us, &fakePasteService{})

	rec := doRequest(t, s, http.MethodPost, "/api/user/login",
		loginRequest{Username: "alice", Verifier: "dg=="}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)
}

func TestLogin_Unauthorized(t *testing.T) {
	us := &fakeUserService{loginErr: common.ErrorUnauthorized}
	s := newTestServer(t, us, &fakePasteService{})

	rec := doRequest(t, s, http.MethodPost, "/api/user/login",
		loginRequest{Username: "alice", Verifier: "dg=="}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_Expired(t *testing.T) {
	us := &fakeUserService{refreshErr: common.ErrRefreshTokenExpired}
	s := newTestServer(t, us, &fakePasteService{})

	rec := doRequest(t, s, http.MethodPost, "/api/user/refresh",
		refreshRequest{RefreshToken: "stale"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPresignPut(t *testing.T) {
	ps := &fakePasteService{putURL: "http://presigned/put"}
	s := newTestServer(t, &fakeUserService{}, ps)

	rec := doRequest(t, s, http.MethodPost, "/api/pastes/p1/archive/presign-put", nil, validToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp presignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://presigned/put", resp.URL)
}
