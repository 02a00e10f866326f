package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
	"github.com/dmitrijs2005/pastekeeper/internal/common"
)

// HTTPClient talks JSON over HTTP to the paste store. It carries the access
// token on authenticated requests and transparently refreshes an expired
// token once before retrying the original request.
type HTTPClient struct {
	baseURL      string
	http         *http.Client
	accessToken  string
	refreshToken string
}

func NewPasteKeeperClient(baseURL string, requestTimeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("empty endpoint url")
	}
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// doJSON performs one request/response cycle. It does not retry.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return ErrUnavailable
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return c.mapStatus(resp.StatusCode, er.Error)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// do wraps doJSON with the expired-token refresh policy: a 401 whose message
// matches the token-expired sentinel triggers one refresh attempt and one
// retry of the original request.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	err := c.doJSON(ctx, method, path, in, out)
	if err == nil {
		return nil
	}

	if !errors.Is(err, common.ErrTokenExpired) || c.refreshToken == "" {
		return err
	}

	var tokens tokenPairResponse
	if rerr := c.doJSON(ctx, http.MethodPost, "/api/user/refresh",
		refreshRequest{RefreshToken: c.refreshToken}, &tokens); rerr != nil {
		return err
	}
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken

	return c.doJSON(ctx, method, path, in, out)
}

func (c *HTTPClient) mapStatus(code int, message string) error {
	switch code {
	case http.StatusUnauthorized:
		if message == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrAccessDenied
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return fmt.Errorf("http error: %d %s", code, message)
	}
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
	Title      string             `json:"title"`
	Protected  bool               `json:"protected"`
	Passphrase string             `json:"passphrase,omitempty"`
	Files      []models.PasteFile `json:"files"`
}

type createPasteResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Pastes []models.PasteOverview `json:"pastes"`
}

type presignResponse struct {
	URL string `json:"url"`
}

func (c *HTTPClient) Register(ctx context.Context, username string, salt []byte, verifier []byte) error {
	req := registerRequest{
		Username: username,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Verifier: base64.StdEncoding.EncodeToString(verifier),
	}
	return c.do(ctx, http.MethodPost, "/api/user/register", req, nil)
}

func (c *HTTPClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	var resp saltResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/salt", saltRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(resp.Salt)
}

func (c *HTTPClient) Login(ctx context.Context, username string, verifier []byte) error {
	req := loginRequest{
		Username: username,
		Verifier: base64.StdEncoding.EncodeToString(verifier),
	}
	var resp tokenPairResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/login", req, &resp); err != nil {
		return err
	}
	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	return nil
}

func (c *HTTPClient) List(ctx context.Context) ([]models.PasteOverview, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/pastes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pastes, nil
}

func (c *HTTPClient) Fetch(ctx context.Context, pasteID string) (*models.Paste, error) {
	var p models.Paste
	if err := c.do(ctx, http.MethodGet, "/api/pastes/"+pasteID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error) {
	var p models.Paste
	if err := c.do(ctx, http.MethodPost, "/api/pastes/"+pasteID+"/unlock",
		unlockRequest{Passphrase: passphrase}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Create(ctx context.Context, paste *models.Paste, passphrase string) (string, error) {
	req := createPasteRequest{
		Title:      paste.Title,
		Protected:  paste.Protected,
		Passphrase: passphrase,
		Files:      paste.Files,
	}
	var resp createPasteResponse
	if err := c.do(ctx, http.MethodPost, "/api/pastes", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) Update(ctx context.Context, paste *models.Paste) error {
	return c.do(ctx, http.MethodPut, "/api/pastes/"+paste.ID, paste, nil)
}

func (c *HTTPClient) Delete(ctx context.Context, pasteID string) error {
	return c.do(ctx, http.MethodDelete, "/api/pastes/"+pasteID, nil, nil)
}

func (c *HTTPClient) GetArchivePutURL(ctx context.Context, pasteID string) (string, error) {
	var resp presignResponse
	if err := c.do(ctx, http.MethodPost, "/api/pastes/"+pasteID+"/archive/presign-put", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) GetArchiveGetURL(ctx context.Context, pasteID string) (string, error) {
	var resp presignResponse
	if err := c.do(ctx, http.MethodPost, "/api/pastes/"+pasteID+"/archive/presign-get", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
