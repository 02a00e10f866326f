package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/dbx"
	"github.com/dmitrijs2005/pastekeeper/internal/server/config"
	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
	pastesrepo "github.com/dmitrijs2005/pastekeeper/internal/server/repositories/pastes"
	refreshtokensrepo "github.com/dmitrijs2005/pastekeeper/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/pastekeeper/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr error

	createErr error
	created   []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	f.created = append(f.created, token)
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	p *fakePastesRepo

	// refreshHandles records the DB handle each RefreshTokens binding got,
	// so tests can tell transactional repo uses from autocommit ones.
	refreshHandles []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	m.refreshHandles = append(m.refreshHandles, db)
	return m.r
}
func (m *fakeRepoManager) Pastes(db dbx.DBTX) pastesrepo.Repository { return m.p }

// --- tests ---

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair, got %+v", pair)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

// The delete of the old token and the insert of its replacement must run on
// the transaction WithTx opened, not on the raw *sql.DB in autocommit;
// otherwise a failed insert leaves the user with no valid refresh token.
func TestRefreshToken_RotatesInsideTransaction(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	if _, err := s.RefreshToken(context.Background(), "refresh-xyz"); err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}

	// Binding 0 is the Find lookup; every binding after Begin must be the tx.
	if len(rm.refreshHandles) < 3 {
		t.Fatalf("expected at least 3 repo bindings, got %d", len(rm.refreshHandles))
	}
	for i, h := range rm.refreshHandles[1:] {
		if _, ok := h.(*sql.Tx); !ok {
			t.Fatalf("rotation repo binding %d ran on %T, want *sql.Tx", i+1, h)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)},
		},
	}
	s := newUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefreshToken_NotFound(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{findErr: common.ErrorNotFound}}
	s := newUserService(t, db, rm)

	if _, err := s.RefreshToken(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown refresh token")
	}
}

func TestRegister(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	want := &models.User{ID: "u1", UserName: "alice"}
	rm := &fakeRepoManager{u: &fakeUsersRepo{createOut: want}}
	s := newUserService(t, db, rm)

	user, err := s.Register(context.Background(), "alice", []byte("salt"), []byte("verifier"))
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetSalt_KnownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{Salt: []byte("account-salt")}}}
	s := newUserService(t, db, rm)

	salt, err := s.GetSalt(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetSalt error: %v", err)
	}
	if string(salt) != "account-salt" {
		t.Fatalf("unexpected salt: %q", salt)
	}
}

// An unknown username still yields a plausible random salt so that the
// endpoint does not reveal which accounts exist.
func TestGetSalt_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}
	s := newUserService(t, db, rm)

	salt, err := s.GetSalt(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetSalt error: %v", err)
	}
	if len(salt) != 32 {
		t.Fatalf("expected 32-byte random salt, got %d bytes", len(salt))
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	refresh := &fakeRefreshRepo{}
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Verifier: []byte("v")}},
		r: refresh,
	}
	s := newUserService(t, db, rm)

	pair, err := s.Login(context.Background(), "alice", []byte("v"))
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}
	if len(refresh.created) != 1 || refresh.created[0] != pair.RefreshToken {
		t.Fatalf("refresh token was not stored: %+v", refresh.created)
	}
}

func TestLogin_WrongVerifier(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Verifier: []byte("v")}},
	}
	s := newUserService(t, db, rm)

	if _, err := s.Login(context.Background(), "alice", []byte("wrong")); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}}
	s := newUserService(t, db, rm)

	if _, err := s.Login(context.Background(), "nobody", []byte("v")); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}
