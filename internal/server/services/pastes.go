package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pastekeeper/internal/common"
	"github.com/dmitrijs2005/pastekeeper/internal/cryptox"
	"github.com/dmitrijs2005/pastekeeper/internal/dbx"
	sc "github.com/dmitrijs2005/pastekeeper/internal/server/config"
	"github.com/dmitrijs2005/pastekeeper/internal/server/models"
	"github.com/dmitrijs2005/pastekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type PasteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewPasteService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *PasteService {
	return &PasteService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// Create stores a new paste with its files. For a protected paste the
// passphrase is reduced to a PBKDF2 verifier before anything touches the
// database; the passphrase itself is never persisted.
func (s *PasteService) Create(ctx context.Context, userID string, title string, protected bool, passphrase string, files []models.PasteFile) (string, error) {

	paste := &models.Paste{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Protected: protected,
	}

	if protected {
		if passphrase == "" {
			return "", fmt.Errorf("protected paste requires a passphrase")
		}
		paste.PassphraseSalt = common.GenerateRandByteArray(cryptox.SaltSize)
		paste.PassphraseVerifier = cryptox.DeriveKey(passphrase, paste.PassphraseSalt)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Pastes(tx)
		if err := repo.Create(ctx, paste); err != nil {
			return err
		}
		for i := range files {
			files[i].PasteID = paste.ID
			files[i].Position = i
			if err := repo.AddFile(ctx, &files[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error creating paste: %v", err)
	}

	return paste.ID, nil
}

// Get returns a paste with its files. A protected paste is never served
// through this path: callers get common.ErrAccessDenied and must go through
// Unlock instead.
func (s *PasteService) Get(ctx context.Context, pasteID string) (*models.Paste, error) {

	repo := s.repomanager.Pastes(s.db)

	paste, err := repo.GetByID(ctx, pasteID)
	if err != nil {
		return nil, err
	}

	if paste.Protected {
		return nil, common.ErrAccessDenied
	}

	return s.withFiles(ctx, paste)
}

// Unlock verifies the passphrase against the stored verifier and, on match,
// returns the paste with its files. The comparison runs in constant time and
// a mismatch yields common.ErrAccessDenied with no further detail.
func (s *PasteService) Unlock(ctx context.Context, pasteID string, passphrase string) (*models.Paste, error) {

	repo := s.repomanager.Pastes(s.db)

	paste, err := repo.GetByID(ctx, pasteID)
	if err != nil {
		return nil, err
	}

	if paste.Protected {
		candidate := cryptox.DeriveKey(passphrase, paste.PassphraseSalt)
		if subtle.ConstantTimeCompare(paste.PassphraseVerifier, candidate) != 1 {
			return nil, common.ErrAccessDenied
		}
	}

	return s.withFiles(ctx, paste)
}

func (s *PasteService) withFiles(ctx context.Context, paste *models.Paste) (*models.Paste, error) {
	files, err := s.repomanager.Pastes(s.db).GetFiles(ctx, paste.ID)
	if err != nil {
		return nil, err
	}
	paste.Files = files
	return paste, nil
}

func (s *PasteService) List(ctx context.Context, userID string) ([]*models.Paste, error) {
	return s.repomanager.Pastes(s.db).ListByUser(ctx, userID)
}

// Update replaces the paste's title and files. Only the owner may update;
// anyone else sees the paste as absent.
func (s *PasteService) Update(ctx context.Context, userID string, pasteID string, title string, files []models.PasteFile) error {

	if err := s.checkOwner(ctx, userID, pasteID); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Pastes(tx)
		if err := repo.UpdateTitle(ctx, pasteID, title); err != nil {
			return err
		}
		if err := repo.DeleteFiles(ctx, pasteID); err != nil {
			return err
		}
		for i := range files {
			files[i].PasteID = pasteID
			files[i].Position = i
			if err := repo.AddFile(ctx, &files[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error updating paste: %v", err)
	}

	return nil
}

func (s *PasteService) Delete(ctx context.Context, userID string, pasteID string) error {

	if err := s.checkOwner(ctx, userID, pasteID); err != nil {
		return err
	}

	return s.repomanager.Pastes(s.db).Delete(ctx, pasteID)
}

func (s *PasteService) checkOwner(ctx context.Context, userID string, pasteID string) error {
	paste, err := s.repomanager.Pastes(s.db).GetByID(ctx, pasteID)
	if err != nil {
		return err
	}
	if paste.UserID != userID {
		return common.ErrorNotFound
	}
	return nil
}

// archiveStorageKey is deterministic so that a later presigned GET addresses
// the same object the presigned PUT uploaded.
func archiveStorageKey(pasteID string) string {
	return fmt.Sprintf("pastes/%s/snapshot.json", pasteID)
}

func (s *PasteService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetArchivePutURL returns a short-lived presigned URL the owner can PUT a
// paste snapshot to.
func (s *PasteService) GetArchivePutURL(ctx context.Context, userID string, pasteID string) (string, error) {

	if err := s.checkOwner(ctx, userID, pasteID); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := archiveStorageKey(pasteID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// GetArchiveGetURL returns a short-lived presigned URL for downloading a
// previously uploaded paste snapshot.
func (s *PasteService) GetArchiveGetURL(ctx context.Context, userID string, pasteID string) (string, error) {

	if err := s.checkOwner(ctx, userID, pasteID); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := archiveStorageKey(pasteID)

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
