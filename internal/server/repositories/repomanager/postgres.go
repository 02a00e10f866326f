package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pastekeeper/internal/dbx"
	"github.com/dmitrijs2005/pastekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/pastekeeper/internal/server/repositories/pastes"
	"github.com/dmitrijs2005/pastekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pastekeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Pastes(db dbx.DBTX) pastes.Repository {
	return pastes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
