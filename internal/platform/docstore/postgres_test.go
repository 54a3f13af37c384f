package docstore

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT body FROM documents`).
		WithArgs("roles", "acme", "ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgres(mock).Get(context.Background(), "roles", "acme", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	doc := []byte(`{"name":"admin_role"}`)
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("roles", "acme", "admin_role", doc).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err = NewPostgres(mock).Insert(context.Background(), "roles", "acme", "admin_role", doc)
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs("policies", "acme", "gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewPostgres(mock).Delete(context.Background(), "policies", "acme", "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListPaginates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"name", "body"}).
		AddRow("a", []byte(`{}`)).
		AddRow("b", []byte(`{}`)).
		AddRow("c", []byte(`{}`))
	mock.ExpectQuery(`SELECT name, body FROM documents`).
		WithArgs("roles", "acme", "", 3).
		WillReturnRows(rows)

	page, err := NewPostgres(mock).List(context.Background(), "roles", "acme", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, docNames(page))
	assert.Equal(t, "b", page.NextCursor)
	require.NoError(t, mock.ExpectationsWereMet())
}
