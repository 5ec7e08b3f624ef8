package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/internal/test_utils"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/oauth2"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}()
	code := m.Run()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, TokenRepository, int) {
	ctx := context.Background()
	db := openDb()
	repository := NewTokenRepository(db)
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, repository, 1
}

func TestTokenRepositoryImpl(t *testing.T) {
	// given
	ctx, repo, userId := setupTestRepository(t)
	expiry := time.Unix(1709550000, 0)
	require.NoError(t, repo.StoreNonce(ctx, userId, "nonce-1"))

	// when
	pending, err := repo.GetToken(ctx, userId)
	require.NoError(t, err)
	stored, err := repo.StoreToken(ctx, "nonce-1", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry})
	require.NoError(t, err)
	token, err := repo.GetToken(ctx, userId)
	require.NoError(t, err)

	// then
	assert.Nil(t, pending)
	assert.True(t, stored)
	require.NotNil(t, token)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	unknown, err := repo.StoreToken(ctx, "other", &oauth2.Token{AccessToken: "x"})
	require.NoError(t, err)
	assert.False(t, unknown)

	require.NoError(t, repo.DeleteForUser(ctx, userId))
	token, err = repo.GetToken(ctx, userId)
	require.NoError(t, err)
	assert.Nil(t, token)
}
