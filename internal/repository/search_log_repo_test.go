package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLogRepository_CreateAndRecent(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "search_log.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)

	repo := NewSearchLogRepository(db)
	ctx := context.Background()

	top := 2
	base := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, &domain.SearchLog{Query: "comedia", TopK: 5, ResultCount: 5, TopIndex: &top, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.SearchLog{Query: "terror", TopK: 3, CreatedAt: base.Add(time.Second)}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	logs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "terror", logs[0].Query)
	assert.NotEmpty(t, logs[1].ID)
	require.NotNil(t, logs[1].TopIndex)
	assert.Equal(t, 2, *logs[1].TopIndex)
}
