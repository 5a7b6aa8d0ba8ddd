package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/types"
)

func TestAuditRepository_Recent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)

	repo := NewAuditRepository(db)
	ctx := context.Background()
	session := uuid.New()
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		err := repo.Save(ctx, &types.AuditEntry{
			ID:        uuid.New(),
			SessionID: session,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Message:   msg,
		})
		require.NoError(t, err)
	}

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Message)
	assert.Equal(t, "second", got[1].Message)
}
