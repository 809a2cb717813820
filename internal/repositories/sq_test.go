package repositories_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/orgball2608/fedi-albums/internal/database/dbtest"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverErrorClassification(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE things (id TEXT PRIMARY KEY, name TEXT UNIQUE)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO things (id, name) VALUES ('a', 'x')`)
	require.NoError(t, err)

	_, pkErr := db.ExecContext(ctx, `INSERT INTO things (id, name) VALUES ('a', 'y')`)
	require.Error(t, pkErr)
	assert.True(t, repositories.IsUniqueViolation(pkErr))
	assert.True(t, repositories.IsUniqueViolation(fmt.Errorf("insert: %w", pkErr)))
	assert.False(t, repositories.IsBusy(pkErr))

	_, uniqueErr := db.ExecContext(ctx, `INSERT INTO things (id, name) VALUES ('b', 'x')`)
	require.Error(t, uniqueErr)
	assert.True(t, repositories.IsUniqueViolation(uniqueErr))

	_, syntaxErr := db.ExecContext(ctx, `INSERT INTO nowhere VALUES (1)`)
	require.Error(t, syntaxErr)
	assert.False(t, repositories.IsUniqueViolation(syntaxErr))
	assert.False(t, repositories.IsBusy(syntaxErr))

	assert.False(t, repositories.IsUniqueViolation(nil))
	assert.False(t, repositories.IsBusy(nil))
	assert.False(t, repositories.IsBusy(io.EOF))
}
