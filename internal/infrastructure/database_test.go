package infrastructure

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	statements []string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, nil
}

func TestSchema_IsIdempotentDDL(t *testing.T) {
	s := Schema()
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS events")
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS audit_logs")
	assert.NotContains(t, s, "DROP ")
}

func TestApplySchema_ExecutesEmbeddedDDL(t *testing.T) {
	rec := &recordingExecer{}
	require.NoError(t, ApplySchema(context.Background(), rec))
	require.Len(t, rec.statements, 1)
	assert.Equal(t, Schema(), rec.statements[0])
}
