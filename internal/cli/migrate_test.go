package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMigrate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func(context.Context, string) (*Env, func(), error) {
		t.Fatal("migrate commands must not build the service env")
		return nil, nil, nil
	})
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append([]string{"migrate"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCreateThenValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := runMigrate(t, "create", "--dir", dir, "add", "gift", "wrap")
	require.NoError(t, err)
	assert.Contains(t, out, "created migration:")

	matches, err := filepath.Glob(filepath.Join(dir, "*_add_gift_wrap.sql"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	out, err = runMigrate(t, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "migration validation passed", strings.TrimSpace(out))
}

func TestMigrateValidateReportsEmptyDir(t *testing.T) {
	_, err := runMigrate(t, "validate", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no migrations found")
}

func TestMigrateToRequiresVersion(t *testing.T) {
	_, err := runMigrate(t, "to")
	require.Error(t, err)
}
