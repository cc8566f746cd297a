package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestMigrateCommand_RejectsUnknownDirection(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"migrate", "sideways"})
	assert.Error(t, root.Execute())
}

func TestMigrateCommand_RequiresDSN(t *testing.T) {
	t.Setenv("BLOG_DB_DSN", "")
	root := newRootCommand()
	root.SetArgs([]string{"migrate", "status"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.dsn is required")
}
