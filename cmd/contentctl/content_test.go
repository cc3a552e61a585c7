package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mastery-api/internal/service"
)

func TestPrintRowErrors(t *testing.T) {
	cmd := &cobra.Command{}
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)

	printRowErrors(cmd, &service.ImportError{Rows: []service.RowError{
		{Row: 2, Message: "difficulty must be between 1 and 5"},
		{Row: 5, Message: "unknown topic order 9"},
	}})

	assert.Equal(t, "  row 2: difficulty must be between 1 and 5\n  row 5: unknown topic order 9\n", stderr.String())
}

func TestPrintRowErrors_IgnoresOtherErrors(t *testing.T) {
	cmd := &cobra.Command{}
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)

	printRowErrors(cmd, errors.New("connection refused"))

	assert.Empty(t, stderr.String())
}

func TestMigrateForce_RejectsNonNumericVersion(t *testing.T) {
	err := migrateForceCmd.RunE(migrateForceCmd, []string{"latest"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "version must be a number")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"seed"}, {"import"}, {"migrate", "up"}, {"migrate", "force"}, {"migrate", "version"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, "Команда %v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, seedCmd.Flags().Lookup("file"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
