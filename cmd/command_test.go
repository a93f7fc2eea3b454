package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandHasRunSubcommand(t *testing.T) {
	root := Command()
	sub, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.Equal(t, "run", sub.Name())
}
