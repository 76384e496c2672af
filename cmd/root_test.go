package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"serve", "migrate", "reindex", "reconcile"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.Flag(configFlag), name)
		assert.NotNil(t, sub.Flag(envFileFlag), name)
	}
}
