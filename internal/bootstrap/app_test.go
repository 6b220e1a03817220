package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsRegisteredClosers(t *testing.T) {
	app := &App{}

	ran := 0
	app.RegisterCloser(func() { ran++ })
	app.RegisterCloser(func() { ran++ })

	require.NoError(t, app.Close())
	assert.Equal(t, 2, ran)
}
