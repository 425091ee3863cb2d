package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/staxchange/model"
)

func TestPipelineRequiresBackendKey(t *testing.T) {
	t.Setenv("STAXCHANGE_DB", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	a, err := newApp(Options{Provider: "openrouter"})
	require.NoError(t, err)
	defer a.close()

	_, _, err = a.pipeline()
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err), "got %T: %v", err, err)
}

func TestNewAppOpensLedger(t *testing.T) {
	t.Setenv("STAXCHANGE_DB", filepath.Join(t.TempDir(), "runs", "staxchange.db"))
	t.Setenv("OPENAI_API_KEY", "sk-test")

	a, err := newApp(Options{Provider: "openai"})
	require.NoError(t, err)
	defer a.close()

	require.NotNil(t, a.runs)
	_, provider, err := a.pipeline()
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}
