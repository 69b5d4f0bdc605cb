package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchCmd_RequiresQuestion(t *testing.T) {
	_, err := execute(t, "research")
	assert.Error(t, err)
}

func TestResearchCmd_RejectsUnknownFormat(t *testing.T) {
	isolateConfig(t)
	t.Chdir(t.TempDir())

	_, err := execute(t, "research", "what is go", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestResearchCmd_EmptyQuestionFailsValidation(t *testing.T) {
	isolateConfig(t)
	t.Chdir(t.TempDir())

	_, err := execute(t, "research", "   ", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_402")
}
