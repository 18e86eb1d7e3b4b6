package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	out, err := execute(t, "validate", "testdata/models")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 model(s) valid")
	assert.Contains(t, out, "count  reducers=[add,reset] views=[current]")
}

func TestValidateJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/models")
	require.NoError(t, err)

	status, result := decode[ValidationResult](t, out)
	assert.Equal(t, "ok", status)
	assert.True(t, result.Valid)
	require.Len(t, result.Models, 1)
	assert.Equal(t, "count", result.Models[0].Name)
	assert.Equal(t, []string{"add", "reset"}, result.Models[0].Reducers)
	assert.Equal(t, []string{"current"}, result.Models[0].Views)
	assert.NotEmpty(t, result.Models[0].Fingerprint)
}

func TestValidateMissingDirectory(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/models")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoModels)
}

func TestValidateCompileError(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string         `json:"code"`
			Details CompileDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
	assert.Contains(t, resp.Error.Details.File, "bad.cue")
	assert.Positive(t, resp.Error.Details.Line)
	assert.Equal(t, "bad", resp.Error.Details.Model)
}
