package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/quizgrade/internal/grading"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const openEntry = `{
  "quiz": {"_id": "q1", "type": "OPEN", "tags": [], "data": {"meta": {"rightAnswer": "^4\\d$", "regex": true}}},
  "answer": [{"_id": "a1", "quizId": "q1", "answererId": "u1", "data": "42"}]
}`

func TestValidateAnswer_Stdin(t *testing.T) {
	out, err := run(t, openEntry, "validate-answer", "--file", "-")
	require.NoError(t, err)

	var v grading.Validated
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 1, v.Validation.Points)
	assert.Equal(t, 1, v.Validation.MaxPoints)
	assert.Contains(t, out, "\n  \"quiz\"", "indented output")
}

func TestValidateAnswer_NullEntry(t *testing.T) {
	_, err := run(t, "null", "validate-answer", "--file", "-")
	assert.ErrorIs(t, err, grading.ErrMissingInput)
}

func TestValidateProgress_File(t *testing.T) {
	doc := `{"answered": [` + openEntry + `], "notAnswered": [{"quiz": {"_id": "q2", "type": "OPEN", "tags": [], "data": {"meta": {"rightAnswer": "x"}}}}], "rejected": []}`
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := run(t, "", "validate-progress", "--file", path)
	require.NoError(t, err)

	var res grading.ProgressResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Answered, 1)
	assert.Len(t, res.NotAnswered, 1)
	assert.Equal(t, 1, res.Validation.Points)
	assert.Equal(t, 2, res.Validation.MaxPoints)
	assert.Equal(t, 50.0, res.Validation.PointsPercentage)
}

func TestValidateProgress_BadInput(t *testing.T) {
	_, err := run(t, "{", "validate-progress", "--file", "-")
	assert.Error(t, err)

	_, err = run(t, "", "validate-progress", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestToken_UnknownRole(t *testing.T) {
	_, err := run(t, "", "token", "alice", "--role", "wizard")
	assert.ErrorContains(t, err, "unknown role")
}
