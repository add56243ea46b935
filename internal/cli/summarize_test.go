package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// summarizeResponse mirrors the JSON output of summarize.
type summarizeResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Source      string          `json:"source"`
		ArchiveID   string          `json:"archive_id"`
		ContentHash string          `json:"content_hash"`
		Inserted    *bool           `json:"inserted"`
		Summary     json.RawMessage `json:"summary"`
	} `json:"data"`
	Error *CLIError `json:"error"`
}

func executeSummarize(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSummarizeCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestSummarizeText(t *testing.T) {
	buf, err := executeSummarize(t, "text", runFile("scenario_b.yaml"))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "IT2B")
	assert.Contains(t, output, "Population")
	assert.Contains(t, output, "Correlation")
	assert.Contains(t, output, "Posterior means")
	assert.Contains(t, output, "shrinkage")
	assert.Contains(t, output, "1.1")
	assert.Contains(t, output, "NA", "IT2B has no support points, so IQR is NA")
}

func TestSummarizeTextNPAG(t *testing.T) {
	buf, err := executeSummarize(t, "text", runFile("scenario_d.cue"))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "NPAG")
	assert.Contains(t, output, "gridpts=5003")
	assert.Contains(t, output, "fixed: tlag=0.25")
	assert.Contains(t, output, "A1")
	assert.Contains(t, output, "A2")
}

func TestSummarizeJSONKeepsArgumentOrder(t *testing.T) {
	files := []string{
		runFile("scenario_b.yaml"),
		runFile("scenario_a.json"),
		runFile("scenario_d.cue"),
		runFile("scenario_c.json"),
	}
	buf, err := executeSummarize(t, "json", append(files, "--jobs", "4")...)
	require.NoError(t, err)

	var resp summarizeResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, len(files))

	wantMethods := []string{"IT2B", "NPAG", "NPAG", "NPAG"}
	for i, out := range resp.Data {
		assert.Equal(t, files[i], out.Source)

		var body struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.Unmarshal(out.Summary, &body))
		assert.Equal(t, wantMethods[i], body.Method)
		assert.Empty(t, out.ArchiveID, "not saved")
	}
}

func TestSummarizeJSONAbsentPartsAreNull(t *testing.T) {
	buf, err := executeSummarize(t, "json", runFile("scenario_b.yaml"))
	require.NoError(t, err)

	var resp summarizeResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data[0].Summary, &body))
	for _, key := range []string{"pop_points", "post_points", "post_cov", "post_cor", "gridpts", "wparvol", "pop_ran_fix"} {
		assert.JSONEq(t, "null", string(body[key]), key)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantCode string
		wantExit int
	}{
		{"not found", "/nonexistent/run.json", "E005", ExitCommandError},
		{"invalid shape", runFile("invalid_shape.json"), "E010", ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := executeSummarize(t, "json", tt.file)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp summarizeResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestSummarizeOneBadFileFailsTheCommand(t *testing.T) {
	buf, err := executeSummarize(t, "text", runFile("scenario_c.json"), runFile("invalid_shape.json"), "--jobs", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E010]")
}

func TestSummarizeSaveIsContentAddressed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")

	buf, err := executeSummarize(t, "json", runFile("scenario_c.json"), runFile("scenario_b.yaml"), "--save", "--db", db)
	require.NoError(t, err)

	var first summarizeResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &first))
	require.Len(t, first.Data, 2)
	for _, out := range first.Data {
		assert.NotEmpty(t, out.ArchiveID)
		assert.Len(t, out.ContentHash, 64)
		require.NotNil(t, out.Inserted)
		assert.True(t, *out.Inserted)
	}

	// Summarizing the same run again stores nothing new
	buf, err = executeSummarize(t, "json", runFile("scenario_c.json"), "--save", "--db", db)
	require.NoError(t, err)

	var second summarizeResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &second))
	require.Len(t, second.Data, 1)
	assert.Equal(t, first.Data[0].ArchiveID, second.Data[0].ArchiveID)
	require.NotNil(t, second.Data[0].Inserted)
	assert.False(t, *second.Data[0].Inserted)
}

func TestSummarizeSaveText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")

	buf, err := executeSummarize(t, "text", runFile("scenario_c.json"), "--save", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "archived as ")

	buf, err = executeSummarize(t, "text", runFile("scenario_c.json"), "--save", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "already archived as ")
}

func TestSummarizeSaveArchiveUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := executeSummarize(t, "text", runFile("scenario_c.json"), "--save", "--db", filepath.Join(blocker, "archive.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSummarizeFiles_ZeroJobsRunsSequentially(t *testing.T) {
	outputs, err := summarizeFiles(context.Background(), []string{runFile("scenario_c.json")}, 0, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "NPAG", string(outputs[0].Summary.Method))
}

func TestSummarizeFiles_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := summarizeFiles(ctx, []string{runFile("scenario_c.json")}, 1, zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFormatNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.1, "1.1"},
		{0.123456789, "0.123457"},
		{1234567, "1.23457e+06"},
		{math.NaN(), "NA"},
		{math.Inf(1), "Inf"},
		{math.Inf(-1), "-Inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNum(tt.in))
	}
}
