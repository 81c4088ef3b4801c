package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/application/replay"
	"github.com/younwookim/agentloco/internal/application/scenario"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

func createTestRunner(t *testing.T, jsonOut bool) (*runner, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.NewLoader("../sandbox/configs").LoadAll()
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &runner{cfg: cfg, log: logging.NoOpLogger{}, out: out, json: jsonOut}, out
}

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.scn")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunner_Scenarios(t *testing.T) {
	r, out := createTestRunner(t, false)

	ok, err := r.scenarios(context.Background(), []string{"scenarios/recall.scn"})
	require.NoError(t, err)
	assert.True(t, ok, out.String())
	assert.Contains(t, out.String(), "PASS scenarios/recall.scn")
}

func TestRunner_ScenarioFailure(t *testing.T) {
	r, out := createTestRunner(t, false)
	path := writeScenario(t, "scenario \"wrong\"\nstep 0.1\nat 0.1 expect rex released\n")

	ok, err := r.scenarios(context.Background(), []string{path})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), "line 3 at 0.100s: expect rex released, got Carried")
}

func TestRunner_ScenarioErrors(t *testing.T) {
	r, _ := createTestRunner(t, false)

	_, err := r.scenarios(context.Background(), []string{filepath.Join(t.TempDir(), "missing.scn")})
	assert.Error(t, err)

	_, err = r.scenarios(context.Background(), []string{writeScenario(t, "at 0 hold on")})
	assert.Error(t, err)
}

func TestRunner_ScenarioJSON(t *testing.T) {
	r, out := createTestRunner(t, true)
	path := writeScenario(t, "scenario \"json\"\nstep 0.1\nat 0 hold on\nat 0.1 expect rex prepared\n")

	ok, err := r.scenarios(context.Background(), []string{path})
	require.NoError(t, err)
	assert.True(t, ok)

	var rep scenario.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "json", rep.Scenario)
	assert.Equal(t, 1, rep.Checks)
	assert.Empty(t, rep.Failures)
}

func TestRunner_Replay(t *testing.T) {
	r, out := createTestRunner(t, false)

	// Record the trace of an idle session, then check it replays the same
	data := replay.CreateTestReplayData(30)
	s, err := r.newSim()
	require.NoError(t, err)
	data.States = replay.NewReplayer(data).Run(s)
	s.Close()
	require.NotEmpty(t, data.States)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	ok, err := r.replay(path)
	require.NoError(t, err)
	assert.True(t, ok, out.String())
	assert.Contains(t, out.String(), "PASS")
}

func TestRunner_ReplayMismatch(t *testing.T) {
	r, out := createTestRunner(t, false)

	data := replay.CreateTestReplayData(10)
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	ok, err := r.replay(path)
	require.NoError(t, err)
	assert.False(t, ok, "Spawn changes were not recorded")
	assert.Contains(t, out.String(), "unexpected")
}
