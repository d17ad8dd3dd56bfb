package prescription_test

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackduck-inc/io-prescription-action/internal/actions/actionstest"
)

var (
	prescriptionPath string
	coverDir         string

	// tmpDir is a function used to create a tempdir
	// -test.keepdir flag says test to use os.MkdirTemp
	// default is t.TempDir, which will be cleaned up
	tmpDir func(t *testing.T) string
)

const script = `#!/bin/sh
echo "prescription $*"
cat > result.json <<'END'
{"runId": "run-42", "security": {"activities": {
  "sca": {"longName": "Software Composition Analysis", "enabled": true},
  "sast": {"longName": "Static Analysis", "enabled": false}
}}}
END
echo "manifest" > io.yml
`

const java = `#!/bin/sh
echo '{"breaker": {"status": "PASSED"}}' > wf-output.json
`

func TestMain(m *testing.M) {
	var keepTestDir bool
	flag.BoolVar(&keepTestDir, "test.keepdir", false, "use os.TempDir instead of t.TempDir to keep test artifacts")

	flag.Parse()

	if testing.Short() {
		slog.Warn("integration tests with -short are ignored")
		os.Exit(0)
	}

	if !keepTestDir {
		tmpDir = func(t *testing.T) string {
			t.Helper()
			return t.TempDir()
		}
	} else {
		tmpDir = func(t *testing.T) string {
			t.Helper()
			dir, err := os.MkdirTemp("", t.Name()+"*")
			require.NoError(t, err)
			_, err = fmt.Fprintf(t.Output(), "TEMPDIR %s: -test.keepdir used, so it won't be automatically deleted", dir)
			require.NoError(t, err)
			return dir
		}
	}

	if !isExecutable("prescription-ci") {
		slog.Warn("cannot locate prescription-ci binary, integration tests are ignored: run go build -race -cover -covermode=atomic -o prescription-ci ./cmd/prescription/ first")
		os.Exit(0)
	}

	var err error
	prescriptionPath, err = filepath.Abs("prescription-ci")
	if err != nil {
		slog.Error("can't get abspath for prescription-ci", "error", err)
		os.Exit(1)
	}
	coverDir, err = filepath.Abs("coverage")
	if err != nil {
		slog.Error("can't get value for GOCOVERDIR for prescription-ci", "error", err)
		os.Exit(1)
	}
	err = rmRfMkdirp(coverDir)
	if err != nil {
		slog.Error("can't reset GOCOVERDIR for prescription-ci", "error", err, "coverdir", coverDir)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func TestIO(t *testing.T) {
	dir := tmpDir(t)
	srv := artifacts(t)

	env := runnerEnv(dir, map[string]string{
		"INPUT_STAGE":           "IO",
		"INPUT_WORKFLOWVERSION": "2024.1.0",
		"INPUT_IOSERVERURL":     "https://io.example.com",
		"INPUT_IOSERVERTOKEN":   "secret",
		"INPUT_MANIFESTTYPE":    "yml",
	})
	stdout, err := run(t, env, "run", "--workdir", dir, "--artifacts-url", srv.URL)
	require.NoError(t, err)

	require.Contains(t, stdout, "prescription --io.url=https://io.example.com --io.token=secret")
	require.Contains(t, stdout, "Is Software Composition Analysis(SCA) Enabled: true\n")
	require.Contains(t, stdout, "Is Static Analysis(SAST) Enabled: false\n")

	outputs, err := actionstest.ReadOutputs(filepath.Join(dir, "github_output"))
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"scaScan":  "true",
		"sastScan": "false",
		"runId":    "run-42",
	}, outputs)

	for _, name := range []string{"result.json", "io.yml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestWorkflow(t *testing.T) {
	dir := tmpDir(t)
	srv := artifacts(t)
	creat(t, filepath.Join(dir, "java"), []byte(java))
	require.NoError(t, os.Chmod(filepath.Join(dir, "java"), 0o755))

	env := runnerEnv(dir, map[string]string{
		"INPUT_STAGE":             "WORKFLOW",
		"INPUT_WORKFLOWVERSION":   "2024.1.0",
		"INPUT_WORKFLOWSERVERURL": "https://wf.example.com",
		"INPUT_MANIFESTTYPE":      "yml",
	})
	stdout, err := run(t, env, "run",
		"--workdir", dir,
		"--artifacts-url", srv.URL,
		"--java", filepath.Join(dir, "java"),
	)
	require.NoError(t, err)

	require.Contains(t, stdout, "--workflow.url=https://wf.example.com")
	require.Contains(t, stdout, "Workflow file generated successfully....Calling WorkFlow Engine\n")
	require.Contains(t, stdout, "Breaker Status - PASSED\n")

	for _, name := range []string{"wf-output.json", "io.yml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestInvalidStage(t *testing.T) {
	dir := tmpDir(t)

	env := runnerEnv(dir, map[string]string{"INPUT_STAGE": "deploy"})
	stdout, err := run(t, env, "run", "--workdir", dir)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.ExitCode())
	require.Equal(t, "::error::Error: Invalid stage given as input\n", stdout)
}

func TestInputs(t *testing.T) {
	dir := tmpDir(t)
	creat(t, filepath.Join(dir, "inputs.yaml"), []byte("stage: IO\nrunId: \"7\"\nioServerToken: secret\n"))

	env := runnerEnv(dir, map[string]string{
		"INPUT_STAGE":       "WORKFLOW",
		"GITHUB_REPOSITORY": "octo/hello",
	})
	stdout, err := run(t, env, "inputs", "--config", filepath.Join(dir, "inputs.yaml"))
	require.NoError(t, err)
	require.Contains(t, stdout, "stage: WORKFLOW\n")
	require.Contains(t, stdout, "runId: \"7\"\n")
	require.Contains(t, stdout, "ioServerToken: '***'\n")
	require.Contains(t, stdout, "owner: octo\n")
	require.NotContains(t, stdout, "secret")
}

// artifacts serves the prescription script of version 2024.1.0
func artifacts(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /2024.1.0/prescription.sh", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(script))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// runnerEnv returns a minimal environment of a GitHub runner, so the inputs
// of the surrounding job never leak in
func runnerEnv(dir string, inputs map[string]string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
		"GOCOVERDIR=" + coverDir,
		"GITHUB_OUTPUT=" + filepath.Join(dir, "github_output"),
		"GITHUB_STEP_SUMMARY=" + filepath.Join(dir, "github_summary"),
	}
	for k, v := range inputs {
		env = append(env, k+"="+v)
	}
	return env
}

func run(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 60*time.Second)
	t.Cleanup(cancel)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prescriptionPath, args...)
	cmd.Env = env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		t.Logf("%s", stderr.String())
	}
	return stdout.String(), err
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func rmRfMkdirp(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func creat(t *testing.T, path string, content []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	_, err = f.Write(content)
	require.NoError(t, err)
	err = f.Sync()
	require.NoError(t, err)
}
