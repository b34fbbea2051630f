//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared dynbike binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// Fixture shape: SMB1_day1 rides for 2700 s and then idles for 300 s, so its trailing flatline
// begins at row 2760 once the 60-row rolling difference settles. SMB2_day1 skips second 50.
const (
	activeRows   = 2700
	idleRows     = 300
	expectedTrim = 2760
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the dynbike binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "dynbike-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "dynbike")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build dynbike: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// writeSessionsCSV writes a pre-cleaned two-session fixture and returns its path.
func writeSessionsCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id_sess,elapsed_sec,cadence,power,hr\n")
	for i := range activeRows + idleRows {
		cadence, power := 0, 0
		if i < activeRows {
			cadence = 60 + i%7
			power = 150
		}
		_, _ = fmt.Fprintf(&b, "SMB1_day1,%d,%d,%d,130\n", i, cadence, power)
	}
	for i := range 200 {
		if i == 50 {
			continue
		}
		_, _ = fmt.Fprintf(&b, "SMB2_day1,%d,%d,120,125\n", i, 70+i%5)
	}

	path := filepath.Join(t.TempDir(), "sessions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// runCommand runs the binary from the project root with extra environment entries.
func runCommand(t *testing.T, env []string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = "../" // Run from project root
	cmd.Env = append(os.Environ(), env...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
