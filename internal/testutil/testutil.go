// Package testutil holds helpers shared by worklog tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/worklog/internal/osutil"
)

const fixtureDir = "testdata"

// AssertGolden compares got with testdata/<name>.golden. Run the tests with
// -update to rewrite the file. A nil got asserts that no golden file exists.
func AssertGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	// golden files are stored with LF line endings
	if runtime.GOOS == osutil.Windows {
		t.Skip("golden files are not compared on Windows")
	}

	if got == nil {
		_, err := os.Stat(filepath.Join(fixtureDir, name+".golden"))
		require.ErrorIs(t, err, os.ErrNotExist, "no output expected for %s", name)

		return
	}

	goldie.New(t, goldie.WithFixtureDir(fixtureDir)).Assert(t, name, got)
}

// WriteFixture writes testdata/<name> to dst with the permissions worklog
// uses for its own files.
func WriteFixture(t *testing.T, name, dst string) {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(fixtureDir, name))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dst, data, osutil.FilePermission))
}
