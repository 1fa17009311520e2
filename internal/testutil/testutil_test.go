package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertGoldenWithoutOutput(t *testing.T) {
	AssertGolden(t, "missing", nil)
}

func TestWriteFixture(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "config.yml")

	WriteFixture(t, "fixture.yml", dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "sphere: reading\n", string(data))
}
