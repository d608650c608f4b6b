package progressui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTTYWithBufferReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTYWithNilReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestStartWithNonTTYReturnsNilReporter(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	reporter := Start(r, "indexing")
	assert.Nil(t, reporter)
	// Update/Stop on a nil *Reporter must be safe no-ops.
	reporter.Update(1, 0, 0, "x")
	reporter.Stop("done")
}
