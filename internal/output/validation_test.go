package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewValidationWriter(&buf)

	require.NoError(t, w.WriteHeader())
	for _, m := range []string{
		"WARN: 2 rows have identity outside 0-100",
		"ERROR: strict mode enabled; warnings treated as failures",
	} {
		require.NoError(t, w.WriteMessage(m))
	}
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "WARN   2 rows have identity outside 0-100")
	assert.Contains(t, out, "ERROR  strict mode enabled")

	warnings, errors := w.Summary()
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, errors)

	var sum bytes.Buffer
	w.WriteSummary(&sum, 7)
	assert.Contains(t, sum.String(), "Hits checked:  7")
	assert.Contains(t, sum.String(), "Status:        FAIL")
}

func TestValidationWriter_Clean(t *testing.T) {
	var buf bytes.Buffer
	w := NewValidationWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	var sum bytes.Buffer
	w.WriteSummary(&sum, 0)
	assert.Contains(t, sum.String(), "Status:        PASS")
}
