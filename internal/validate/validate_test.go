package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/amr-fusion/internal/hit"
)

func TestValidate_WarnsOnBadRanges(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "x", Gene: "bla", Identity: hit.Number(120), Coverage: hit.Number(-1)},
	})

	msgs := Validate(tbl, false)
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN: 1 rows have identity outside 0-100", msgs[0])
	assert.Equal(t, "WARN: 1 rows have coverage outside 0-100", msgs[1])
	assert.False(t, HasErrors(msgs))
}

func TestValidate_StrictEscalatesWarning(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "x", Gene: "", Identity: hit.Number(99), Coverage: hit.Number(99)},
	})

	msgs := Validate(tbl, true)
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN: 1 rows have empty gene values", msgs[0])
	assert.Equal(t, StrictMessage, msgs[1])
	assert.True(t, HasErrors(msgs))

	lenient := Validate(tbl, false)
	assert.False(t, HasErrors(lenient))
}

func TestValidate_MissingColumns(t *testing.T) {
	tbl := hit.Table{Columns: []string{hit.ColSampleID, hit.ColIdentity}}

	msgs := Validate(tbl, false)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ERROR: missing required column 'tool'", msgs[0])
	assert.Equal(t, "ERROR: missing required column 'gene'", msgs[1])
	assert.Len(t, Errors(msgs), 2)
	assert.Empty(t, Warnings(msgs))
}

func TestValidate_CleanTable(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "rgi", Gene: "tetA", Identity: hit.Number(100), Coverage: hit.Number(0)},
		{SampleID: "S1", Tool: "rgi", Gene: "tetB"},
	})

	assert.Empty(t, Validate(tbl, true))
	assert.Empty(t, Validate(hit.NewTable(nil), true))
}

func TestValidate_UncoercedValues(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "rgi", Gene: "tetA", Identity: hit.Text("101.5"), Coverage: hit.Text("abc")},
	})

	msgs := Validate(tbl, false)
	assert.Equal(t, []string{"WARN: 1 rows have identity outside 0-100"}, msgs)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	hits := []hit.Hit{{SampleID: "S1", Tool: "rgi", Gene: " ", Identity: hit.Text("150")}}
	tbl := hit.NewTable(hits)

	Validate(tbl, true)
	assert.Equal(t, hit.Text("150"), tbl.Hits[0].Identity)
}
