package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/amr-fusion/internal/hit"
)

func rawHit(tool, gene, identity, coverage string) hit.Hit {
	return hit.Hit{
		SampleID: "S1",
		Tool:     tool,
		Gene:     gene,
		Identity: hit.Text(identity),
		Coverage: hit.Text(coverage),
	}
}

func TestNormalize_FiltersAndDeduplicates(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		rawHit("resfinder", "blaTEM-1", "99.0", "98.0"),
		rawHit("resfinder", "blaTEM-1", "99.0", "98.0"),
		rawHit("amrfinder", "tetA", "85.0", "65.0"),
	})

	out := Normalize(tbl, Options{MinIdentity: 90, MinCoverage: 70, Deduplicate: true})
	require.Len(t, out, 1)
	assert.Equal(t, "blaTEM-1", out[0].Gene)
	assert.Equal(t, hit.Number(99), out[0].Identity)
	assert.Equal(t, hit.Number(98), out[0].Coverage)
}

func TestNormalize_DuplicatesBelowThresholdExcluded(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		rawHit("rgi", "sul1", "80", "99"),
		rawHit("rgi", "sul1", "80", "99"),
		rawHit("rgi", "sul2", "97", "99"),
	})

	out := Normalize(tbl, Options{MinIdentity: 90, Deduplicate: true})
	require.Len(t, out, 1)
	assert.Equal(t, "sul2", out[0].Gene)
}

func TestNormalize_AbsentMetricsPassThrough(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "resfinder", Gene: "mcr-1"},
		rawHit("resfinder", "qnrS1", "n/a", ""),
	})

	out := Normalize(tbl, Options{MinIdentity: 95, MinCoverage: 95})
	require.Len(t, out, 2)
	assert.True(t, out[1].Identity.IsAbsent())
	assert.True(t, out[1].Coverage.IsAbsent())
}

func TestNormalize_ZeroThresholdsNoOp(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		rawHit("amrfinder", "aac(6')-Ib", "10", "5"),
		rawHit("amrfinder", "aac(6')-Ib", "10", "5"),
	})

	out := Normalize(tbl, Options{})
	assert.Len(t, out, 2)
}

func TestNormalize_Idempotent(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		rawHit("resfinder", "blaTEM-1", "99", "98"),
		rawHit("resfinder", "blaTEM-1", "99", "98"),
		rawHit("amrfinder", "blaTEM-1", "98", "97"),
		rawHit("resfinder", "tetA", "91", "75"),
		rawHit("resfinder", "tetB", "88", "99"),
	})
	opts := Options{MinIdentity: 90, MinCoverage: 70, Deduplicate: true}

	once := Normalize(tbl, opts)
	twice := Normalize(hit.NewTable(once), opts)
	assert.Equal(t, once, twice)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []hit.Hit{rawHit("resfinder", "tetA", "91", "75")}
	Normalize(hit.NewTable(in), DefaultOptions())
	assert.Equal(t, "91", in[0].Identity.Raw)
	assert.False(t, in[0].Identity.Valid)
}

func TestDeduplicate(t *testing.T) {
	hits := []hit.Hit{
		{SampleID: "S1", Tool: "rgi", Gene: "tetA", Identity: hit.Number(91)},
		{SampleID: "S1", Tool: "rgi", Gene: "tetA", Identity: hit.Number(91)},
		{SampleID: "S1", Tool: "rgi", Gene: "tetA", Identity: hit.Number(92)},
	}

	out := Deduplicate(hits, nil)
	require.Len(t, out, 2)
	assert.Equal(t, out, Deduplicate(out, nil), "dedup of deduplicated table is a no-op")

	// Only sample_id and tool in the schema: every row collapses into one.
	out = Deduplicate(hits, []string{hit.ColSampleID, hit.ColTool})
	assert.Len(t, out, 1)
}

func TestNormalize_Empty(t *testing.T) {
	out := Normalize(hit.NewTable(nil), DefaultOptions())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
