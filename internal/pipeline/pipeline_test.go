package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/amr-fusion/internal/hit"
	"github.com/inodb/amr-fusion/internal/quality"
)

const resfinderTSV = "Resistance gene\t%Identity\t%Coverage\tPhenotype\n" +
	"blaTEM-1\t99.0\t98.0\tbeta lactam\n" +
	"tetA\t91.0\t75.0\tTetracyclines\n" +
	"tetA\t91.0\t75.0\tTetracyclines\n"

const amrfinderTSV = "Gene symbol\tClass\t% Identity to reference sequence\t% Coverage of reference sequence\n" +
	"blaTEM-1\tBETA-LACTAM\t98.0\t97.0\n" +
	"aac(3)-IId\tAMINOGLYCOSIDE\t82.0\t99.0\n"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testInputs(t *testing.T) []Input {
	dir := t.TempDir()
	return []Input{
		{Tool: "resfinder", Path: writeInput(t, dir, "resfinder.tsv", resfinderTSV)},
		{Tool: "amrfinder", Path: writeInput(t, dir, "amrfinder.tsv", amrfinderTSV)},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := Default()
	p.SetLogger(zap.New(core))

	res, err := p.Run(Options{
		SampleID: "S1",
		Inputs:   testInputs(t),
		Filter:   quality.Options{MinIdentity: 90, MinCoverage: 70, Deduplicate: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Canonical.Len())
	require.Len(t, res.Hits, 3, "duplicate tetA and low-identity aac(3)-IId are dropped")
	assert.Equal(t, "beta-lactam", res.Hits[0].DrugClassNormalized)
	assert.Equal(t, "tetracycline", res.Hits[1].DrugClassNormalized)
	assert.Empty(t, res.Messages)

	require.Len(t, res.Summary, 2)
	bla := res.Summary[0]
	assert.Equal(t, "blaTEM-1", bla.Gene)
	assert.Equal(t, 2, bla.ToolCount)
	assert.Equal(t, hit.ConsensusMultiTool, bla.ConsensusLevel)
	assert.GreaterOrEqual(t, bla.WeightedConsensusScore, 0.95)

	require.Len(t, res.Disagreements, 1)
	assert.Equal(t, "tetA", res.Disagreements[0].Gene)

	assert.Equal(t, 2, logs.FilterMessage("parsed tool report").Len())
	assert.Equal(t, 1, logs.FilterMessage("fusion complete").Len())
}

func TestRun_NoInputs(t *testing.T) {
	_, err := Default().Run(Options{SampleID: "S1"})
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestRun_UnknownTool(t *testing.T) {
	_, err := Default().Run(Options{SampleID: "S1", Inputs: []Input{{Tool: "abricate", Path: "x.tsv"}}})
	assert.Error(t, err)
}

func TestRun_MissingFile(t *testing.T) {
	_, err := Default().Run(Options{SampleID: "S1", Inputs: []Input{{Tool: "rgi", Path: "/nonexistent.tsv"}}})
	assert.Error(t, err)
}

func TestFuse_StrictValidationFails(t *testing.T) {
	tbl := hit.NewTable([]hit.Hit{
		{SampleID: "S1", Tool: "rgi", Gene: "", Identity: hit.Text("99"), Coverage: hit.Text("99")},
	})

	res, err := Default().Fuse("S1", tbl, quality.DefaultOptions(), true)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Messages, 2)
	require.NotNil(t, res)
	assert.Nil(t, res.Scored)

	res, err = Default().Fuse("S1", tbl, quality.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Len(t, res.Messages, 1)
	assert.Len(t, res.Summary, 1)
}

func TestFuse_MissingColumnIsStructural(t *testing.T) {
	tbl := hit.Table{Columns: []string{hit.ColSampleID, hit.ColTool}, Hits: []hit.Hit{{SampleID: "S1", Tool: "rgi"}}}

	_, err := Default().Fuse("S1", tbl, quality.DefaultOptions(), false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "missing required column 'gene'")
}

func TestFuse_EmptyInput(t *testing.T) {
	res, err := Default().Fuse("S1", hit.NewTable(nil), quality.DefaultOptions(), true)
	require.NoError(t, err)
	assert.Empty(t, res.Scored)
	assert.NotNil(t, res.Summary)
	assert.NotNil(t, res.Disagreements)
}
