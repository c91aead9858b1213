package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/amr-fusion/internal/hit"
)

func TestNormalize_Synonyms(t *testing.T) {
	n := Default()

	tests := []struct {
		in   string
		want string
	}{
		{"beta lactam", "beta-lactam"},
		{"Fluoroquinolones", "fluoroquinolone"},
		{"colistin", "polymyxin"},
		{"unknown class", "unknown class"},
		{"BETA-LACTAM", "beta-lactam"},
		{"Β-lactam", "beta-lactam"},
		{"QUINOLONE", "fluoroquinolone"},
		{"  Macrolide  ", "macrolide"},
		{"Rifampin", "rifamycin"},
		{"Chloramphenicol", "phenicol"},
		{"aminoglycoside/tetracycline", "tetracycline"},
		{"Lincosamide__Streptogramin", "lincosamide streptogramin"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_CanonicalIdempotent(t *testing.T) {
	n := Default()
	for _, name := range n.Classes() {
		assert.Equal(t, name, n.Normalize(name))
		assert.Equal(t, name, n.Normalize(n.Normalize(name)))
	}

	fallback := n.Normalize("Oxazolidinone / Pleuromutilin")
	assert.Equal(t, fallback, n.Normalize(fallback))
}

func TestNormalize_TableOrderBreaksTies(t *testing.T) {
	n := New([]Class{
		{Name: "first", Synonyms: []string{"shared"}},
		{Name: "second", Synonyms: []string{"shared"}},
	})
	assert.Equal(t, "first", n.Normalize("shared token"))
}

func TestHarmonize(t *testing.T) {
	hits := []hit.Hit{
		{Gene: "blaTEM-1", DrugClass: "Beta-lactam"},
		{Gene: "mcr-1", DrugClass: ""},
	}

	out := Default().Harmonize(hits)
	require.Len(t, out, 2)
	assert.Equal(t, "beta-lactam", out[0].DrugClassNormalized)
	assert.Equal(t, "", out[1].DrugClassNormalized)
	assert.Equal(t, "", hits[0].DrugClassNormalized, "input must not be modified")
}

func TestNormalize_Memoized(t *testing.T) {
	n := Default()
	assert.Equal(t, "beta-lactam", n.Normalize("Beta-Lactam"))
	assert.Equal(t, "beta-lactam", n.Normalize("Beta-Lactam"))
	assert.Equal(t, "unknown class", n.Normalize("Unknown_Class"))
	assert.Equal(t, 2, n.memo.Len())
}
