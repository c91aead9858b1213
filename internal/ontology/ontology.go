// Package ontology harmonizes free-text drug class labels from different
// AMR tools onto a small canonical vocabulary.
package ontology

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/inodb/amr-fusion/internal/hit"
)

// CacheSize bounds the number of distinct drug class strings a Normalizer
// remembers.
const CacheSize = 1024

// Class is a canonical drug class and the substrings that identify it.
type Class struct {
	Name     string
	Synonyms []string
}

// DefaultClasses is the built-in synonym table. Order matters: the first
// matching class wins.
var DefaultClasses = []Class{
	{Name: "beta-lactam", Synonyms: []string{"beta-lactam", "beta lactam", "betalactam", "β-lactam"}},
	{Name: "fluoroquinolone", Synonyms: []string{"fluoroquinolone", "quinolone", "fluoroquinolones"}},
	{Name: "tetracycline", Synonyms: []string{"tetracycline", "tetracyclines"}},
	{Name: "aminoglycoside", Synonyms: []string{"aminoglycoside", "aminoglycosides"}},
	{Name: "macrolide", Synonyms: []string{"macrolide", "macrolides"}},
	{Name: "sulfonamide", Synonyms: []string{"sulfonamide", "sulfonamides", "sulfa"}},
	{Name: "glycopeptide", Synonyms: []string{"glycopeptide", "glycopeptides"}},
	{Name: "polymyxin", Synonyms: []string{"polymyxin", "polymyxins", "colistin"}},
	{Name: "rifamycin", Synonyms: []string{"rifamycin", "rifampicin", "rifampin"}},
	{Name: "phenicol", Synonyms: []string{"phenicol", "chloramphenicol"}},
}

var (
	separatorRe  = regexp.MustCompile(`[_/]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalizer maps drug class text onto canonical class names.
type Normalizer struct {
	classes []Class
	memo    *lru.Cache[string, string]
}

// New creates a normalizer over the given ordered class table. Class names
// and synonyms are matched in lower case.
func New(classes []Class) *Normalizer {
	cs := make([]Class, len(classes))
	for i, c := range classes {
		syn := make([]string, len(c.Synonyms))
		for j, s := range c.Synonyms {
			syn[j] = strings.ToLower(s)
		}
		cs[i] = Class{Name: strings.ToLower(c.Name), Synonyms: syn}
	}
	memo, _ := lru.New[string, string](CacheSize) // only fails for size <= 0
	return &Normalizer{classes: cs, memo: memo}
}

// Default creates a normalizer over DefaultClasses.
func Default() *Normalizer {
	return New(DefaultClasses)
}

// Clean lower-cases the text and collapses separators and whitespace runs to
// single spaces.
func Clean(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}
	text = separatorRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Normalize returns the canonical class for raw, or the cleaned text when no
// class matches. A class matches when the cleaned text equals its name or
// contains any synonym as a substring; matching is not anchored to word
// boundaries. Empty input yields "".
func (n *Normalizer) Normalize(raw string) string {
	if v, ok := n.memo.Get(raw); ok {
		return v
	}
	v := n.match(Clean(raw))
	n.memo.Add(raw, v)
	return v
}

func (n *Normalizer) match(text string) string {
	if text == "" {
		return ""
	}
	for _, c := range n.classes {
		if text == c.Name {
			return c.Name
		}
		for _, s := range c.Synonyms {
			if strings.Contains(text, s) {
				return c.Name
			}
		}
	}
	return text
}

// Harmonize returns a copy of hits with DrugClassNormalized set.
func (n *Normalizer) Harmonize(hits []hit.Hit) []hit.Hit {
	out := make([]hit.Hit, len(hits))
	for i, h := range hits {
		h.DrugClassNormalized = n.Normalize(h.DrugClass)
		out[i] = h
	}
	return out
}

// Classes returns the canonical class names in match order.
func (n *Normalizer) Classes() []string {
	names := make([]string, len(n.classes))
	for i, c := range n.classes {
		names[i] = c.Name
	}
	return names
}
