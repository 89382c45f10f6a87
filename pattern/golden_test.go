package pattern_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/maroda/madrigal/pattern"
)

// grid draws one cycle of a euclidean rhythm, x for a hit and . for a rest
func grid(k, n, rot int) string {
	var b strings.Builder
	for _, e := range pattern.Euclid(k, n, rot).QueryCycles(0, 1) {
		if e.Value {
			b.WriteByte('x')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func TestEuclid_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	rhythms := [][3]int{
		{2, 5, 0},
		{3, 4, 0},
		{3, 8, 0},
		{3, 8, 2},
		{4, 12, 0},
		{5, 8, 0},
		{5, 8, 5},
		{7, 16, 0},
	}
	var out strings.Builder
	for _, r := range rhythms {
		fmt.Fprintf(&out, "(%d,%d,%d) %s\n", r[0], r[1], r[2], grid(r[0], r[1], r[2]))
	}
	g.Assert(t, "euclid_rhythms", []byte(out.String()))
}
