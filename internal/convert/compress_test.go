package convert

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompress_UnderCeilingUnchanged(t *testing.T) {
	text := "short document\nwith two lines\n"
	assert.Equal(t, text, Compress(text, 1024, 10))
}

func TestCompress_KeepsHeadAndTailLines(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%04d", i)
	}
	text := strings.Join(lines, "\n")

	out := Compress(text, 500, 10)

	assert.LessOrEqual(t, len(out), 500)
	assert.True(t, strings.HasPrefix(out, "line-0000"))
	assert.True(t, strings.HasSuffix(out, "line-0099"))
	assert.Contains(t, out, "[80 lines omitted to fit size limit]")
	assert.NotContains(t, out, "line-0050")
}

// A single enormous line defeats the line policy; the byte-level cut must
// still land at or under the ceiling.
func TestCompress_SingleLineHardCut(t *testing.T) {
	text := strings.Repeat("x", 10_000)

	out := Compress(text, 100, 10)

	assert.LessOrEqual(t, len(out), 100)
	assert.Contains(t, out, "content omitted to fit size limit")
}

func TestCompress_TinyCeiling(t *testing.T) {
	out := Compress(strings.Repeat("abc", 1000), 10, 10)
	assert.Equal(t, 10, len(out))
}

// Postcondition sweep: len(result) <= ceiling for every input shape.
func TestCompress_CeilingHolds(t *testing.T) {
	inputs := []string{
		strings.Repeat("z", 1<<20),
		strings.Repeat("row,of,data\n", 100_000),
		strings.Repeat("\n", 50_000),
		"a\n" + strings.Repeat("b", 1<<18) + "\nc",
	}
	ceilings := []int{5, 64, 1024, 65_536}

	for _, text := range inputs {
		for _, ceiling := range ceilings {
			out := Compress(text, ceiling, 25)
			assert.LessOrEqualf(t, len(out), ceiling,
				"input len %d, ceiling %d", len(text), ceiling)
		}
	}
}
