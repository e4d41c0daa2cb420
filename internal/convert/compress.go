package convert

import (
	"fmt"
	"strings"
)

// Compress enforces the size ceiling on text output. If text fits, it is
// returned unchanged. Otherwise the first and last headTail lines are kept
// around an explicit omission marker; head+tail preserves document framing
// and conclusions, which middle-sampling would blur. The postcondition
// len(result) <= ceiling holds for every input, including adversarial
// single-line ones: a final hard byte truncation backs the line policy.
func Compress(text string, ceiling int, headTail int) string {
	if len(text) <= ceiling {
		return text
	}
	if headTail < 1 {
		headTail = 1
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 2*headTail {
		omitted := len(lines) - 2*headTail
		marker := fmt.Sprintf("... [%d lines omitted to fit size limit] ...", omitted)

		kept := make([]string, 0, 2*headTail+1)
		kept = append(kept, lines[:headTail]...)
		kept = append(kept, marker)
		kept = append(kept, lines[len(lines)-headTail:]...)
		text = strings.Join(kept, "\n")
	}

	if len(text) <= ceiling {
		return text
	}

	// Still over: hard byte-level head+tail cut.
	marker := "\n... [content omitted to fit size limit] ...\n"
	keep := ceiling - len(marker)
	if keep < 2 {
		return text[:ceiling]
	}
	front := keep / 2
	back := keep - front
	return text[:front] + marker + text[len(text)-back:]
}
