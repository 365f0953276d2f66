// Package scanner implements the Byte Scanner: a pure, dependency-free
// extractor of printable-ASCII runs used as haystack input for textual
// evidence detection.
//
// No library in the retrieved pack offers anything beyond a single
// bytes.IndexFunc-style loop here, so this stays on the standard library —
// see DESIGN.md.
package scanner

// ExtractPrintableASCII walks b left-to-right, collecting runs of bytes in
// 0x20..0x7E (inclusive) of length at least minLen, joining them with '\n'.
// The non-printable byte that terminates a run is discarded and never
// produces an empty line.
func ExtractPrintableASCII(b []byte, minLen int) string {
	if minLen <= 0 {
		minLen = 4
	}

	out := make([]byte, 0, len(b))
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		if end-runStart >= minLen {
			if len(out) > 0 {
				out = append(out, '\n')
			}
			out = append(out, b[runStart:end]...)
		}
		runStart = -1
	}

	for i, c := range b {
		if c >= 0x20 && c <= 0x7E {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
	}
	flush(len(b))

	return string(out)
}
