package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPrintableASCIIAllPrintableNoSeparators(t *testing.T) {
	in := []byte("2022.3.14f1")
	assert.Equal(t, "2022.3.14f1", ExtractPrintableASCII(in, 4))
}

func TestExtractPrintableASCIIAllNonPrintable(t *testing.T) {
	in := []byte{0x00, 0x01, 0x02, 0x03}
	assert.Equal(t, "", ExtractPrintableASCII(in, 4))
}

func TestExtractPrintableASCIIDropsShortRuns(t *testing.T) {
	in := append([]byte("ab"), 0x00)
	in = append(in, []byte("Unity.Entities")...)
	out := ExtractPrintableASCII(in, 4)
	assert.Equal(t, "Unity.Entities", out)
}

func TestExtractPrintableASCIIConsecutiveNonPrintableNoEmptyLine(t *testing.T) {
	in := []byte("longenoughrun1")
	in = append(in, 0x00, 0x00)
	in = append(in, []byte("longenoughrun2")...)
	out := ExtractPrintableASCII(in, 4)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "longenoughrun1", lines[0])
	assert.Equal(t, "longenoughrun2", lines[1])
}
