package display

import (
	"fmt"
	"io"
)

// FileListing prints the solution files of a directory one per line:
// "[N/Total] name (bytes)" in cyan, with unused files marked.
type FileListing struct {
	writer io.Writer
	total  int
	unused int
	listed int
}

// NewFileListing creates a new listing for total files.
func NewFileListing(w io.Writer, total int) *FileListing {
	return &FileListing{writer: w, total: total}
}

// Start displays the header message
func (l *FileListing) Start(dir string) {
	fmt.Fprintf(l.writer, "Solution files in %s:\n", dir)
}

// Step displays one file.
func (l *FileListing) Step(name string, size int, used bool) {
	l.listed++
	line := fmt.Sprintf("  [%d/%d] %s (%d bytes)", l.listed, l.total, name, size)
	if !used {
		l.unused++
		line += " - not used"
	}
	fmt.Fprintln(l.writer, paint(ansiCyan, line))
}

// Complete displays the closing line with a green checkmark.
func (l *FileListing) Complete() {
	fmt.Fprintf(l.writer, "%s Loaded %d files (%d used)\n", paint(ansiGreen, "✓"), l.total, l.total-l.unused)
}

// DisplaySingleFile shows simple loading message for a single file
func DisplaySingleFile(w io.Writer, filename string) {
	fmt.Fprintf(w, "Loading rules from %s...\n", filename)
}
