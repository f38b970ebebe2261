package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/mattn/go-isatty"
)

// Printer writes extracted doc comments as plain text or JSON.
type Printer struct {
	w         io.Writer
	separator string
	header    *color.Color
	banner    *color.Color
}

// NewPrinter returns a Printer for w. Headers are colored only when w is a
// terminal. An empty separator leaves a blank line between entries.
func NewPrinter(w io.Writer, separator string) *Printer {
	p := &Printer{
		w:         w,
		separator: separator,
		header:    color.New(color.Bold, color.FgCyan),
		banner:    color.New(color.FgYellow),
	}
	p.SetColor(isTerminal(w))
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor forces colored headers on or off.
func (p *Printer) SetColor(on bool) {
	for _, c := range []*color.Color{p.header, p.banner} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Entries writes each entry as a `# name` header followed by its comment,
// verbatim.
func (p *Printer) Entries(entries []docs.Entry) error {
	for i, e := range entries {
		if i > 0 {
			if _, err := fmt.Fprintln(p.w, p.separator); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(p.w, "%s\n\n%s\n", p.header.Sprint("# "+e.Name), e.Doc); err != nil {
			return err
		}
	}
	return nil
}

// Banner introduces the output of one query in a multi-query run.
func (p *Printer) Banner(label string) error {
	_, err := fmt.Fprintln(p.w, p.banner.Sprintf("==> %s <==", label))
	return err
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(out))
	return err
}
