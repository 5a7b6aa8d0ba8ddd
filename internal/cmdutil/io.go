package cmdutil

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Printer writes operator-facing output. Colours and the spinner are only
// used when the printer is interactive.
type Printer struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

func NewPrinter(out io.Writer, interactive bool) *Printer {
	p := &Printer{out: out, interactive: interactive}
	if interactive {
		p.spinner = spinner.New(spinner.CharSets[14], time.Millisecond*100, spinner.WithWriter(out))
	}
	return p
}

func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) Print(message string) {
	_, _ = fmt.Fprintln(p.out, message)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// PrintE prints an error message in red.
func (p *Printer) PrintE(message string) {
	p.colored(color.FgRed, message)
}

// PrintS prints a success message in green.
func (p *Printer) PrintS(message string) {
	p.colored(color.FgGreen, message)
}

// PrintW prints a warning in yellow.
func (p *Printer) PrintW(message string) {
	p.colored(color.FgYellow, message)
}

func (p *Printer) Heading(message string) {
	p.colored(color.FgCyan, message)
}

func (p *Printer) colored(attr color.Attribute, message string) {
	if !p.interactive {
		p.Print(message)
		return
	}
	_, _ = color.New(attr).Fprintln(p.out, message)
}

func (p *Printer) StartLoading(message string) {
	if p.spinner == nil {
		return
	}
	p.spinner.Prefix = message + " "
	p.spinner.Start()
}

func (p *Printer) StopLoading() {
	if p.spinner == nil {
		return
	}
	p.spinner.Stop()
}

// Table renders rows under header.
func (p *Printer) Table(header table.Row, rows []table.Row) {
	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	if p.interactive {
		tw.SetStyle(table.StyleLight)
	}
	p.Print(tw.Render())
}

// Numbered renders items as a 1-based listing, the ordinals the operator
// types back in selection prompts.
func (p *Printer) Numbered(title string, items []string) {
	rows := make([]table.Row, 0, len(items))
	for i, next := range items {
		rows = append(rows, table.Row{i + 1, next})
	}
	p.Table(table.Row{"#", title}, rows)
}
