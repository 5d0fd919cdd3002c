package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/render"
)

// terminalView prints text as it grows. A terminal cannot take back what it
// printed, so clearing only moves to a fresh line.
type terminalView struct {
	out, errOut io.Writer
	html        bool
	printed     int
	last        render.Frame
}

func newTerminalView(out, errOut io.Writer, html bool) *terminalView {
	return &terminalView{out: out, errOut: errOut, html: html}
}

func (v *terminalView) ShowLoading() {
	fmt.Fprintln(v.errOut, "waiting for the answer...")
}

func (v *terminalView) HideLoading() {
	if v.html && v.last.HTML != "" {
		fmt.Fprint(v.out, v.last.HTML)
		return
	}
	if v.printed > 0 && !strings.HasSuffix(v.last.Source, "\n") {
		fmt.Fprintln(v.out)
	}
}

func (v *terminalView) ShowResponse(f render.Frame) {
	v.last = f
	if v.html {
		return
	}
	fmt.Fprint(v.out, f.Source[v.printed:])
	v.printed = len(f.Source)
}

func (v *terminalView) ClearResponse() {
	if v.printed > 0 && !v.html {
		fmt.Fprintln(v.out)
	}
	v.printed = 0
	v.last = render.Frame{}
}

func (v *terminalView) ShowError(message string) {
	fmt.Fprintln(v.errOut, message)
}

func (v *terminalView) ClearError() {}
