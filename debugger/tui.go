package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the text user interface for the debugger.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout   *tview.Flex
	SourceView   *tview.TextView
	FramesView   *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField

	outputBuf strings.Builder
}

// NewTUI builds the debugger's panel layout: source on the left, the
// frame/call stack and evaluation output on the right, a command line
// across the bottom.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{Debugger: d, App: tview.NewApplication()}

	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.FramesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.FramesView.SetBorder(true).SetTitle(" Frames ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("(holly-dbg) ")
	t.CommandInput.SetBorder(true)
	t.CommandInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := t.CommandInput.GetText()
		t.CommandInput.SetText("")
		t.runCommand(cmd)
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.FramesView, 0, 1, false).
		AddItem(t.OutputView, 0, 1, false)

	panes := tview.NewFlex().
		AddItem(t.SourceView, 0, 2, false).
		AddItem(right, 0, 1, false)

	t.MainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(panes, 0, 1, false).
		AddItem(t.CommandInput, 3, 0, true)

	d.Machine.OutputWriter = &t.outputBuf
	t.refresh()
	return t
}

// Run starts the event loop and blocks until the user quits.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}

func (t *TUI) runCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "step", "s":
		t.Debugger.StepInstruction()
	case "continue", "c":
		t.Debugger.Continue()
	case "break", "b":
		if len(fields) == 3 {
			if n, err := strconv.Atoi(fields[2]); err == nil {
				t.Debugger.Breakpoints.AddBreakpoint(Location{Frame: fields[1], Scan: n}, false, "")
			}
		}
	case "quit", "q":
		t.App.Stop()
		return
	}
	t.refresh()
}

func (t *TUI) refresh() {
	t.SourceView.Clear()
	for i, line := range t.Debugger.SourceLines {
		fmt.Fprintf(t.SourceView, "%4d  %s\n", i+1, line)
	}

	t.FramesView.Clear()
	for i := len(t.Debugger.Machine.Frames) - 1; i >= 0; i-- {
		fmt.Fprintln(t.FramesView, FrameSummary(t.Debugger.Machine.Frames[i]))
	}

	t.OutputView.Clear()
	fmt.Fprint(t.OutputView, t.outputBuf.String())
}
