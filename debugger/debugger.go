// Package debugger is an interactive step-debugger over a compiled Holly
// program: single-step execution, breakpoints keyed by (frame, scan)
// location, and a source/frames/output view rendered with tcell and tview.
package debugger

import (
	"fmt"

	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/value"
	"github.com/cilix/Holly/vm"
)

// Debugger wraps a VM with breakpoint management and source context.
type Debugger struct {
	Machine     *vm.VM
	Breakpoints *BreakpointManager
	SourceFile  string
	SourceLines []string
}

// New creates a Debugger over machine. source is the program text, split
// into lines for the source panel; filename is used only for display.
func New(machine *vm.VM, filename, source string) *Debugger {
	return &Debugger{
		Machine:     machine,
		Breakpoints: NewBreakpointManager(),
		SourceFile:  filename,
		SourceLines: splitLines(source),
	}
}

func splitLines(src string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, src[start:i])
			start = i + 1
		}
	}
	lines = append(lines, src[start:])
	return lines
}

// CurrentLocation reports the Location of the instruction about to run.
func (d *Debugger) CurrentLocation() (Location, bool) {
	if len(d.Machine.Frames) == 0 {
		return Location{}, false
	}
	fs := d.Machine.Frames[len(d.Machine.Frames)-1]
	return Location{Frame: fs.Name, Scan: fs.Scan + 1}, true
}

// StepInstruction advances the VM by exactly one instruction, reporting
// whether the VM can still make progress.
func (d *Debugger) StepInstruction() bool {
	return d.Machine.Step()
}

// Continue single-steps until a breakpoint is hit or the VM halts/errors.
// It returns the breakpoint that stopped execution, or nil if the VM
// simply halted or errored.
func (d *Debugger) Continue() *Breakpoint {
	for d.Machine.Step() {
		if loc, ok := d.CurrentLocation(); ok {
			if bp := d.Breakpoints.GetBreakpoint(loc); bp != nil && bp.Enabled {
				return d.Breakpoints.ProcessHit(loc)
			}
		}
	}
	return nil
}

// FrameSummary renders one frame's current instruction for display.
func FrameSummary(fs *value.FuncState) string {
	if fs.Scan < 0 || fs.Scan >= len(fs.Ins) {
		return fmt.Sprintf("%s: <before first instruction>", fs.Name)
	}
	instr := bytecode.Instruction(fs.Ins[fs.Scan])
	return fmt.Sprintf("%s:%d %s", fs.Name, fs.Scan, instr.String())
}

// Run starts the TUI debugger and blocks until the user quits.
func Run(machine *vm.VM, filename, source string) error {
	d := New(machine, filename, source)
	tui := NewTUI(d)
	return tui.Run()
}
