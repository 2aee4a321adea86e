// Package vm executes Holly bytecode: a stack of at most 256 active
// Function-State frames, a shared constant pool, and lexical-environment
// chain walking for variable lookup. It exposes a sticky LastError, a
// redirectable OutputWriter, and an InstructionLog execution history for
// the debugger and API layers to consume.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/value"
)

// maxFrames bounds the active frame stack.
const maxFrames = 256

// ExecutionState is the coarse phase the VM is in, consulted by the
// debugger/API layers.
type ExecutionState int

const (
	StateRunning ExecutionState = iota
	StateHalted
	StateBreakpoint
	StateError
)

// VM is the bytecode interpreter over one compiled program.
type VM struct {
	Pool   *value.Pool
	Frames []*value.FuncState

	State ExecutionState

	// LastError is the sticky runtime error; once set, Run stops advancing
	// and every further entry point is a no-op.
	LastError *Error

	// InstructionLog records each executed instruction as "frame:scan op",
	// printed by the CLI's -verbose mode after a runtime error.
	InstructionLog []string

	// OutputWriter is where LOG writes (defaults to os.Stdout); tests and
	// the TUI redirect it to capture output.
	OutputWriter io.Writer

	// MaxSteps bounds the number of fetch-execute cycles Run/Step will
	// perform; 0 means unbounded. Guards against runaway or infinite-loop
	// programs driven interactively or through the API server.
	MaxSteps uint64
	steps    uint64

	halted bool
}

// New creates a VM ready to execute global, the outermost frame.
func New(global *value.FuncState, pool *value.Pool) *VM {
	global.Scan = -1
	return &VM{
		Pool:         pool,
		Frames:       []*value.FuncState{global},
		OutputWriter: os.Stdout,
	}
}

func (vm *VM) fail(kind ErrorKind, msg string) {
	if vm.LastError == nil {
		vm.LastError = &Error{Kind: kind, Message: msg}
		vm.State = StateError
	}
}

// Err returns the sticky VM error, if any.
func (vm *VM) Err() *Error { return vm.LastError }

func (vm *VM) top() *value.FuncState {
	if len(vm.Frames) == 0 {
		return nil
	}
	return vm.Frames[len(vm.Frames)-1]
}

func (vm *VM) popFrame() *value.FuncState {
	if len(vm.Frames) == 0 {
		return nil
	}
	popped := vm.Frames[len(vm.Frames)-1]
	vm.Frames = vm.Frames[:len(vm.Frames)-1]
	return popped
}

// Run drives the fetch-execute loop to completion: halt, an unrecovered
// sticky error, or the global frame's natural exhaustion (no parent frame
// left to resume into).
func (vm *VM) Run() *Error {
	for !vm.halted && vm.LastError == nil {
		if vm.MaxSteps > 0 && vm.steps >= vm.MaxSteps {
			vm.fail(ErrStepBudgetExceeded, "exceeded maximum step count")
			break
		}
		fs := vm.top()
		if fs == nil {
			vm.halted = true
			break
		}
		vm.steps++
		fs.Scan++
		if fs.Scan >= len(fs.Ins) {
			if vm.popFrame(); vm.top() == nil {
				vm.halted = true
			}
			continue
		}
		instr := bytecode.Instruction(fs.Ins[fs.Scan])
		vm.InstructionLog = append(vm.InstructionLog, fmt.Sprintf("%s:%d %s", fs.Name, fs.Scan, instr.Op()))
		vm.exec(fs, instr)
	}
	if vm.LastError == nil {
		vm.State = StateHalted
	}
	return vm.LastError
}

// Step executes exactly one instruction (the debugger's single-step
// primitive); it returns false once the VM has halted or errored.
func (vm *VM) Step() bool {
	if vm.halted || vm.LastError != nil {
		return false
	}
	if vm.MaxSteps > 0 && vm.steps >= vm.MaxSteps {
		vm.fail(ErrStepBudgetExceeded, "exceeded maximum step count")
		return false
	}
	defer func() {
		if vm.halted && vm.LastError == nil {
			vm.State = StateHalted
		}
	}()
	fs := vm.top()
	if fs == nil {
		vm.halted = true
		return false
	}
	vm.steps++
	fs.Scan++
	if fs.Scan >= len(fs.Ins) {
		if vm.popFrame(); vm.top() == nil {
			vm.halted = true
		}
		return !vm.halted
	}
	instr := bytecode.Instruction(fs.Ins[fs.Scan])
	vm.InstructionLog = append(vm.InstructionLog, fmt.Sprintf("%s:%d %s", fs.Name, fs.Scan, instr.Op()))
	vm.exec(fs, instr)
	return vm.LastError == nil && !vm.halted
}

// Halted reports whether the VM has stopped executing.
func (vm *VM) Halted() bool { return vm.halted }
