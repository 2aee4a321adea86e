package debugger

import (
	"testing"

	"github.com/cilix/Holly/compiler"
	"github.com/cilix/Holly/vm"
	"github.com/stretchr/testify/require"
)

func TestStepInstructionAdvances(t *testing.T) {
	global, pool, cerr := compiler.Compile("let x = 1\nlet y = 2", "test")
	require.Nil(t, cerr)
	m := vm.New(global, pool)
	d := New(m, "test", "let x = 1\nlet y = 2")

	loc, ok := d.CurrentLocation()
	require.True(t, ok, "expected a current location before stepping")
	require.Equal(t, 0, loc.Scan)
	require.True(t, d.StepInstruction(), "expected step to succeed")
}

func TestBreakpointStopsContinue(t *testing.T) {
	global, pool, cerr := compiler.Compile("let x = 1\nlet y = 2\nlet z = 3", "test")
	require.Nil(t, cerr)
	m := vm.New(global, pool)
	d := New(m, "test", "")

	d.Breakpoints.AddBreakpoint(Location{Frame: "global", Scan: 2}, false, "")
	bp := d.Continue()
	require.NotNil(t, bp, "expected a breakpoint hit")
	require.Equal(t, 1, bp.HitCount)
}
