package vm_test

import (
	"bytes"
	"testing"

	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/value"
	"github.com/cilix/Holly/vm"
)

// A PUSHVAL operand is a pool slot; the value it loads must round-trip
// through a local binding unchanged.
func TestPushvalLoadsInternedConstant(t *testing.T) {
	pool := value.NewPool()
	slot, _ := pool.Intern(value.Number(42))

	global := value.NewFuncState("global", nil)
	global.Emit(uint32(bytecode.Encode(bytecode.PUSHVAL, slot)))
	global.Emit(uint32(bytecode.Encode(bytecode.SLOCAL, internName(pool, "x"))))

	m := vm.New(global, pool)
	m.OutputWriter = &bytes.Buffer{}
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	v, ok := global.Locals.Get([]byte("x"))
	if !ok {
		t.Fatal("x not set")
	}
	n, _ := v.AsNumber()
	if n != 42 {
		t.Errorf("x = %v, want 42", n)
	}
}

// GLOCAL in a nested block frame must find a name declared in its lexical
// ancestor, not just its own locals.
func TestGlocalWalksEnvChain(t *testing.T) {
	pool := value.NewPool()
	global := value.NewFuncState("global", nil)

	xSlot, _ := pool.Intern(value.Number(7))
	global.Emit(uint32(bytecode.Encode(bytecode.PUSHVAL, xSlot)))
	global.Emit(uint32(bytecode.Encode(bytecode.SLOCAL, internName(pool, "x"))))

	block := value.NewFuncState("block", global)
	block.Emit(uint32(bytecode.Encode(bytecode.GLOCAL, internName(pool, "x"))))
	block.Emit(uint32(bytecode.Encode(bytecode.SLOCAL, internName(pool, "y"))))

	blockSlot, _ := pool.Intern(value.Func(block))
	global.Emit(uint32(bytecode.Encode(bytecode.PUSHVAL, blockSlot)))
	global.Emit(uint32(bytecode.Encode(bytecode.CALL, 0)))

	m := vm.New(global, pool)
	m.OutputWriter = &bytes.Buffer{}
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	v, ok := block.Locals.Get([]byte("y"))
	if !ok {
		t.Fatal("y not set in block locals")
	}
	n, _ := v.AsNumber()
	if n != 7 {
		t.Errorf("y = %v, want 7", n)
	}
}

func TestUndeclaredGlocalIsRuntimeError(t *testing.T) {
	pool := value.NewPool()
	global := value.NewFuncState("global", nil)
	global.Emit(uint32(bytecode.Encode(bytecode.GLOCAL, internName(pool, "missing"))))

	m := vm.New(global, pool)
	m.OutputWriter = &bytes.Buffer{}
	err := m.Run()
	if err == nil || err.Kind != vm.ErrRuntimeUndeclared {
		t.Fatalf("err = %v, want ErrRuntimeUndeclared", err)
	}
}

func TestDivisionTypeMismatch(t *testing.T) {
	pool := value.NewPool()
	global := value.NewFuncState("global", nil)

	strSlot, _ := pool.Intern(value.StringFromGo("nope"))
	numSlot, _ := pool.Intern(value.Number(1))
	global.Emit(uint32(bytecode.Encode(bytecode.PUSHVAL, strSlot)))
	global.Emit(uint32(bytecode.Encode(bytecode.PUSHVAL, numSlot)))
	global.Emit(uint32(bytecode.Encode(bytecode.DIV, 0)))

	m := vm.New(global, pool)
	m.OutputWriter = &bytes.Buffer{}
	err := m.Run()
	if err == nil || err.Kind != vm.ErrRuntimeTypeMismatch {
		t.Fatalf("err = %v, want ErrRuntimeTypeMismatch", err)
	}
}

func internName(pool *value.Pool, name string) uint16 {
	slot, _ := pool.Intern(value.StringFromGo(name))
	return slot
}
