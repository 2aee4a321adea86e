package compiler

import (
	"bytes"
	"testing"

	"github.com/cilix/Holly/value"
	"github.com/cilix/Holly/vm"
)

func runProgram(t *testing.T, src string) (*value.FuncState, *vm.VM, *bytes.Buffer) {
	t.Helper()
	global, pool, cerr := Compile(src, "test")
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	m := vm.New(global, pool)
	var out bytes.Buffer
	m.OutputWriter = &out
	if rerr := m.Run(); rerr != nil {
		t.Fatalf("run error: %v", rerr)
	}
	return global, m, &out
}

// let binding plus arithmetic folding.
func TestLetArithmetic(t *testing.T) {
	global, _, _ := runProgram(t, "let x = 1 + 2")
	v, ok := global.Locals.Get([]byte("x"))
	if !ok {
		t.Fatal("x not declared")
	}
	n, _ := v.AsNumber()
	if n != 3 {
		t.Errorf("x = %v, want 3", n)
	}
}

// if/else must pick the else branch when the condition is falsy.
func TestIfElseLog(t *testing.T) {
	_, _, out := runProgram(t, `if 0 { log 1 } else { log 2 }`)
	if out.String() != "2\n" {
		t.Errorf("output = %q, want %q", out.String(), "2\n")
	}
}

// while loop termination.
func TestWhileLoop(t *testing.T) {
	global, _, _ := runProgram(t, `let n = 0
while n < 3 { n = n + 1 }`)
	v, ok := global.Locals.Get([]byte("n"))
	if !ok {
		t.Fatal("n not declared")
	}
	n, _ := v.AsNumber()
	if n != 3 {
		t.Errorf("n = %v, want 3", n)
	}
}

// lambda values are callable through the same CALL path as named fn.
func TestLambdaCall(t *testing.T) {
	global, _, _ := runProgram(t, `let f = fn a, b -> a + b
let r = f(2, 3)`)
	v, ok := global.Locals.Get([]byte("r"))
	if !ok {
		t.Fatal("r not declared")
	}
	n, _ := v.AsNumber()
	if n != 5 {
		t.Errorf("r = %v, want 5", n)
	}
}

func TestBreakExitsWhile(t *testing.T) {
	global, _, _ := runProgram(t, `let n = 0
while n < 10 {
	n = n + 1
	if n == 3 { break }
}`)
	v, _ := global.Locals.Get([]byte("n"))
	n, _ := v.AsNumber()
	if n != 3 {
		t.Errorf("n = %v, want 3 (break should have exited early)", n)
	}
}

func TestForOverArray(t *testing.T) {
	global, _, _ := runProgram(t, `let total = 0
for x in [1, 2, 3] {
	total = total + x
}`)
	v, _ := global.Locals.Get([]byte("total"))
	n, _ := v.AsNumber()
	if n != 6 {
		t.Errorf("total = %v, want 6", n)
	}
}

func TestObjectFieldAssignment(t *testing.T) {
	global, _, _ := runProgram(t, `let o = { a: 1 }
o.a = 9`)
	v, _ := global.Locals.Get([]byte("o"))
	obj, ok := v.AsObject()
	if !ok {
		t.Fatal("o is not an Object")
	}
	field, _ := obj.Get([]byte("a"))
	n, _ := field.AsNumber()
	if n != 9 {
		t.Errorf("o.a = %v, want 9", n)
	}
}

func TestArrayIndexAssignment(t *testing.T) {
	global, _, _ := runProgram(t, `let a = [1, 2, 3]
a[1] = 9`)
	v, _ := global.Locals.Get([]byte("a"))
	arr, ok := v.AsArray()
	if !ok {
		t.Fatal("a is not an Array")
	}
	n, _ := arr.Items[1].AsNumber()
	if n != 9 {
		t.Errorf("a[1] = %v, want 9", n)
	}
}

func TestUndeclaredVariableIsSticky(t *testing.T) {
	global, pool, cerr := Compile("log missing", "test")
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	m := vm.New(global, pool)
	m.OutputWriter = &bytes.Buffer{}
	rerr := m.Run()
	if rerr == nil {
		t.Fatal("expected runtime-undeclared error")
	}
	if rerr.Kind != vm.ErrRuntimeUndeclared {
		t.Errorf("error kind = %v, want ErrRuntimeUndeclared", rerr.Kind)
	}
}

func TestParseExpectedTypeError(t *testing.T) {
	_, _, cerr := Compile("fn f a: 5 -> a", "test")
	if cerr == nil {
		t.Fatal("expected parse-expected-type error")
	}
	if cerr.Kind != ErrParseExpectedType {
		t.Errorf("error kind = %v, want ErrParseExpectedType", cerr.Kind)
	}
}
