package vm

import (
	"fmt"

	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/value"
)

func (vm *VM) exec(fs *value.FuncState, instr bytecode.Instruction) {
	op := instr.Op()
	a := instr.Operand()

	switch op {
	case bytecode.PUSHVAL:
		v, ok := vm.Pool.Get(a)
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "PUSHVAL: constant slot out of range")
			return
		}
		fs.Push(v)

	case bytecode.SLOCAL:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "SLOCAL: evaluation stack underflow")
			return
		}
		name, ok := vm.constString(a)
		if !ok {
			return
		}
		fs.SetLocal(name, v)

	case bytecode.SETLOCAL:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "SETLOCAL: evaluation stack underflow")
			return
		}
		name, ok := vm.constString(a)
		if !ok {
			return
		}
		if !value.SetExisting(fs, name, v) {
			vm.fail(ErrRuntimeUndeclared, fmt.Sprintf("assignment to undeclared variable %q", name))
		}

	case bytecode.GLOCAL:
		name, ok := vm.constString(a)
		if !ok {
			return
		}
		v, ok := value.LookupLocal(fs, name)
		if !ok {
			vm.fail(ErrRuntimeUndeclared, fmt.Sprintf("undeclared variable %q", name))
			return
		}
		fs.Push(v)

	case bytecode.ADD, bytecode.SUB, bytecode.MULT, bytecode.DIV, bytecode.MOD:
		vm.execArith(fs, op)

	case bytecode.BAND, bytecode.BOR, bytecode.BXOR, bytecode.SHL, bytecode.SHR:
		vm.execBitwise(fs, op)

	case bytecode.BNOT:
		v, ok := vm.popNumber(fs)
		if !ok {
			return
		}
		fs.Push(value.Number(float64(^int64(v))))

	case bytecode.EQ, bytecode.NEQ:
		r, ok1 := fs.Pop()
		l, ok2 := fs.Pop()
		if !ok1 || !ok2 {
			vm.fail(ErrRuntimeTypeMismatch, "comparison: evaluation stack underflow")
			return
		}
		eq := l.Equal(r)
		if op == bytecode.NEQ {
			eq = !eq
		}
		fs.Push(value.Boolean(eq))

	case bytecode.LT, bytecode.LTE, bytecode.GT, bytecode.GTE:
		vm.execOrder(fs, op)

	case bytecode.AND:
		r, l, ok := vm.popPair(fs)
		if !ok {
			return
		}
		fs.Push(value.Boolean(l.Truthy() && r.Truthy()))

	case bytecode.OR:
		r, l, ok := vm.popPair(fs)
		if !ok {
			return
		}
		fs.Push(value.Boolean(l.Truthy() || r.Truthy()))

	case bytecode.NOT:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "NOT: evaluation stack underflow")
			return
		}
		fs.Push(value.Boolean(!v.Truthy()))

	case bytecode.NEG:
		v, ok := vm.popNumber(fs)
		if !ok {
			return
		}
		fs.Push(value.Number(-v))

	case bytecode.CONCAT:
		r, l, ok := vm.popPair(fs)
		if !ok {
			return
		}
		ls, ok1 := l.AsString()
		rs, ok2 := r.AsString()
		if !ok1 || !ok2 {
			vm.fail(ErrRuntimeTypeMismatch, "CONCAT: operands must be String")
			return
		}
		out := make([]byte, 0, len(ls)+len(rs))
		out = append(out, ls...)
		out = append(out, rs...)
		fs.Push(value.String(out))

	case bytecode.LEN:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "LEN: evaluation stack underflow")
			return
		}
		switch v.Kind {
		case value.KindArray:
			arr, _ := v.AsArray()
			fs.Push(value.Number(float64(arr.Len())))
		case value.KindString:
			s, _ := v.AsString()
			fs.Push(value.Number(float64(len(s))))
		case value.KindObject:
			obj, _ := v.AsObject()
			fs.Push(value.Number(float64(obj.Len())))
		default:
			vm.fail(ErrRuntimeTypeMismatch, "LEN: operand must be Array, String, or Object")
		}

	case bytecode.INDEX:
		vm.execIndex(fs)

	case bytecode.FIELD:
		vm.execField(fs, a)

	case bytecode.OBJSET:
		vm.execObjSet(fs, a)

	case bytecode.ARRSET:
		vm.execArrSet(fs)

	case bytecode.ARRAYNEW:
		vm.execArrayNew(fs, a)

	case bytecode.OBJECTNEW:
		vm.execObjectNew(fs, a)

	case bytecode.JMP:
		fs.Scan += int(instr.SignedOperand()) - 1

	case bytecode.JMPF:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "JMPF: evaluation stack underflow")
			return
		}
		if !v.Truthy() {
			fs.Scan += int(instr.SignedOperand()) - 1
		}

	case bytecode.JMPT:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "JMPT: evaluation stack underflow")
			return
		}
		if v.Truthy() {
			fs.Scan += int(instr.SignedOperand()) - 1
		}

	case bytecode.CALL:
		vm.execCall(fs, int(a))

	case bytecode.RETURN:
		vm.execReturn(fs)

	case bytecode.BREAK:
		vm.execBreak()

	case bytecode.POP:
		if _, ok := fs.Pop(); !ok {
			vm.fail(ErrRuntimeTypeMismatch, "POP: evaluation stack underflow")
		}

	case bytecode.LOG:
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "LOG: evaluation stack underflow")
			return
		}
		fmt.Fprintln(vm.OutputWriter, v.String())

	case bytecode.EXIT:
		vm.halted = true

	default:
		vm.fail(ErrRuntimeTypeMismatch, fmt.Sprintf("unimplemented opcode %s", op))
	}
}

func (vm *VM) constString(slot uint16) ([]byte, bool) {
	v, ok := vm.Pool.Get(slot)
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "name constant slot out of range")
		return nil, false
	}
	s, ok := v.AsString()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "name constant is not a String")
		return nil, false
	}
	return s, true
}

func (vm *VM) popNumber(fs *value.FuncState) (float64, bool) {
	v, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "evaluation stack underflow")
		return 0, false
	}
	n, ok := v.AsNumber()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "operand must be Number")
		return 0, false
	}
	return n, true
}

// popPair pops right then left (Equal/Truthy-combining ops don't need
// Number operands) and reports underflow.
func (vm *VM) popPair(fs *value.FuncState) (r, l value.Value, ok bool) {
	r, ok1 := fs.Pop()
	l, ok2 := fs.Pop()
	if !ok1 || !ok2 {
		vm.fail(ErrRuntimeTypeMismatch, "evaluation stack underflow")
		return value.Nil, value.Nil, false
	}
	return r, l, true
}

func (vm *VM) execArith(fs *value.FuncState, op bytecode.Op) {
	r, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	l, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	switch op {
	case bytecode.ADD:
		fs.Push(value.Number(l + r))
	case bytecode.SUB:
		fs.Push(value.Number(l - r))
	case bytecode.MULT:
		fs.Push(value.Number(l * r))
	case bytecode.DIV:
		if r == 0 {
			vm.fail(ErrRuntimeTypeMismatch, "division by zero")
			return
		}
		fs.Push(value.Number(l / r))
	case bytecode.MOD:
		if r == 0 {
			vm.fail(ErrRuntimeTypeMismatch, "modulo by zero")
			return
		}
		fs.Push(value.Number(float64(int64(l) % int64(r))))
	}
}

func (vm *VM) execBitwise(fs *value.FuncState, op bytecode.Op) {
	r, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	l, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	li, ri := int64(l), int64(r)
	switch op {
	case bytecode.BAND:
		fs.Push(value.Number(float64(li & ri)))
	case bytecode.BOR:
		fs.Push(value.Number(float64(li | ri)))
	case bytecode.BXOR:
		fs.Push(value.Number(float64(li ^ ri)))
	case bytecode.SHL:
		fs.Push(value.Number(float64(li << uint(ri))))
	case bytecode.SHR:
		fs.Push(value.Number(float64(li >> uint(ri))))
	}
}

func (vm *VM) execOrder(fs *value.FuncState, op bytecode.Op) {
	r, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	l, ok := vm.popNumber(fs)
	if !ok {
		return
	}
	var result bool
	switch op {
	case bytecode.LT:
		result = l < r
	case bytecode.LTE:
		result = l <= r
	case bytecode.GT:
		result = l > r
	case bytecode.GTE:
		result = l >= r
	}
	fs.Push(value.Boolean(result))
}

func (vm *VM) execIndex(fs *value.FuncState) {
	idx, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "INDEX: evaluation stack underflow")
		return
	}
	container, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "INDEX: evaluation stack underflow")
		return
	}
	switch container.Kind {
	case value.KindArray:
		arr, _ := container.AsArray()
		n, ok := idx.AsNumber()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "INDEX: array index must be Number")
			return
		}
		i := int(n)
		if i < 0 || i >= arr.Len() {
			vm.fail(ErrRuntimeTypeMismatch, "INDEX: array index out of range")
			return
		}
		fs.Push(arr.Items[i])
	case value.KindObject:
		obj, _ := container.AsObject()
		key, ok := idx.AsString()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "INDEX: object key must be String")
			return
		}
		v, ok := obj.Get(key)
		if !ok {
			fs.Push(value.Nil)
			return
		}
		fs.Push(v)
	default:
		vm.fail(ErrRuntimeTypeMismatch, "INDEX: operand must be Array or Object")
	}
}

func (vm *VM) execField(fs *value.FuncState, nameSlot uint16) {
	container, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "FIELD: evaluation stack underflow")
		return
	}
	name, ok := vm.constString(nameSlot)
	if !ok {
		return
	}
	obj, ok := container.AsObject()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "FIELD: operand must be Object")
		return
	}
	v, ok := obj.Get(name)
	if !ok {
		fs.Push(value.Nil)
		return
	}
	fs.Push(v)
}

func (vm *VM) execObjSet(fs *value.FuncState, nameSlot uint16) {
	v, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "OBJSET: evaluation stack underflow")
		return
	}
	container, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "OBJSET: evaluation stack underflow")
		return
	}
	name, ok := vm.constString(nameSlot)
	if !ok {
		return
	}
	obj, ok := container.AsObject()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "OBJSET: target must be Object")
		return
	}
	obj.Set(name, v)
}

func (vm *VM) execArrSet(fs *value.FuncState) {
	v, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: evaluation stack underflow")
		return
	}
	idx, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: evaluation stack underflow")
		return
	}
	container, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: evaluation stack underflow")
		return
	}
	arr, ok := container.AsArray()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: target must be Array")
		return
	}
	n, ok := idx.AsNumber()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: index must be Number")
		return
	}
	i := int(n)
	switch {
	case i >= 0 && i < arr.Len():
		arr.Items[i] = v
	case i == arr.Len():
		arr.Items = append(arr.Items, v)
	default:
		vm.fail(ErrRuntimeTypeMismatch, "ARRSET: index out of range")
	}
}

func (vm *VM) execArrayNew(fs *value.FuncState, n uint16) {
	items := make([]value.Value, n)
	for i := int(n) - 1; i >= 0; i-- {
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "ARRAYNEW: evaluation stack underflow")
			return
		}
		items[i] = v
	}
	fs.Push(value.Arr(value.NewArray(items)))
}

func (vm *VM) execObjectNew(fs *value.FuncState, namesSlot uint16) {
	namesVal, ok := vm.Pool.Get(namesSlot)
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "OBJECTNEW: names constant slot out of range")
		return
	}
	namesArr, ok := namesVal.AsArray()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "OBJECTNEW: names constant is not an Array")
		return
	}
	n := namesArr.Len()
	vals := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "OBJECTNEW: evaluation stack underflow")
			return
		}
		vals[i] = v
	}
	obj := value.NewObject()
	for i, nv := range namesArr.Items {
		name, _ := nv.AsString()
		obj.Set(name, vals[i])
	}
	fs.Push(value.Obj(obj))
}

// execCall: the operand is the argument count; the Function value was
// pushed first and the arguments left-to-right above it. Frames are the
// literal FuncState the compiler built for that scope, so recursive/reentrant
// calls of the same Function value share one locals/estack — see DESIGN.md.
func (vm *VM) execCall(fs *value.FuncState, n int) {
	args := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := fs.Pop()
		if !ok {
			vm.fail(ErrRuntimeTypeMismatch, "CALL: evaluation stack underflow binding arguments")
			return
		}
		args[i] = v
	}
	fnVal, ok := fs.Pop()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "CALL: evaluation stack underflow")
		return
	}
	callee, ok := fnVal.AsFunction()
	if !ok {
		vm.fail(ErrRuntimeTypeMismatch, "CALL: operand must be Function")
		return
	}
	for i, pname := range callee.Params {
		if i < len(args) {
			callee.SetLocal([]byte(pname), args[i])
		} else {
			callee.SetLocal([]byte(pname), value.Nil)
		}
	}
	if len(vm.Frames) >= maxFrames {
		vm.fail(ErrFrameOverflow, "frame stack exceeded maximum depth")
		return
	}
	callee.Scan = -1
	vm.Frames = append(vm.Frames, callee)
}

// execReturn unwinds the frame stack until it pops a lambda boundary,
// pushing the return value onto the resuming caller's stack; a top-level
// return (no enclosing lambda) halts the program.
func (vm *VM) execReturn(fs *value.FuncState) {
	v, ok := fs.Pop()
	if !ok {
		v = value.Nil
	}
	for {
		popped := vm.popFrame()
		if popped == nil {
			vm.halted = true
			return
		}
		if popped.IsLambda {
			break
		}
	}
	if top := vm.top(); top != nil {
		top.Push(v)
	} else {
		vm.halted = true
	}
}

// execBreak unwinds the frame stack until it pops the specific body frame
// a while/for compiled with a LoopExitTarget, then resumes the loop host
// frame at that target.
func (vm *VM) execBreak() {
	for {
		popped := vm.popFrame()
		if popped == nil {
			vm.fail(ErrRuntimeTypeMismatch, "break with no enclosing loop")
			return
		}
		if popped.LoopExitTarget >= 0 {
			if top := vm.top(); top != nil {
				top.Scan = popped.LoopExitTarget - 1
			}
			return
		}
	}
}
