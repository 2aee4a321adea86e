package value

import "github.com/cilix/Holly/hashtable"

// FuncState is the unified compile-time and runtime record of one lexical
// scope: a block, a lambda, or the global scope. The compiler allocates
// one per block/lambda and appends instructions into its Ins; the VM
// later walks it as an activation frame.
type FuncState struct {
	Name string // diagnostic name: "global", "if-body"/"else-body"/"while-body"/"for-body", "lambda", or the fn's declared name

	Env *FuncState // enclosing lexical scope; nil for the global FuncState

	Ins []Instruction32 // growable instruction vector
	IP  int             // compile-time write pointer (== len(Ins))

	Scan int // VM's current instruction index within Ins

	Locals *hashtable.Table[Value] // name -> storage

	EStack []Value // evaluation stack
	EP     int     // == len(EStack), tracked explicitly alongside it

	Params []string // declared parameter names, in order, for CALL binding

	// IsLambda marks a FuncState created for a named or anonymous fn, as
	// opposed to one created for an if/while/for body block. RETURN unwinds
	// the frame stack until it pops a frame with IsLambda set, so a return
	// crosses any nested block-call frames transparently.
	IsLambda bool

	// LoopExitTarget is the instruction index, in this FuncState's caller
	// frame, that BREAK should jump to once this frame (or a descendant
	// block frame nested inside it) is unwound. -1 means "not a loop body".
	LoopExitTarget int
}

// Instruction32 is a local alias kept free of an import on package
// bytecode so value has no dependency on it; the compiler and vm packages
// convert between bytecode.Instruction and this alias at their boundary.
// Both are plain uint32 words.
type Instruction32 = uint32

// NewFuncState allocates a FuncState lexically nested inside env (nil for
// the global scope).
func NewFuncState(name string, env *FuncState) *FuncState {
	return &FuncState{
		Name:           name,
		Env:            env,
		Locals:         hashtable.Create[Value](),
		LoopExitTarget: -1,
	}
}

// Emit appends one instruction word and returns its index.
func (fs *FuncState) Emit(word Instruction32) int {
	idx := len(fs.Ins)
	fs.Ins = append(fs.Ins, word)
	fs.IP = len(fs.Ins)
	return idx
}

// Patch overwrites the instruction at idx, used to backpatch jump holes.
func (fs *FuncState) Patch(idx int, word Instruction32) {
	fs.Ins[idx] = word
}

// Push pushes a Value on the evaluation stack.
func (fs *FuncState) Push(v Value) {
	fs.EStack = append(fs.EStack, v)
	fs.EP = len(fs.EStack)
}

// Pop removes and returns the top of the evaluation stack. ok is false on
// underflow.
func (fs *FuncState) Pop() (Value, bool) {
	if len(fs.EStack) == 0 {
		return Nil, false
	}
	v := fs.EStack[len(fs.EStack)-1]
	fs.EStack = fs.EStack[:len(fs.EStack)-1]
	fs.EP = len(fs.EStack)
	return v, true
}

// LookupLocal resolves name by walking the Env chain starting at fs,
// innermost first, never skipping an intermediate frame and never
// revisiting one.
func LookupLocal(fs *FuncState, name []byte) (Value, bool) {
	for cur := fs; cur != nil; cur = cur.Env {
		if v, ok := cur.Locals.Get(name); ok {
			return v, true
		}
	}
	return Nil, false
}

// SetLocal inserts name = v into fs's own Locals.
func (fs *FuncState) SetLocal(name []byte, v Value) {
	fs.Locals.Set(name, v)
}

// SetExisting rebinds name to v in whichever enclosing frame currently owns
// it: bare assignment is a local-rebind, not a fresh declaration. It
// reports false if no enclosing frame declared name.
func SetExisting(fs *FuncState, name []byte, v Value) bool {
	for cur := fs; cur != nil; cur = cur.Env {
		if _, ok := cur.Locals.Get(name); ok {
			cur.Locals.Set(name, v)
			return true
		}
	}
	return false
}
