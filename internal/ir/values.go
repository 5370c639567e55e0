package ir

// StructValue is a heap-allocated struct instance, the interpreter's
// analogue of a %struct.Name* pointer produced by mir2llvm's
// ConstructStruct lowering. Passed around as a Go pointer so LoadField/
// StoreField observe shared mutation the same way a pointer-to-struct
// does in the compiled ABI.
type StructValue struct {
	TypeName string
	Fields   map[string]interface{}
}

// EnumValue is a tagged-union value, the interpreter's analogue of the
// `{ i32, [N x i8] }` layout mir2llvm's emitEnumDefinitions generates.
type EnumValue struct {
	TypeName     string
	Variant      string
	VariantIndex int
	Payload      []interface{}
}

// TupleValue is an ordered, fixed-size group of values.
type TupleValue struct {
	Elements []interface{}
}

// ClosureValue pairs a function name with its captured environment,
// mirroring mir2llvm's %Closure = type { i8* (i8*)*, i8* }.
type ClosureValue struct {
	Func string
	Env  interface{}
}

// LocalPointer is the value AddressOf produces: a reference to a specific
// local slot in a specific frame, dereferenced by Load.
type LocalPointer struct {
	Frame *Frame
	ID    int
}
