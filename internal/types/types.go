package types

import "strings"

// Type represents a type in the Naml type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	Int    PrimitiveKind = "int"
	Int8   PrimitiveKind = "int8"
	Int16  PrimitiveKind = "int16"
	Int32  PrimitiveKind = "int32"
	Int64  PrimitiveKind = "int64"
	Usize  PrimitiveKind = "usize"
	Float  PrimitiveKind = "float"
	Bool   PrimitiveKind = "bool"
	String PrimitiveKind = "string"
	Nil    PrimitiveKind = "nil"
	Void   PrimitiveKind = "void"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances
var (
	TypeInt    = &Primitive{Kind: Int}
	TypeUsize  = &Primitive{Kind: Usize}
	TypeFloat  = &Primitive{Kind: Float}
	TypeBool   = &Primitive{Kind: Bool}
	TypeString = &Primitive{Kind: String}
	TypeNil    = &Primitive{Kind: Nil}
	TypeVoid   = &Primitive{Kind: Void}
)

// Array represents a fixed-length array type `[T; N]`. Len is known at
// compile time, so loop lowering can read it directly off the type instead
// of emitting a runtime length call.
type Array struct {
	Elem Type
	Len  int64
}

func (a *Array) String() string { return "[" + a.Elem.String() + "; array]" }
func (a *Array) IsType()        {}

// Slice represents a dynamically-sized slice type `[]T`.
type Slice struct {
	Elem Type
}

func (s *Slice) String() string { return "[]" + s.Elem.String() }
func (s *Slice) IsType()        {}

// Map represents a map type `Map[K, V]`.
type Map struct {
	Key   Type
	Value Type
}

func (m *Map) String() string { return "Map[" + m.Key.String() + ", " + m.Value.String() + "]" }
func (m *Map) IsType()        {}

// Tuple represents a tuple type `(T1, T2, ...)`.
type Tuple struct {
	Elements []Type
}

func (t *Tuple) String() string {
	var elems []string
	for _, e := range t.Elements {
		elems = append(elems, e.String())
	}
	return "(" + strings.Join(elems, ", ") + ")"
}
func (t *Tuple) IsType() {}

// Optional represents an optional/nullable type `T?`.
type Optional struct {
	Elem Type
}

func (o *Optional) String() string { return o.Elem.String() + "?" }
func (o *Optional) IsType()        {}

// Pointer represents a raw pointer type `*T`.
type Pointer struct {
	Elem Type
}

func (p *Pointer) String() string { return "*" + p.Elem.String() }
func (p *Pointer) IsType()        {}

// Reference represents a borrowed reference type `&T` or `&mut T`.
type Reference struct {
	Mutable bool
	Elem    Type
}

func (r *Reference) String() string {
	if r.Mutable {
		return "&mut " + r.Elem.String()
	}
	return "&" + r.Elem.String()
}
func (r *Reference) IsType() {}

// Forall represents a universally quantified type `forall[T] Body`.
type Forall struct {
	TypeParams []TypeParam
	Body       Type
}

func (f *Forall) String() string {
	var params []string
	for _, p := range f.TypeParams {
		params = append(params, p.String())
	}
	return "forall[" + strings.Join(params, ", ") + "] " + f.Body.String()
}
func (f *Forall) IsType() {}

// Existential represents an existentially quantified type `exists T: Bounds. Body`,
// used both for `exists` syntax and as the desugaring target of `dyn Trait`.
type Existential struct {
	TypeParam TypeParam
	Body      Type
}

func (e *Existential) String() string {
	return "exists " + e.TypeParam.String() + ". " + e.Body.String()
}
func (e *Existential) IsType() {}

// Struct represents a struct type.
type Struct struct {
	Name       string
	TypeParams []TypeParam
	Fields     []Field
}

type Field struct {
	Name string
	Type Type
}

func (s *Struct) String() string { return s.Name }
func (s *Struct) IsType()        {}

// Enum represents an enum type.
type Enum struct {
	Name       string
	TypeParams []TypeParam
	Variants   []Variant
}

type Variant struct {
	Name    string
	Payload []Type // Can be empty for unit variants
}

func (e *Enum) String() string { return e.Name }
func (e *Enum) IsType()        {}

// Function represents a function type.
type Function struct {
	TypeParams []TypeParam
	Params     []Type
	Return     Type
}

func (f *Function) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + ret
}
func (f *Function) IsType() {}

// Channel represents a channel type.
type Channel struct {
	Elem Type
	Dir  ChanDir
}

type ChanDir int

const (
	SendRecv ChanDir = iota
	SendOnly
	RecvOnly
)

func (c *Channel) String() string {
	switch c.Dir {
	case SendOnly:
		return "chan<- " + c.Elem.String()
	case RecvOnly:
		return "<-chan " + c.Elem.String()
	default:
		return "chan " + c.Elem.String()
	}
}
func (c *Channel) IsType() {}

// Named represents a reference to a named type (like a struct or enum)
// that hasn't been fully resolved or is just a reference.
type Named struct {
	Name string
	Ref  Type // The actual type it refers to, if resolved
}

func (n *Named) String() string { return n.Name }
func (n *Named) IsType()        {}
