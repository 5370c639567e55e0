// Package runtimeabi is the declarative table of C-ABI entry points the
// generated code commits to: heap object operations (reference-counted
// string/slice/hashmap/channel), the exception slot, and the pthread-backed
// spawn/closure trampoline. internal/codegen/mir2llvm emits one `declare`
// per entry instead of hand-writing the list inline, and internal/builtins
// looks entries up by name to decide how a call should be lowered.
//
// Grounded on the `declare` block the teacher's own generator.go inlined
// (internal/codegen/mir2llvm/generator.go's emitRuntimeDeclarations): this
// package is that same list, data-driven and extended with the entries
// spec.md's runtime ABI section requires beyond what the teacher's
// single-threaded language surface needed (reference-counting, the
// exception slot, closure capture for spawn).
package runtimeabi

// Entry describes a single runtime ABI function: its LLVM declaration, and
// whether codegen should treat it as possibly setting the exception slot.
type Entry struct {
	// Name is the bare symbol, e.g. "runtime_slice_get".
	Name string
	// Declare is the full `declare ...` line minus the "declare " prefix,
	// i.e. "<ret-type> @<name>(<params>)".
	Declare string
	// MayThrow marks entries that can populate the exception slot; codegen
	// follows a call to one of these with an ExceptionCheck per the
	// out-parameter/exception-slot protocol (spec.md section 4.2/4.4.4).
	MayThrow bool
}

// Category groups entries for documentation and for internal/builtins'
// strategy dispatch.
type Category struct {
	Name    string
	Entries []Entry
}

// Table is the full runtime ABI surface, grouped the way the teacher's
// generator commented its declare block.
var Table = []Category{
	{Name: "gc", Entries: []Entry{
		{Name: "runtime_gc_init", Declare: "void @runtime_gc_init()"},
		{Name: "runtime_alloc", Declare: "i8* @runtime_alloc(i64)"},
	}},
	{Name: "refcount", Entries: []Entry{
		{Name: "runtime_incref", Declare: "void @runtime_incref(i8*)"},
		{Name: "runtime_decref", Declare: "void @runtime_decref(i8*)"},
	}},
	{Name: "exception", Entries: []Entry{
		{Name: "runtime_exception_set_typed", Declare: "void @runtime_exception_set_typed(i8*, i32)"},
		{Name: "runtime_exception_check", Declare: "i1 @runtime_exception_check()"},
		{Name: "runtime_exception_clear", Declare: "void @runtime_exception_clear()"},
		{Name: "runtime_exception_get_type_id", Declare: "i32 @runtime_exception_get_type_id()"},
	}},
	{Name: "string", Entries: []Entry{
		{Name: "runtime_string_new", Declare: "%String* @runtime_string_new(i8*, i64)"},
		{Name: "runtime_string_free", Declare: "void @runtime_string_free(%String*)"},
		{Name: "runtime_string_equal", Declare: "i32 @runtime_string_equal(%String*, %String*)"},
		{Name: "runtime_string_concat", Declare: "%String* @runtime_string_concat(%String*, %String*)"},
		{Name: "runtime_string_from_i64", Declare: "%String* @runtime_string_from_i64(i64)"},
		{Name: "runtime_string_from_double", Declare: "%String* @runtime_string_from_double(double)"},
		{Name: "runtime_string_from_bool", Declare: "%String* @runtime_string_from_bool(i1)"},
		{Name: "runtime_string_format", Declare: "%String* @runtime_string_format(%String*, %String*, %String*, %String*, %String*)"},
	}},
	{Name: "println", Entries: []Entry{
		{Name: "runtime_println_i64", Declare: "void @runtime_println_i64(i64)"},
		{Name: "runtime_println_i32", Declare: "void @runtime_println_i32(i32)"},
		{Name: "runtime_println_i8", Declare: "void @runtime_println_i8(i8)"},
		{Name: "runtime_println_double", Declare: "void @runtime_println_double(double)"},
		{Name: "runtime_println_bool", Declare: "void @runtime_println_bool(i1)"},
		{Name: "runtime_println_string", Declare: "void @runtime_println_string(%String*)"},
	}},
	{Name: "slice", Entries: []Entry{
		{Name: "runtime_slice_new", Declare: "%Slice* @runtime_slice_new(i64, i64, i64)"},
		{Name: "runtime_slice_get", Declare: "i8* @runtime_slice_get(%Slice*, i64)", MayThrow: true},
		{Name: "runtime_slice_set", Declare: "void @runtime_slice_set(%Slice*, i64, i8*)", MayThrow: true},
		{Name: "runtime_slice_push", Declare: "void @runtime_slice_push(%Slice*, i8*)"},
		{Name: "runtime_slice_len", Declare: "i64 @runtime_slice_len(%Slice*)"},
		{Name: "runtime_slice_is_empty", Declare: "i8 @runtime_slice_is_empty(%Slice*)"},
		{Name: "runtime_slice_cap", Declare: "i64 @runtime_slice_cap(%Slice*)"},
		{Name: "runtime_slice_reserve", Declare: "void @runtime_slice_reserve(%Slice*, i64)"},
		{Name: "runtime_slice_clear", Declare: "void @runtime_slice_clear(%Slice*)"},
		{Name: "runtime_slice_pop", Declare: "i8* @runtime_slice_pop(%Slice*)", MayThrow: true},
		{Name: "runtime_slice_remove", Declare: "void @runtime_slice_remove(%Slice*, i64)", MayThrow: true},
		{Name: "runtime_slice_insert", Declare: "void @runtime_slice_insert(%Slice*, i64, i8*)", MayThrow: true},
		{Name: "runtime_slice_copy", Declare: "%Slice* @runtime_slice_copy(%Slice*)"},
		{Name: "runtime_slice_subslice", Declare: "%Slice* @runtime_slice_subslice(%Slice*, i64, i64)", MayThrow: true},
	}},
	{Name: "hashmap", Entries: []Entry{
		{Name: "runtime_hashmap_new", Declare: "%HashMap* @runtime_hashmap_new()"},
		{Name: "runtime_hashmap_put", Declare: "void @runtime_hashmap_put(%HashMap*, %String*, i8*)"},
		{Name: "runtime_hashmap_get", Declare: "i8* @runtime_hashmap_get(%HashMap*, %String*)", MayThrow: true},
		{Name: "runtime_hashmap_contains_key", Declare: "i8 @runtime_hashmap_contains_key(%HashMap*, %String*)"},
		{Name: "runtime_hashmap_len", Declare: "i64 @runtime_hashmap_len(%HashMap*)"},
		{Name: "runtime_hashmap_is_empty", Declare: "i8 @runtime_hashmap_is_empty(%HashMap*)"},
		{Name: "runtime_hashmap_free", Declare: "void @runtime_hashmap_free(%HashMap*)"},
	}},
	{Name: "channel", Entries: []Entry{
		{Name: "runtime_channel_new", Declare: "%Channel* @runtime_channel_new(i64, i64)"},
		{Name: "runtime_channel_send", Declare: "void @runtime_channel_send(%Channel*, i8*)"},
		{Name: "runtime_channel_recv", Declare: "i8* @runtime_channel_recv(%Channel*)", MayThrow: true},
		{Name: "runtime_channel_close", Declare: "void @runtime_channel_close(%Channel*)"},
		{Name: "runtime_channel_is_closed", Declare: "i8 @runtime_channel_is_closed(%Channel*)"},
		{Name: "runtime_channel_try_send", Declare: "i8 @runtime_channel_try_send(%Channel*, i8*)"},
		{Name: "runtime_channel_try_recv", Declare: "i8 @runtime_channel_try_recv(%Channel*, i8**)"},
		{Name: "runtime_channel_wait_for_send", Declare: "void @runtime_channel_wait_for_send(%Channel*)"},
		{Name: "runtime_channel_wait_for_recv", Declare: "void @runtime_channel_wait_for_recv(%Channel*)"},
		{Name: "runtime_nanosleep", Declare: "void @runtime_nanosleep(i64)"},
	}},
	{Name: "closure", Entries: []Entry{
		// Packs the free variables a spawned block/lambda captured into a
		// heap buffer; the spawned trampoline unpacks them by offset.
		{Name: "runtime_alloc_closure_data", Declare: "i8* @runtime_alloc_closure_data(i64)"},
		{Name: "runtime_spawn_closure", Declare: "i64 @runtime_spawn_closure(i8* (i8*)*, i8*)"},
	}},
	{Name: "pthread", Entries: []Entry{
		{Name: "pthread_create", Declare: "i32 @pthread_create(i64*, %pthread_attr_t*, i8* (i8*)*, i8*)"},
		{Name: "pthread_join", Declare: "i32 @pthread_join(i64, i8**)"},
		{Name: "pthread_detach", Declare: "i32 @pthread_detach(i64)"},
	}},
}

var byName map[string]Entry

func init() {
	byName = make(map[string]Entry)
	for _, cat := range Table {
		for _, e := range cat.Entries {
			byName[e.Name] = e
		}
	}
}

// Lookup finds an ABI entry by its bare symbol name.
func Lookup(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// MayThrow reports whether calling the named ABI function can populate the
// exception slot. Unknown names (ordinary user functions) are conservatively
// treated as throwing: the generator can't see across function boundaries,
// so it checks after every call it doesn't specifically know is safe,
// matching spec.md's "insert the check after every throwing call".
func MayThrow(name string) bool {
	if e, ok := byName[name]; ok {
		return e.MayThrow
	}
	return true
}

// Declarations renders every entry as a `declare ...` line, grouped with a
// banner comment per category the way the teacher's generator did inline.
func Declarations() []string {
	var lines []string
	for _, cat := range Table {
		lines = append(lines, "; "+cat.Name+" operations")
		for _, e := range cat.Entries {
			lines = append(lines, "declare "+e.Declare)
		}
		lines = append(lines, "")
	}
	return lines
}
