package types

// Built-in scalar types, constructed once at process start.
var (
	Void    = NewNominal("void", true)
	Int8    = NewNominal("int8", true)
	Int16   = NewNominal("int16", true)
	Int32   = NewNominal("int32", true)
	Int64   = NewNominal("int64", true)
	Float32 = NewNominal("float32", true)
	Float64 = NewNominal("float64", true)
	Bool    = NewNominal("bool", true)
	String  = NewNominal("string", true)
	ErrorT  = NewNominal("Error", true)
	Func    = NewNominal("function", true)
	OpT     = NewNominal("operator", true)
	TypeT   = NewNominal("type", true)
	ScopeT  = NewNominal("scope", true)
	MicroT  = NewNominal("microstatement", true)
)

// Generic built-in templates. Each carries a single generic-standin
// property so that Solidify can be used to instantiate them, exactly the
// way a user-declared generic type would be.
var (
	arrayElemStandin = NewGenericStandin("V")
	ArrayTemplate    = newGenericTemplate("Array", []string{"V"}, map[string]*Type{"__elem": arrayElemStandin})

	mapKeyStandin = NewGenericStandin("K")
	mapValStandin = NewGenericStandin("V")
	MapTemplate   = newGenericTemplate("Map", []string{"K", "V"}, map[string]*Type{"__key": mapKeyStandin, "__val": mapValStandin})

	keyValKeyStandin = NewGenericStandin("K")
	keyValValStandin = NewGenericStandin("V")
	KeyValTemplate   = newGenericTemplate("KeyVal", []string{"K", "V"}, map[string]*Type{"key": keyValKeyStandin, "val": keyValValStandin})

	eventCarriesStandin = NewGenericStandin("E")
	EventTemplate       = newGenericTemplate("Event", []string{"E"}, map[string]*Type{"__carries": eventCarriesStandin})
)

func newGenericTemplate(name string, generics []string, fields map[string]*Type) *Type {
	t := NewNominal(name, true)
	for i, g := range generics {
		t.Generics[g] = i
	}
	for fname, ftype := range fields {
		t.Properties.Set(fname, ftype)
	}
	return t
}

// ArrayOf returns the (interned) solidification Array<elem>.
func ArrayOf(elem *Type) *Type { return ArrayTemplate.Solidify([]*Type{elem}) }

// MapOf returns the (interned) solidification Map<key,val>.
func MapOf(key, val *Type) *Type { return MapTemplate.Solidify([]*Type{key, val}) }

// KeyValOf returns the (interned) solidification KeyVal<key,val>.
func KeyValOf(key, val *Type) *Type { return KeyValTemplate.Solidify([]*Type{key, val}) }

// EventOf returns the (interned) solidification Event<carries>.
func EventOf(carries *Type) *Type { return EventTemplate.Solidify([]*Type{carries}) }

// Builtins is the full set of process-lifetime built-in Type instances,
// keyed by name, used to seed the opcode scope.
var Builtins = map[string]*Type{
	"void": Void, "int8": Int8, "int16": Int16, "int32": Int32, "int64": Int64,
	"float32": Float32, "float64": Float64, "bool": Bool, "string": String,
	"Error": ErrorT, "function": Func, "operator": OpT, "type": TypeT,
	"scope": ScopeT, "microstatement": MicroT,
	"Array": ArrayTemplate, "Map": MapTemplate, "KeyVal": KeyValTemplate, "Event": EventTemplate,
}

// ZeroValue returns the implementation-defined default value for t, used
// when a `let` declaration has no initializer.
// Non-default-constructible non-built-in types get a zero-length array
// placeholder, documented here as the chosen resolution.
func ZeroValue(t *Type) interface{} {
	switch t.Typename {
	case "int8", "int16", "int32", "int64":
		return int64(0)
	case "float32", "float64":
		return float64(0)
	case "bool":
		return false
	case "string":
		return ""
	default:
		return []interface{}{}
	}
}
