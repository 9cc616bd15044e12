package binfmt

// ValueType tags the body of a header value.
type ValueType byte

const (
	ValueInvalid ValueType = 0
	ValueBool    ValueType = 1
	ValueInt     ValueType = 2
	ValueUint    ValueType = 3
	ValueString  ValueType = 4
)

// Value is a decoded tagged header value. Exactly one of the typed
// fields is meaningful, selected by Type.
type Value struct {
	Type ValueType
	Bool bool
	Int  int64
	Uint uint64
	Str  string
}

// ReadValue consumes one tagged value. A string value carries its length
// as a nested UINT value. On error the returned value has type
// ValueInvalid.
func (parser *Parser) ReadValue() Value {
	var v Value
	tag := parser.ReadBytes(1)
	if tag == nil {
		return v
	}
	switch ValueType(tag[0]) {
	case ValueBool:
		b := parser.ReadBytes(1)
		if b == nil {
			return v
		}
		v.Bool = b[0] != 0
	case ValueInt:
		v.Int = parser.ReadVarint()
	case ValueUint:
		v.Uint = parser.ReadUVarint()
	case ValueString:
		length := parser.ReadValue()
		if length.Type != ValueUint {
			parser.err.Set(NewInvalidValueTypeError(byte(length.Type)))
			return v
		}
		v.Str = parser.ReadString(int(length.Uint))
	default:
		parser.err.Set(NewInvalidValueTypeError(tag[0]))
		return v
	}
	if parser.err.Ok() {
		v.Type = ValueType(tag[0])
	}
	return v
}

// AppendValue appends the wire encoding of v.
func AppendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Type))
	switch v.Type {
	case ValueBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case ValueInt:
		buf = AppendVarint(buf, v.Int)
	case ValueUint:
		buf = AppendUVarint(buf, v.Uint)
	case ValueString:
		buf = AppendValue(buf, Value{Type: ValueUint, Uint: uint64(len(v.Str))})
		buf = append(buf, v.Str...)
	}
	return buf
}
