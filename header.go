package recordio

import (
	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/errtrack"
)

// HeaderValueType tags a header value.
type HeaderValueType byte

const (
	HeaderValueInvalid HeaderValueType = 0
	HeaderValueBool    HeaderValueType = 1
	HeaderValueInt     HeaderValueType = 2
	HeaderValueUint    HeaderValueType = 3
	HeaderValueString  HeaderValueType = 4
)

// HeaderValue is one decoded header value. Exactly one of the typed
// fields is meaningful, selected by Type.
type HeaderValue struct {
	Type HeaderValueType
	Bool bool
	Int  int64
	Uint uint64
	Str  string
}

// HeaderEntry is a single key-value pair from the header block of a
// chunked recordio file.
type HeaderEntry struct {
	Key   string
	Value HeaderValue
}

const (
	// KeyTrailer marks the presence of a trailer block. The value is BOOL.
	KeyTrailer = "trailer"

	// KeyTransformer names the transformer the blocks were encoded with.
	// The value is STRING.
	KeyTransformer = "transformer"
)

// decodeHeader parses the single item of a header block into its entry
// list. The entry count and string lengths are tagged UINT values.
func decodeHeader(data []byte, err *errtrack.Recorder) []HeaderEntry {
	var entries []HeaderEntry
	parser := binfmt.NewParser(data, err)
	count := parser.ReadValue()
	if count.Type != binfmt.ValueUint {
		err.Set(NewInvalidHeaderError("entry count is not a UINT value"))
		return entries
	}
	for i := uint64(0); i < count.Uint; i++ {
		key := parser.ReadValue()
		if key.Type != binfmt.ValueString {
			err.Set(NewInvalidHeaderError("entry key is not a STRING value"))
			return entries
		}
		value := parser.ReadValue()
		if !err.Ok() {
			return entries
		}
		entries = append(entries, HeaderEntry{Key: key.Str, Value: HeaderValue{
			Type: HeaderValueType(value.Type),
			Bool: value.Bool,
			Int:  value.Int,
			Uint: value.Uint,
			Str:  value.Str,
		}})
	}
	return entries
}

// hasTrailer reports whether the header declares a trailer block.
func hasTrailer(entries []HeaderEntry) (bool, error) {
	for _, entry := range entries {
		if entry.Key == KeyTrailer {
			if entry.Value.Type != HeaderValueBool {
				return false, NewInvalidHeaderError("trailer value is not a BOOL value")
			}
			return entry.Value.Bool, nil
		}
	}
	return false, nil
}

// transformerConfigs collects the transformer config strings declared in
// the header, in order.
func transformerConfigs(entries []HeaderEntry) ([]string, error) {
	var configs []string
	for _, entry := range entries {
		if entry.Key == KeyTransformer {
			if entry.Value.Type != HeaderValueString {
				return nil, NewInvalidHeaderError("transformer value is not a STRING value")
			}
			configs = append(configs, entry.Value.Str)
		}
	}
	return configs, nil
}
