package recordio

import (
	"strings"
	"sync"

	"github.com/wal-g/tracelog"
)

// Transformer rewrites the bytes of one block. Implementations own the
// returned slices; they are invalidated by the next Transform call on
// the same instance. A transformer instance is owned by a single reader
// or writer and is not safe for concurrent use.
type Transformer interface {
	Transform(in [][]byte) ([][]byte, error)
}

// TransformerFactory builds a transformer from the argument part of a
// config string ("flate 4" passes "4").
type TransformerFactory func(args string) (Transformer, error)

type transformerEntry struct {
	encodeFactory TransformerFactory
	decodeFactory TransformerFactory
}

type transformerRegistry struct {
	mu        sync.Mutex
	factories map[string]transformerEntry
}

var (
	registryOnce sync.Once
	registry     *transformerRegistry
)

func getRegistry() *transformerRegistry {
	registryOnce.Do(func() {
		registry = &transformerRegistry{factories: map[string]transformerEntry{}}
	})
	return registry
}

// RegisterTransformer adds a named transformer factory pair to the
// process-wide registry. The encode factory builds the transformer used
// on the write path, the decode factory the one used on the read path.
// Names are case-sensitive. Registering the same name twice is fatal.
func RegisterTransformer(name string, encodeFactory, decodeFactory TransformerFactory) {
	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		tracelog.ErrorLogger.Panicf("transformer %v registered twice", name)
	}
	r.factories[name] = transformerEntry{encodeFactory, decodeFactory}
}

// findTransformerEntry splits a config string of the form "name" or
// "name args" at the first whitespace run and looks the name up.
func findTransformerEntry(config string) (transformerEntry, string, error) {
	name := config
	args := ""
	if i := strings.IndexAny(config, " \t"); i >= 0 {
		name = config[:i]
		args = strings.TrimLeft(config[i:], " \t")
	}
	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.factories[name]
	if !ok {
		return transformerEntry{}, "", NewTransformerNotFoundError(name)
	}
	return entry, args, nil
}

// identityTransformer returns its input unchanged.
type identityTransformer struct{}

func (identityTransformer) Transform(in [][]byte) ([][]byte, error) {
	return in, nil
}

// GetTransformer builds the encode transformer described by configs. An
// empty list resolves to the identity transformer. Pipelines of more
// than one transformer are reserved and rejected.
func GetTransformer(configs []string) (Transformer, error) {
	return getTransformer(configs, false)
}

// GetUntransformer builds the decode transformer described by configs,
// with the same rules as GetTransformer.
func GetUntransformer(configs []string) (Transformer, error) {
	return getTransformer(configs, true)
}

func getTransformer(configs []string, decode bool) (Transformer, error) {
	if len(configs) == 0 {
		return identityTransformer{}, nil
	}
	if len(configs) > 1 {
		return nil, NewUnsupportedError("multi-transformer pipelines")
	}
	entry, args, err := findTransformerEntry(configs[0])
	if err != nil {
		return nil, err
	}
	if decode {
		return entry.decodeFactory(args)
	}
	return entry.encodeFactory(args)
}
