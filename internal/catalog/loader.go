package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed units_data.json
var embeddedUnits []byte

// Source supplies the raw definition document.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Read returns the document bytes. A missing or unreadable source
	// must return an error; it is reported as NotFound.
	Read() ([]byte, error)
}

type fileSource string

// FileSource reads a JSON or YAML definition file from disk.
func FileSource(path string) Source { return fileSource(path) }

func (f fileSource) Name() string { return string(f) }

func (f fileSource) Read() ([]byte, error) { return os.ReadFile(string(f)) }

type bytesSource struct {
	name string
	data []byte
}

// BytesSource wraps an in-memory document.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (b bytesSource) Name() string { return b.name }

func (b bytesSource) Read() ([]byte, error) { return b.data, nil }

// Embedded returns the default category table compiled into the binary.
func Embedded() Source { return bytesSource{name: "embedded:units_data.json", data: embeddedUnits} }

// SourceFor returns a FileSource for path, or the embedded table when path
// is empty.
func SourceFor(path string) Source {
	if path == "" {
		return Embedded()
	}
	return FileSource(path)
}

// Load reads src once and builds a Catalog from it.
func Load(src Source) (*Catalog, error) {
	data, err := src.Read()
	if err != nil {
		return nil, notFound(src.Name(), err)
	}
	return Parse(src.Name(), data)
}

// Parse builds a Catalog from a definition document. JSON documents are
// accepted as well as YAML; both decode through the YAML parser so that
// declaration order is kept.
func Parse(name string, data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed(name, "document is empty")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Kind: LoadMalformed, Source: name, Detail: "invalid document", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed(name, "document is empty")
	}

	root := deref(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, malformed(name, "top level must map category names to definitions")
	}
	if len(root.Content) == 0 {
		return nil, malformed(name, "no categories defined")
	}

	cat := &Catalog{
		source: name,
		byName: make(map[string]Category, len(root.Content)/2),
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, defNode := deref(root.Content[i]), deref(root.Content[i+1])

		catName, err := scalarKey(keyNode)
		if err != nil {
			return nil, malformed(name, "category name at line %d: %v", keyNode.Line, err)
		}
		if _, dup := cat.byName[catName]; dup {
			return nil, malformed(name, "category %q defined more than once", catName)
		}

		def, err := parseCategory(catName, defNode)
		if err != nil {
			return nil, malformed(name, "%s", err)
		}

		cat.order = append(cat.order, catName)
		cat.byName[catName] = def
	}

	return cat, nil
}

// parseCategory validates a single definition object.
func parseCategory(name string, n *yaml.Node) (Category, error) {
	if n.Kind != yaml.MappingNode {
		return Category{}, fmt.Errorf("%s: definition must be an object", name)
	}

	var typeNode, unitsNode *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "type":
			typeNode = deref(n.Content[i+1])
		case "units":
			unitsNode = deref(n.Content[i+1])
		}
	}

	kind := KindLinear
	if typeNode != nil && typeNode.Tag != "!!null" {
		if typeNode.Kind != yaml.ScalarNode {
			return Category{}, fmt.Errorf("%s.type: must be a string", name)
		}
		k, ok := parseKind(typeNode.Value)
		if !ok {
			return Category{}, fmt.Errorf("%s.type: unknown kind %q (want linear or temperature)", name, typeNode.Value)
		}
		kind = k
	}
	if unitsNode != nil && unitsNode.Tag == "!!null" {
		unitsNode = nil
	}

	switch kind {
	case KindLinear:
		units, err := parseLinearUnits(name, unitsNode)
		if err != nil {
			return Category{}, err
		}
		return Category{Name: name, Kind: KindLinear, Units: units}, nil
	case KindTemperature:
		units, err := parseTemperatureUnits(name, unitsNode)
		if err != nil {
			return Category{}, err
		}
		return Category{Name: name, Kind: KindTemperature, Units: units}, nil
	default:
		return Category{}, fmt.Errorf("%s: unhandled kind %v", name, kind)
	}
}

func parseLinearUnits(name string, n *yaml.Node) ([]Unit, error) {
	if n == nil {
		return nil, fmt.Errorf("%s.units: required for linear categories", name)
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s.units: must map unit symbols to factors", name)
	}
	if len(n.Content) == 0 {
		return nil, fmt.Errorf("%s.units: must not be empty", name)
	}

	units := make([]Unit, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := deref(n.Content[i]), deref(n.Content[i+1])

		symbol, err := scalarKey(keyNode)
		if err != nil {
			return nil, fmt.Errorf("%s.units: unit symbol at line %d: %v", name, keyNode.Line, err)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("%s.units.%s: defined more than once", name, symbol)
		}
		seen[symbol] = true

		factor, err := parseFactor(valNode)
		if err != nil {
			return nil, fmt.Errorf("%s.units.%s: %v", name, symbol, err)
		}
		units = append(units, Unit{Symbol: symbol, Factor: factor})
	}
	return units, nil
}

// parseTemperatureUnits checks the optional unit list of a temperature
// category. Factors are ignored; the key set must be exactly C, F, K.
func parseTemperatureUnits(name string, n *yaml.Node) ([]Unit, error) {
	if n == nil {
		units := make([]Unit, len(TemperatureUnits))
		for i, s := range TemperatureUnits {
			units[i] = Unit{Symbol: s, Factor: 1}
		}
		return units, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s.units: must map unit symbols to factors", name)
	}

	units := make([]Unit, 0, len(TemperatureUnits))
	seen := make(map[string]bool, len(TemperatureUnits))
	for i := 0; i+1 < len(n.Content); i += 2 {
		symbol, err := scalarKey(deref(n.Content[i]))
		if err != nil {
			return nil, fmt.Errorf("%s.units: %v", name, err)
		}
		if !IsTemperatureUnit(symbol) {
			return nil, fmt.Errorf("%s.units.%s: temperature categories only support C, F and K", name, symbol)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("%s.units.%s: defined more than once", name, symbol)
		}
		seen[symbol] = true
		units = append(units, Unit{Symbol: symbol, Factor: 1})
	}
	if len(units) != len(TemperatureUnits) {
		return nil, fmt.Errorf("%s.units: temperature categories must define exactly C, F and K", name)
	}
	return units, nil
}

func parseFactor(n *yaml.Node) (float64, error) {
	if n.Kind != yaml.ScalarNode || (n.Tag != "!!int" && n.Tag != "!!float") {
		return 0, fmt.Errorf("factor must be a number, got %q", n.Value)
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return 0, fmt.Errorf("factor %q: %w", n.Value, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("factor %q is not finite", n.Value)
	}
	return f, nil
}

func scalarKey(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("must be a string")
	}
	v := strings.TrimSpace(n.Value)
	if v == "" {
		return "", fmt.Errorf("must not be empty")
	}
	return v, nil
}

// deref follows YAML aliases to the anchored node.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// Once loads a source at most once. Concurrent and repeated calls to Load
// return the same Catalog (or the same error) without touching the source
// again.
type Once struct {
	src  Source
	once sync.Once
	cat  *Catalog
	err  error
}

// NewOnce prepares a load-once holder for src.
func NewOnce(src Source) *Once {
	return &Once{src: src}
}

// Load returns the catalog, reading the source on the first call only.
func (o *Once) Load() (*Catalog, error) {
	o.once.Do(func() {
		o.cat, o.err = Load(o.src)
	})
	return o.cat, o.err
}
