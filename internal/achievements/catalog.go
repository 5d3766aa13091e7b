package achievements

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed catalog.json
var defaultCatalogJSON []byte

// Catalog is the immutable set of achievement definitions loaded at startup.
type Catalog struct {
	definitions []Definition
	byID        map[string]Definition
}

// Load parses and validates a catalog document. The document must satisfy the
// embedded JSON Schema and definition ids must be unique.
func Load(data []byte) (*Catalog, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to register catalog schema: %w", err)
	}

	schema, err := compiler.Compile("catalog.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("catalog is not valid json: %w", err)
	}

	if err := schema.Validate(document); err != nil {
		return nil, fmt.Errorf("catalog failed schema validation: %w", err)
	}

	var definitions []Definition
	if err := json.Unmarshal(data, &definitions); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	byID := make(map[string]Definition, len(definitions))
	for _, definition := range definitions {
		if _, exists := byID[definition.ID]; exists {
			return nil, fmt.Errorf("duplicate achievement id %q", definition.ID)
		}
		byID[definition.ID] = definition
	}

	return &Catalog{definitions: definitions, byID: byID}, nil
}

// LoadDefault loads the catalog embedded in the binary.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalogJSON)
}

// LoadFile loads a catalog from an external JSON file, allowing deployments
// to override the embedded defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Load(data)
}

// Definitions returns the full catalog in declaration order. The returned
// slice is a copy; the catalog itself never changes after load.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// Get returns the definition for the given id.
func (c *Catalog) Get(id string) (Definition, bool) {
	definition, ok := c.byID[id]
	return definition, ok
}

// Size returns the number of definitions in the catalog.
func (c *Catalog) Size() int {
	return len(c.definitions)
}
