package validation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentSchema is a compiled draft-07 JSON schema. Compile once, validate many.
type DocumentSchema struct {
	name   string
	schema *gojsonschema.Schema
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*DocumentSchema{}
)

// CompileDocumentSchema compiles schemaJSON and caches it under name.
func CompileDocumentSchema(name, schemaJSON string) (*DocumentSchema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	s := &DocumentSchema{name: name, schema: schema}
	compiled[name] = s
	return s, nil
}

// MustCompileDocumentSchema panics on an invalid schema; for package-level schema literals.
func MustCompileDocumentSchema(name, schemaJSON string) *DocumentSchema {
	s, err := CompileDocumentSchema(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document. A document that is not JSON at all
// yields a single error.
func (s *DocumentSchema) ValidateBytes(raw []byte) []string {
	return s.validate(gojsonschema.NewBytesLoader(raw))
}

// ValidateValue validates an already decoded Go value.
func (s *DocumentSchema) ValidateValue(v interface{}) []string {
	return s.validate(gojsonschema.NewGoLoader(v))
}

func (s *DocumentSchema) validate(doc gojsonschema.JSONLoader) []string {
	result, err := s.schema.Validate(doc)
	if err != nil {
		return []string{fmt.Sprintf("%s: document is not valid JSON: %v", s.name, err)}
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	sort.Strings(errs)
	return errs
}
