package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect schema validation failures.
var ErrValidation = errors.New("validation failed")

// Validator checks command request bodies against per-command JSON Schemas.
// The engine still enforces semantic rules (amounts, quotas); the schemas
// reject malformed payloads before they reach an operation.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator loads and compiles every *.json schema file from schemaDir.
// The file basename (without extension) is the command name it validates.
func NewValidator(schemaDir string) (*Validator, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	schemas := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		command := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		id := "https://ecobot.dev/schemas/" + command
		schemas[command], err = jsonschema.CompileString(id, string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", command, err)
		}
	}
	return &Validator{schemas: schemas}, nil
}

// Validate rejects body if it does not match the command's schema. Commands
// without a schema file pass through.
func (v *Validator) Validate(command string, body []byte) error {
	schema, ok := v.schemas[command]
	if !ok {
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
