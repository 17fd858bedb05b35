package examstore

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/freeseed/exams-tw/internal/common"
)

//go:embed exam.schema.json
var examSchemaJSON string

var (
	compileOnce sync.Once
	examSchema  *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("exam.schema.json", strings.NewReader(examSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		examSchema, compileErr = compiler.Compile("exam.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return examSchema, compileErr
}

// Validate checks raw exam JSON against the embedded exam record schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrBadRecord, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: json does not match schema: %v", common.ErrBadRecord, err)
	}
	return nil
}
