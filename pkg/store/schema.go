package store

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

const snapshotSchemaURL = "mem:///snapshot.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func snapshotSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("loading snapshot schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(snapshotSchemaURL)
	})
	return schema, schemaErr
}

// validateSnapshotJSON checks raw JSON against the snapshot schema. Every
// leaf violation is reported with its JSON pointer.
func validateSnapshotJSON(data []byte) error {
	sch, err := snapshotSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		var errs []error
		collectSchemaErrors(&errs, ve)
		return fmt.Errorf("snapshot does not match schema: %w", errors.Join(errs...))
	}
	return nil
}

func collectSchemaErrors(errs *[]error, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*errs = append(*errs, fmt.Errorf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(errs, cause)
	}
}
