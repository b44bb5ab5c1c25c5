package job

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/storage"
)

// Load reads and validates the job definition at path, decoded as HCL for
// a .hcl extension and as YAML otherwise. Relative input
// paths are resolved against the directory holding the file; URIs such as
// s3://bucket/key are kept as they are.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("job", path).WithCause(err)
		}
		return nil, errors.FileOpen(path, err)
	}
	var def *Definition
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		def, err = ParseHCL(data, path)
	} else {
		def, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("job: parsing %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for name, files := range def.Inputs {
		for i, f := range files {
			if !filepath.IsAbs(f) && !storage.HasScheme(f) {
				files[i] = filepath.Join(dir, f)
			}
		}
		def.Inputs[name] = files
	}
	return def, nil
}

// Parse decodes and validates a YAML job definition. Unknown keys are
// rejected.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, errors.InvalidInput("yaml", err.Error()).WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
