package job

import (
	"context"
	"fmt"
)

// GlobFunc expands one input pattern into concrete URIs.
// storage.Component.Glob is the usual implementation.
type GlobFunc func(ctx context.Context, pattern string) ([]string, error)

// ExpandInputs replaces every input path with the URIs glob returns for
// it, keeping the listed order. Each resulting URI becomes one partition.
func (d *Definition) ExpandInputs(ctx context.Context, glob GlobFunc) error {
	for name, paths := range d.Inputs {
		var expanded []string
		for _, p := range paths {
			uris, err := glob(ctx, p)
			if err != nil {
				return fmt.Errorf("job: input %s: %w", name, err)
			}
			expanded = append(expanded, uris...)
		}
		d.Inputs[name] = expanded
	}
	return nil
}
