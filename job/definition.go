package job

import (
	"fmt"

	"github.com/kbukum/minispark/validation"
)

// Step operations.
const (
	OpMap         = "map"
	OpFilter      = "filter"
	OpJoin        = "join"
	OpPartitionBy = "partitionBy"
)

// Action operations.
const (
	ActionCount   = "count"
	ActionPrint   = "print"
	ActionCollect = "collect"
)

// Definition is a YAML job.
type Definition struct {
	// Name identifies the job in logs.
	Name string `yaml:"name" validate:"required"`
	// Inputs maps a dataset name to the files backing it, one partition
	// per file.
	Inputs map[string][]string `yaml:"inputs" validate:"required,min=1,dive,min=1"`
	// Steps are resolved in order; a step may only read inputs or earlier
	// steps.
	Steps  []Step `yaml:"steps" validate:"dive"`
	Action Action `yaml:"action"`
}

// Step derives one dataset from others.
type Step struct {
	Name string `yaml:"name" validate:"required"`
	Op   string `yaml:"op" validate:"required,oneof=map filter join partitionBy"`
	From string `yaml:"from" validate:"required"`
	// With is the right-hand side of a join.
	With string `yaml:"with,omitempty"`
	Fn   string `yaml:"fn" validate:"required"`
	// Arg is handed to filter, join and partition functions as their
	// context value.
	Arg        string `yaml:"arg,omitempty"`
	Partitions int    `yaml:"partitions,omitempty" validate:"gte=0"`
}

// Action materializes one dataset.
type Action struct {
	Op     string `yaml:"op" validate:"required,oneof=count print collect"`
	Target string `yaml:"target" validate:"required"`
}

// Validate checks field constraints and that every reference resolves to
// an input or an earlier step.
func (d *Definition) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}

	v := validation.New()
	known := make(map[string]bool, len(d.Inputs)+len(d.Steps))
	for name := range d.Inputs {
		known[name] = true
	}
	for i, s := range d.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		v.Custom(!known[s.Name], field+".name", fmt.Sprintf("%q is already defined", s.Name))
		v.Custom(known[s.From], field+".from", fmt.Sprintf("unknown dataset %q", s.From))
		if s.Op == OpJoin {
			v.Custom(s.With != "", field+".with", "join needs a right-hand dataset")
			v.Custom(s.With == "" || known[s.With], field+".with", fmt.Sprintf("unknown dataset %q", s.With))
		} else {
			v.Custom(s.With == "", field+".with", "only join takes a second dataset")
		}
		if s.Op == OpPartitionBy {
			v.Min(field+".partitions", s.Partitions, 1)
		}
		known[s.Name] = true
	}
	v.Custom(known[d.Action.Target], "action.target", fmt.Sprintf("unknown dataset %q", d.Action.Target))
	return v.Validate()
}
