package job

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/kbukum/minispark/errors"
)

// hclDefinition is the HCL form of a Definition:
//
//	name = "wordcount"
//	input "lines" {
//	  paths = ["a.txt", "${env.DATA}/b.txt"]
//	}
//	step "trimmed" {
//	  op   = "map"
//	  from = "lines"
//	  fn   = "trim"
//	}
//	action {
//	  op     = "count"
//	  target = "trimmed"
//	}
type hclDefinition struct {
	Name   string     `hcl:"name"`
	Inputs []hclInput `hcl:"input,block"`
	Steps  []hclStep  `hcl:"step,block"`
	Action hclAction  `hcl:"action,block"`
}

type hclInput struct {
	Name  string   `hcl:"name,label"`
	Paths []string `hcl:"paths"`
}

type hclStep struct {
	Name       string  `hcl:"name,label"`
	Op         string  `hcl:"op"`
	From       string  `hcl:"from"`
	With       *string `hcl:"with,optional"`
	Fn         string  `hcl:"fn"`
	Arg        *string `hcl:"arg,optional"`
	Partitions *int    `hcl:"partitions,optional"`
}

type hclAction struct {
	Op     string `hcl:"op"`
	Target string `hcl:"target"`
}

// ParseHCL decodes and validates an HCL job definition. Unknown attributes
// and blocks are rejected. Expressions may read environment variables
// through env.NAME.
func ParseHCL(data []byte, filename string) (*Definition, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.InvalidInput("hcl", diags.Error())
	}

	var raw hclDefinition
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, errors.InvalidInput("hcl", diags.Error())
	}
	def := &Definition{
		Name:   raw.Name,
		Inputs: make(map[string][]string, len(raw.Inputs)),
		Action: Action{Op: raw.Action.Op, Target: raw.Action.Target},
	}
	for _, in := range raw.Inputs {
		if _, dup := def.Inputs[in.Name]; dup {
			return nil, errors.InvalidInput("input", "duplicate input "+in.Name)
		}
		def.Inputs[in.Name] = in.Paths
	}
	for _, s := range raw.Steps {
		step := Step{Name: s.Name, Op: s.Op, From: s.From, Fn: s.Fn}
		if s.With != nil {
			step.With = *s.With
		}
		if s.Arg != nil {
			step.Arg = *s.Arg
		}
		if s.Partitions != nil {
			step.Partitions = *s.Partitions
		}
		def.Steps = append(def.Steps, step)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}
