// Package job describes engine workloads as YAML or HCL files.
//
// A Definition names input file sets, a list of transform steps and one
// action. Steps refer to functions by name; a Registry maps those names to
// engine callables and Builtins provides a default set. HCL files use
// input, step and action blocks and may read env.NAME in expressions.
//
//	def, err := job.Load("wordcount.yaml")
//	res, err := job.Run(ctx, eng, def, job.Builtins(), os.Stdout)
package job
