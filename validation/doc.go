// Package validation checks engine configuration and job definitions.
//
// Struct tag validation (go-playground/validator) covers shape constraints:
//
//	type Config struct {
//	    Workers int `validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules that tags cannot express, such as a job step naming an
// earlier step, go through the collecting Validator:
//
//	v := validation.New()
//	v.Custom(known[step.From], "steps[2].from", "must name an input or an earlier step")
//	err := v.Validate()
//
// Both return an *errors.AppError with code INVALID_INPUT and the offending
// fields under Details["fields"].
package validation
