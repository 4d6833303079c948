// Package pipeline implements a sequential multi-stage agent pipeline.
//
// A Pipeline runs an ordered list of stages. Each stage renders its
// instruction template against the outputs of earlier stages, invokes the
// model (optionally looping through tool calls the model requests), and
// writes exactly one named output into the shared run State. Stages may
// carry guards that veto the model call and substitute a fixed response.
package pipeline
