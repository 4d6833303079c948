package pipeline

import (
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// UnresolvedRefError reports an instruction template placeholder that no
// earlier stage has produced an output for.
type UnresolvedRefError struct {
	// Key is the placeholder name that could not be resolved
	Key string
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("unresolved reference {%s} in instruction template", e.Key)
}

// RenderInstruction substitutes {output_key} placeholders in tmpl with values
// from the run state. Rendering fails fast with an UnresolvedRefError if a
// placeholder references a key no earlier stage has written.
func RenderInstruction(tmpl string, st *State) (string, error) {
	var unresolved *UnresolvedRefError

	rendered := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := st.Get(key)
		if !ok {
			if unresolved == nil {
				unresolved = &UnresolvedRefError{Key: key}
			}
			return match
		}
		return value
	})

	if unresolved != nil {
		return "", unresolved
	}
	return rendered, nil
}
