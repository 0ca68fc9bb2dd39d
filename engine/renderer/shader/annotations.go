// annotations.go defines the include annotation understood by the pre-processor. Annotations are
// single-line comments prefixed with @oxy:, so sources stay valid for tools that do not run the
// pre-processor.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the named include file at the annotation site.
	//
	// Syntax: //@oxy:include <name>
	//
	// Example: //@oxy:include global_params
	annotationTypeInclude AnnotationType = "include"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args holds the annotation's arguments. For include, [0] is the include name.
	Args []string

	// Line is the 1-based source line, used for error reporting.
	Line int
}

// parseAnnotation parses a single source line. Lines that are not @oxy: comments return nil
// without error so ordinary comments pass through untouched.
//
// Parameters:
//   - line: the source line
//   - lineNum: the 1-based line number
//
// Returns:
//   - *Annotation: the annotation, or nil if the line is not one
//   - error: error if the line is a malformed annotation
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(rest)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNum)
	}

	a := &Annotation{Type: AnnotationType(args[0]), Args: args[1:], Line: lineNum}
	switch a.Type {
	case annotationTypeInclude:
		if len(a.Args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy:include expects 1 argument, got %d", lineNum, len(a.Args))
		}
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, a.Type)
	}
	return a, nil
}
