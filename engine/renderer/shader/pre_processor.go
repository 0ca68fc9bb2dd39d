// pre_processor.go implements the Oxy shader pre-processor. It scans a program source for
// @oxy:include annotations and replaces each with the contents of the named include file,
// resolved against the language's include directory of a shader root.
package shader

import (
	"fmt"
	"io/fs"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	lang Language
	root fs.FS

	// included lists the include names expanded by the last Process call, in first-use order.
	included []string
}

// PreProcessor expands @oxy:include annotations in a program source.
type PreProcessor interface {
	// Process expands every include annotation in source. Nested includes are expanded in place and
	// an include already expanded in this call is skipped. Lines that are not annotations,
	// including ordinary comments, are kept unchanged.
	//
	// Parameters:
	//   - source: the raw program source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: error if an annotation is malformed or names an unknown include
	Process(source string) (string, error)

	// Includes returns the include names expanded by the most recent Process call.
	//
	// Returns:
	//   - []string: include names in first-use order
	Includes() []string

	// Language returns the language whose include directory is searched.
	Language() Language
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor for a language. Includes resolve against the embedded
// assets unless WithSourceFS selects another root.
//
// Parameters:
//   - lang: the source language
//   - options: functional options
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor(lang Language, options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{lang: lang}
	for _, opt := range options {
		opt(p)
	}
	if p.root == nil {
		p.root = Assets()
	}
	return p
}

func (p *preProcessor) Language() Language {
	return p.lang
}

func (p *preProcessor) Includes() []string {
	return p.included
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]
	seen := make(map[string]bool)
	return p.expand(source, "", seen)
}

// expand processes one source, recursing into includes.
//
// Parameters:
//   - source: the text to expand
//   - from: the include name the text came from, empty for the program itself
//   - seen: include names already expanded in this Process call
//
// Returns:
//   - string: the expanded text
//   - error: error on a malformed annotation or unknown include
func (p *preProcessor) expand(source, from string, seen map[string]bool) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", p.wrap(from, err)
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		name := a.Args[0]
		if seen[name] {
			continue
		}
		seen[name] = true

		b, err := fs.ReadFile(p.root, IncludePath(p.lang, name))
		if err != nil {
			return "", p.wrap(from, fmt.Errorf("line %d: unknown include %q: %w", a.Line, name, err))
		}
		p.included = append(p.included, name)

		body, err := p.expand(strings.TrimRight(string(b), "\n"), name, seen)
		if err != nil {
			return "", err
		}
		out = append(out, body)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) wrap(from string, err error) error {
	if from == "" {
		return err
	}
	return fmt.Errorf("include %q: %w", from, err)
}
