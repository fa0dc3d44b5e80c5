// Package schema defines the fixed output schema and the projection and
// merge machinery that turn nested, variably-shaped health records into
// flat analytics rows with identical column membership.
package schema

import (
	"strconv"
	"strings"
)

// StepKind discriminates path steps.
type StepKind int

const (
	// KeyStep descends into a map by key.
	KeyStep StepKind = iota
	// IndexStep descends into a sequence by position.
	IndexStep
)

// Step is one accessor in a path: a literal map key or a sequence index.
type Step struct {
	Kind  StepKind
	Key   string
	Index int
}

// Path is a parsed chain of steps into a nested record. Paths are resolved
// against plain map/slice/scalar values; there is no reflection involved.
type Path []Step

// ParsePath parses a dot/index expression such as "event.startTime" or
// "entities[0].value" into a Path. Empty segments are ignored.
func ParsePath(expr string) Path {
	var path Path
	for _, segment := range strings.Split(expr, ".") {
		if segment == "" {
			continue
		}
		// Split off any [n] index suffixes.
		for {
			open := strings.IndexByte(segment, '[')
			if open < 0 {
				path = append(path, Step{Kind: KeyStep, Key: segment})
				break
			}
			if open > 0 {
				path = append(path, Step{Kind: KeyStep, Key: segment[:open]})
			}
			closing := strings.IndexByte(segment, ']')
			if closing < open {
				// Malformed index; treat the rest as a literal key.
				path = append(path, Step{Kind: KeyStep, Key: segment[open:]})
				break
			}
			idx, err := strconv.Atoi(segment[open+1 : closing])
			if err != nil {
				// Non-numeric index resolves nothing; keep it as a key step
				// so resolution falls through to the default.
				path = append(path, Step{Kind: KeyStep, Key: segment[open : closing+1]})
			} else {
				path = append(path, Step{Kind: IndexStep, Index: idx})
			}
			segment = segment[closing+1:]
			if segment == "" {
				break
			}
		}
	}
	return path
}

// Resolve walks the path through a nested value. The second return is false
// when the path traverses a missing key, a non-container, or an
// out-of-range index; the caller substitutes the column default.
func (p Path) Resolve(value interface{}) (interface{}, bool) {
	current := value
	for _, step := range p {
		switch step.Kind {
		case KeyStep:
			switch node := current.(type) {
			case map[string]interface{}:
				next, ok := node[step.Key]
				if !ok {
					return nil, false
				}
				current = next
			case map[string]string:
				next, ok := node[step.Key]
				if !ok {
					return nil, false
				}
				current = next
			default:
				return nil, false
			}
		case IndexStep:
			node, ok := current.([]interface{})
			if !ok {
				return nil, false
			}
			if step.Index < 0 || step.Index >= len(node) {
				return nil, false
			}
			current = node[step.Index]
		}
	}
	return current, true
}
