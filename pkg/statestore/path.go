package statestore

import (
	"fmt"
	"strings"
)

// PathDelimiter separates the keys of a state path.
const PathDelimiter = ">"

// Path addresses a value inside a nested store. All segments but the last
// name nested maps; the last names the stored value.
type Path []string

// ParsePath splits identifier on PathDelimiter. Empty segments are rejected.
func ParsePath(identifier string) (Path, error) {
	if identifier == "" {
		return nil, fmt.Errorf("statestore: path must not be empty")
	}
	segments := strings.Split(identifier, PathDelimiter)
	for i, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("statestore: path %q has an empty segment at position %d", identifier, i)
		}
	}
	return Path(segments), nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(identifier string) Path {
	path, err := ParsePath(identifier)
	if err != nil {
		panic(err)
	}
	return path
}

// String joins the path back into its identifier form.
func (p Path) String() string {
	return strings.Join(p, PathDelimiter)
}

// Parent returns every segment but the last.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the last segment.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}
