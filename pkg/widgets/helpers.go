package widgets

import (
	"fmt"

	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
)

func errWrongSpecifier(s spec.Specifier, kind string) error {
	return &errs.SpecificationError{
		Identifier: s.Identifier(),
		Type:       s.Type(),
		Message:    fmt.Sprintf("specifier %T cannot build a %s widget", s, kind),
	}
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func uniqueStrings(items []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			return nil, false
		}
		seen[item] = struct{}{}
	}
	return append([]string(nil), items...), true
}
