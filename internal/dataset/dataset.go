// Package dataset validates z/OS dataset names and member specifiers.
package dataset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxQualifiers   = 22
	maxQualifierLen = 8
	maxNameLen      = 44
)

var (
	qualifierRegex  = regexp.MustCompile(`^[A-Z#$@][A-Z0-9#$@-]*$`)
	memberRegex     = regexp.MustCompile(`^[A-Z#$@][A-Z0-9#$@]{0,7}$`)
	generationRegex = regexp.MustCompile(`^(0|[+-][0-9]{1,3})$`)
)

// ValidateName checks a dataset name: up to 22 qualifiers of 1-8 characters
// each, 44 characters in total. Names are case-insensitive.
func ValidateName(name string) error {
	name = strings.ToUpper(name)

	if name == "" {
		return errors.New("dataset name is empty")
	}

	if len(name) > maxNameLen {
		return fmt.Errorf("dataset name %q exceeds %d characters", name, maxNameLen)
	}

	parts := strings.Split(name, ".")
	if len(parts) > maxQualifiers {
		return fmt.Errorf("dataset name has too many qualifiers (max %d): %d", maxQualifiers, len(parts))
	}

	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("dataset name %q contains an empty qualifier", name)
		}

		if len(part) > maxQualifierLen {
			return fmt.Errorf("qualifier %q exceeds %d characters", part, maxQualifierLen)
		}

		if !qualifierRegex.MatchString(part) {
			return fmt.Errorf("qualifier %q contains invalid characters; must start with A-Z, $, # or @", part)
		}
	}

	return nil
}

// ValidateMember checks a PDS member name.
func ValidateMember(member string) error {
	if !memberRegex.MatchString(strings.ToUpper(member)) {
		return fmt.Errorf("member name %q must be 1-8 characters of A-Z, 0-9, $, # or @ and not start with a digit", member)
	}

	return nil
}

// ValidateSpecifier accepts DSN, DSN(MEMBER) and relative GDG references such as DSN(0) or DSN(-1).
func ValidateSpecifier(spec string) error {
	name, member, hasMember := strings.Cut(spec, "(")
	if !hasMember {
		return ValidateName(spec)
	}

	if err := ValidateName(name); err != nil {
		return err
	}

	member, closed := strings.CutSuffix(member, ")")
	if !closed || strings.ContainsAny(member, "()") {
		return fmt.Errorf("specifier %q has unbalanced parentheses", spec)
	}

	if generationRegex.MatchString(member) {
		return nil
	}

	return ValidateMember(member)
}
