package fab

import (
	"strings"

	"github.com/zeusync/scenefab/internal/core/models"
)

type nameOp uint8

const (
	opNone nameOp = iota
	opEquals
	opContains
	opStartsWith
	opEndsWith
	opAny
)

// NamePredicate is a case-sensitive test on an entity's display name.
// The zero value is "no predicate" and matches every name.
type NamePredicate struct {
	op    nameOp
	value string
	any   []NamePredicate
}

func Equals(s string) NamePredicate     { return NamePredicate{op: opEquals, value: s} }
func Contains(s string) NamePredicate   { return NamePredicate{op: opContains, value: s} }
func StartsWith(s string) NamePredicate { return NamePredicate{op: opStartsWith, value: s} }
func EndsWith(s string) NamePredicate   { return NamePredicate{op: opEndsWith, value: s} }

// Any matches when at least one of ps matches. Any() matches nothing.
func Any(ps ...NamePredicate) NamePredicate {
	return NamePredicate{op: opAny, any: append([]NamePredicate(nil), ps...)}
}

// IsZero reports whether p is the absent predicate.
func (p NamePredicate) IsZero() bool {
	return p.op == opNone
}

// Match evaluates p against name.
func (p NamePredicate) Match(name string) bool {
	switch p.op {
	case opNone:
		return true
	case opEquals:
		return name == p.value
	case opContains:
		return strings.Contains(name, p.value)
	case opStartsWith:
		return strings.HasPrefix(name, p.value)
	case opEndsWith:
		return strings.HasSuffix(name, p.value)
	case opAny:
		for _, sub := range p.any {
			if sub.Match(name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (p NamePredicate) String() string {
	switch p.op {
	case opNone:
		return "*"
	case opEquals:
		return "equals(" + p.value + ")"
	case opContains:
		return "contains(" + p.value + ")"
	case opStartsWith:
		return "starts_with(" + p.value + ")"
	case opEndsWith:
		return "ends_with(" + p.value + ")"
	case opAny:
		parts := make([]string, len(p.any))
		for i, sub := range p.any {
			parts[i] = sub.String()
		}
		return "any(" + strings.Join(parts, ", ") + ")"
	default:
		return "invalid"
	}
}

// EntityView is the read-only slice of the entity substrate the matcher needs.
type EntityView interface {
	Name(models.EntityID) (string, bool)
	Has(models.EntityID, models.ComponentID) bool
}

func anyOf(strs []string, build func(string) NamePredicate) NamePredicate {
	ps := make([]NamePredicate, len(strs))
	for i, s := range strs {
		ps[i] = build(s)
	}
	return Any(ps...)
}
