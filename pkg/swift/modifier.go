package swift

import (
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

// declarationBase is the annotation state shared by function and enum
// declarations. A locked declaration keeps its access level; an unlocked one
// starts internal and lets its AccessModifier choose.
func declarationBase(access types.AccessLevel, locked bool) semantic.Base {
	b := semantic.NewBase("access", "locked")
	b.State().Set("access", access)
	b.State().Set("locked", locked)
	return b
}

// declarationAccess reads the access level of the enclosing declaration.
func declarationAccess(ctx *semantic.Context) types.AccessLevel {
	if ps := ctx.ParentState(); ps != nil {
		return semantic.LookupOr(ps, "access", types.Internal)
	}
	return types.Internal
}

// AccessModifier is the access keyword of a declaration. It reports the level
// it chose back to its parent unless the parent is locked, in which case it
// renders the parent's level.
type AccessModifier struct {
	semantic.Base
	atLeast, atMost types.AccessLevel
}

// NewAccessModifier chooses among private through public.
func NewAccessModifier() *AccessModifier {
	return accessModifierBetween(types.Private, types.Public)
}

// accessModifierBetween chooses within [atLeast, atMost].
func accessModifierBetween(atLeast, atMost types.AccessLevel) *AccessModifier {
	return &AccessModifier{Base: semantic.NewBase("access"), atLeast: atLeast, atMost: atMost}
}

func (m *AccessModifier) Key() string         { return "A:AccessModifier" }
func (m *AccessModifier) IsNonterminal() bool { return false }
func (m *AccessModifier) String() string      { return "AccessModifier" }
func (m *AccessModifier) Clone() grammar.Symbol {
	return &AccessModifier{Base: m.Fresh(), atLeast: m.atLeast, atMost: m.atMost}
}

func (m *AccessModifier) Annotate(ctx *semantic.Context) {
	ps := ctx.ParentState()
	var level types.AccessLevel
	if ps != nil && semantic.LookupOr(ps, "locked", false) {
		level = semantic.LookupOr(ps, "access", types.Internal)
	} else {
		level = types.RandomAccess(ctx.Rand, m.atLeast, m.atMost)
		if ps != nil {
			ps.Replace("access", level)
		}
	}
	m.State().Set("access", level)
}

func (m *AccessModifier) Render() string {
	return semantic.Lookup[types.AccessLevel](m.State(), "access").Modifier()
}
