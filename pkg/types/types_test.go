package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftsmith/pkg/rng"
)

func TestFullName(t *testing.T) {
	GT := NewParam("GT")
	CT := NewStruct("CT", Internal, nil)

	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"plain", NewStruct("A", Internal, nil), "A"},
		{"generic", NewEnum("A", Internal, GT), "A<GT>"},
		{"specialized", mustSpecialize(t, NewEnum("A", Internal, GT), map[string]*Type{"GT": CT}), "A<CT>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.FullName())
		})
	}
}

func mustSpecialize(t *testing.T, typ *Type, bindings map[string]*Type) *Type {
	t.Helper()
	out, err := typ.Specialize(bindings)
	require.NoError(t, err)
	return out
}

func TestSpecializeCopies(t *testing.T) {
	W := NewParam("Wrapped")
	opt := NewEnum("Optional", Public, W)
	intT := NewStruct("Int", Public, nil)

	spec, err := opt.Specialize(map[string]*Type{"Wrapped": intT})
	require.NoError(t, err)
	assert.True(t, spec.IsFullySpecialized())
	assert.False(t, opt.IsFullySpecialized(), "the generic type is untouched")
	assert.False(t, spec.Equal(opt))

	_, err = opt.Specialize(map[string]*Type{"Nope": intT})
	assert.Error(t, err)
}

func TestEqualIgnoresAccess(t *testing.T) {
	a := NewEnum("A", Private)
	b := NewEnum("A", Public)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewStruct("A", Private, nil)))
	assert.False(t, a.Equal(nil))
}

func TestEnumNewValue(t *testing.T) {
	r := rng.New(1)
	A := NewEnum("A", Internal)
	A.AddCase("b")

	v, err := A.NewValue(r)
	require.NoError(t, err)
	assert.Equal(t, "A.b", v)

	intT := NewStruct("Int", Public, func(*rng.Source) string { return "4" })
	W := NewParam("Wrapped")
	opt := NewEnum("Optional", Public, W)
	opt.AddCase("some", W)
	opt.AddCase("none")
	spec := mustSpecialize(t, opt, map[string]*Type{"Wrapped": intT})

	for seed := uint64(0); seed < 10; seed++ {
		v, err := spec.NewValue(rng.New(seed))
		require.NoError(t, err)
		assert.Contains(t, []string{"Optional<Int>.some(4)", "Optional<Int>.none"}, v)
	}

	_, err = opt.NewValue(r)
	assert.Error(t, err, "unspecialized generics have no values")

	_, err = NewEnum("E", Internal).NewValue(r)
	assert.True(t, errors.Is(err, ErrNoValue))
}

func TestAddCaseRejectsDuplicates(t *testing.T) {
	A := NewEnum("A", Internal)
	A.AddCase("a")
	assert.Panics(t, func() { A.AddCase("a") })
	assert.Panics(t, func() { NewStruct("S", Internal, nil).AddCase("a") })
}

func TestFunctionTypeArity(t *testing.T) {
	intT := NewStruct("Int", Public, nil)
	boolT := NewStruct("Bool", Public, nil)
	args := []Argument{{"left", intT}, {"right", intT}}

	fn := NewFunction(Public, args, boolT, Infix)
	assert.Equal(t, "(left: Int, right: Int) -> Bool", fn.Signature())

	assert.Panics(t, func() { NewFunction(Public, args, boolT, Prefix) })
	assert.Panics(t, func() { NewFunction(Public, args[:1], boolT, Infix) })
	assert.NotPanics(t, func() { NewFunction(Public, args[:1], boolT, Postfix) })
}

func TestAccessLevels(t *testing.T) {
	assert.Equal(t, "", Internal.String())
	assert.Equal(t, "fileprivate ", FilePrivate.Modifier())
	assert.Equal(t, "", Internal.Modifier())
	assert.True(t, Private < FilePrivate && FilePrivate < Internal && Internal < Public)

	for _, s := range []string{"private", "fileprivate", "", "public"} {
		level, err := ParseAccess(s)
		require.NoError(t, err)
		assert.Equal(t, s, level.String())
	}
	_, err := ParseAccess("protected")
	assert.Error(t, err)
}

func TestRandomAccessBounds(t *testing.T) {
	r := rng.New(7)
	for i := 0; i < 200; i++ {
		level := RandomAccess(r, FilePrivate, Internal)
		assert.True(t, level == FilePrivate || level == Internal, "got %v", level)
		assert.NotEqual(t, Local, RandomAccess(r, Local, Public), "local has zero weight")
	}
	assert.Equal(t, Public, RandomAccess(r, Public, Local))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "public enum Optional", NewEnum("Optional", Public).String())
	assert.Equal(t, "struct Int", NewStruct("Int", Internal, nil).String())
	assert.Equal(t, "let", BindingFor(false).String())
	assert.Equal(t, "var", BindingFor(true).String())
}
