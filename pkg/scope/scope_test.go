package scope

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/types"
)

var (
	intT  = types.NewStruct("Int", types.Public, nil)
	boolT = types.NewStruct("Bool", types.Public, nil)
)

func names(vars []Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

func TestDeclaredVariablesMayBeChosen(t *testing.T) {
	s := New()
	s.Declare("foo", intT, false)

	v, err := s.ChooseVariable(rng.New(0), VariableFilter{})
	require.NoError(t, err)
	assert.Equal(t, "foo", v.Name)
}

func TestChooseVariableWithoutCandidates(t *testing.T) {
	_, err := New().ChooseVariable(rng.New(0), VariableFilter{Type: intT})
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

func TestInnerBindingShadowsOuter(t *testing.T) {
	outer := New()
	outer.Declare("x", intT, false)
	inner := outer.NewChild(nil)
	inner.Declare("x", boolT, true)

	for seed := uint64(0); seed < 20; seed++ {
		v, err := inner.ChooseVariable(rng.New(seed), VariableFilter{Name: "x"})
		require.NoError(t, err)
		assert.True(t, v.Type.Equal(boolT))
	}

	_, err := inner.ChooseVariable(rng.New(0), VariableFilter{Name: "x", Type: intT})
	assert.ErrorIs(t, err, ErrNoCandidates, "the shadowed binding is not visible")

	v, err := outer.ChooseVariable(rng.New(0), VariableFilter{Name: "x"})
	require.NoError(t, err)
	assert.True(t, v.Type.Equal(intT))
}

func TestAccessibleVariablesFilters(t *testing.T) {
	root := New()
	root.Declare("a", intT, false)
	root.Declare("b", boolT, true)
	child := root.NewChild(nil)
	child.Declare("c", intT, true)

	yes := true
	tests := []struct {
		name   string
		filter VariableFilter
		want   []string
	}{
		{"all", VariableFilter{}, []string{"c", "b", "a"}},
		{"by type", VariableFilter{Type: intT}, []string{"c", "a"}},
		{"mutable", VariableFilter{Mutable: &yes}, []string{"c", "b"}},
		{"anded", VariableFilter{Type: intT, Mutable: &yes}, []string{"c"}},
		{"none", VariableFilter{Name: "zz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(child.AccessibleVariables(tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("variables mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeclareFuncLastWriteWins(t *testing.T) {
	s := New()
	first := types.NewFunction(types.Internal, nil, intT, types.Normal)
	second := types.NewFunction(types.Public, nil, boolT, types.Normal)
	s.DeclareFunc(types.Internal, "f", first)
	s.DeclareFunc(types.Public, "f", second)

	fns := s.AccessibleFunctions(FunctionFilter{})
	require.Len(t, fns, 1)
	assert.Same(t, second, fns[0].Type)
}

func TestAccessibleFunctionsIncludeStatics(t *testing.T) {
	root := New()
	root.NewChild(boolT)
	num := types.NewStruct("Num", types.Public, nil)
	args := []types.Argument{{Name: "left", Type: num}, {Name: "right", Type: num}}
	num.AddStatic("&+", types.NewFunction(types.Public, args, num, types.Infix))
	num.AddStatic("random", types.NewFunction(types.Public, nil, num, types.Normal))
	root.NewChild(num)

	file := root.NewChild(nil)
	file.DeclareFunc(types.Private, "f", types.NewFunction(types.Private, nil, intT, types.Normal))
	body := file.NewChild(nil)

	var got []string
	for _, fn := range body.AccessibleFunctions(FunctionFilter{}) {
		got = append(got, fn.Name)
	}
	assert.Equal(t, []string{"f", "&+", "Num.random"}, got)

	public := body.AccessibleFunctions(FunctionFilter{AtLeast: types.Internal})
	assert.Len(t, public, 2)

	declared := body.AccessibleFunctions(FunctionFilter{DeclaredOnly: true})
	require.Len(t, declared, 1)
	assert.Equal(t, "f", declared[0].Name)

	returnsBool := body.AccessibleFunctions(FunctionFilter{Returns: boolT})
	assert.Empty(t, returnsBool)

	_, err := body.ChooseFunction(rng.New(0), FunctionFilter{Returns: boolT})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestAccessibleTypes(t *testing.T) {
	root := New()
	root.NewChild(intT)
	A := types.NewEnum("A", types.Private)
	enumScope := root.NewChild(A)
	fn := root.NewChild(nil)
	B := types.NewEnum("B", types.Public)
	nested := fn.NewChild(B)

	assert.Equal(t, []*types.Type{intT, A, B}, root.AccessibleTypes(TypeFilter{}))
	assert.Equal(t, []*types.Type{intT}, enumScope.AccessibleTypes(TypeFilter{}), "own type excluded")
	assert.Equal(t, []*types.Type{intT, A}, enumScope.AccessibleTypes(TypeFilter{IncludeSelf: true}))
	assert.Equal(t, []*types.Type{B, intT}, fn.AccessibleTypes(TypeFilter{AtLeast: types.Internal}))
	assert.Equal(t, []*types.Type{intT}, nested.AccessibleTypes(TypeFilter{AtLeast: types.Public}))
}

func TestSpecializeType(t *testing.T) {
	root := New()
	root.NewChild(intT)
	W := types.NewParam("Wrapped")
	opt := types.NewEnum("Optional", types.Public, W)
	root.NewChild(opt)
	body := root.NewChild(nil)

	spec, err := body.SpecializeType(rng.New(3), opt, types.Private)
	require.NoError(t, err)
	assert.Equal(t, "Optional<Int>", spec.FullName(), "generic types are never slot candidates")

	same, err := body.SpecializeType(rng.New(3), intT, types.Private)
	require.NoError(t, err)
	assert.Same(t, intT, same)

	_, err = New().SpecializeType(rng.New(3), opt, types.Private)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestDepthAndNext(t *testing.T) {
	root := New()
	assert.Same(t, root, root.Next)
	c := root.NewChild(nil).NewChild(nil)
	assert.Equal(t, 2, c.Depth())
	assert.Same(t, root, c.Root())
	assert.Same(t, c, root.LastChild().LastChild())
	assert.Nil(t, c.LastChild())
}
