package swift

import (
	"strconv"

	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/types"
)

// The standard library types available to every generated program. They are
// never mutated after package initialization.
var (
	Bool = types.NewStruct("Bool", types.Public, func(r *rng.Source) string {
		return strconv.FormatBool(r.Intn(2) == 1)
	})
	Int = types.NewStruct("Int", types.Public, func(r *rng.Source) string {
		return strconv.Itoa(r.Between(0, 5))
	})
	Optional = newOptional()
)

func newOptional() *types.Type {
	wrapped := types.NewParam("Wrapped")
	t := types.NewEnum("Optional", types.Public, wrapped)
	t.AddCase("some", wrapped)
	t.AddCase("none")
	return t
}

func infix(returns *types.Type) *types.FunctionType {
	args := []types.Argument{{Name: "left", Type: Int}, {Name: "right", Type: Int}}
	return types.NewFunction(types.Public, args, returns, types.Infix)
}

func init() {
	Bool.AddStatic(">", infix(Bool))
	Bool.AddStatic("==", infix(Bool))
	Int.AddStatic("&+", infix(Int))
	Int.AddStatic("&*", infix(Int))
}

// ImportStandardLibrary makes the standard library types and their operators
// visible from sc by giving each type a child scope of sc.
func ImportStandardLibrary(sc *scope.Scope) {
	for _, t := range []*types.Type{Bool, Int, Optional} {
		sc.NewChild(t)
	}
}
