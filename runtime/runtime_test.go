package runtime

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergev/eelwasm/compiler"
)

// load compiles fns against pools and loads the result into a fresh
// runtime.
func load(t *testing.T, pools []compiler.Pool, fns []compiler.Function, opts ...Option) (*Runtime, *Instance) {
	t.Helper()
	ctx := context.Background()
	bin, err := compiler.Compile(compiler.Options{Pools: pools, Functions: fns})
	require.NoError(t, err)
	rt, err := New(ctx, pools, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	inst, err := rt.Load(ctx, bin)
	require.NoError(t, err)
	return rt, inst
}

// run compiles src as function "run" of pool "main", calls it once and
// returns the runtime for inspection.
func run(t *testing.T, src string, vars ...string) *Runtime {
	t.Helper()
	return runWith(t, src, vars)
}

func runWith(t *testing.T, src string, vars []string, opts ...Option) *Runtime {
	t.Helper()
	rt, inst := load(t,
		[]compiler.Pool{{Name: "main", Vars: vars}},
		[]compiler.Function{{Name: "run", Pool: "main", Source: src}},
		opts...)
	require.NoError(t, inst.Call(context.Background(), "run"))
	return rt
}

func get(t *testing.T, rt *Runtime, name string) float64 {
	t.Helper()
	v, err := rt.Get("main", name)
	require.NoError(t, err)
	return v
}

func TestExecutionParity(t *testing.T) {
	rt := run(t, "g = ((6 - -7) + 3);", "g")
	require.Equal(t, 16.0, get(t, rt, "g"))
}

func TestDivisionByZero(t *testing.T) {
	rt := run(t, "g = 5 / 0;", "g")
	require.Equal(t, 0.0, get(t, rt, "g"))

	rt = run(t, "g = 5 / d; h = 0 / d;", "g", "h", "d")
	require.Equal(t, 0.0, get(t, rt, "g"))
	require.Equal(t, 0.0, get(t, rt, "h"))

	rt = run(t, "d = 4; g = 10 / d;", "g")
	require.Equal(t, 2.5, get(t, rt, "g"))
}

func TestExpressions(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"abs(-2.5)", 2.5},
		{"sqrt(-16)", 4},
		{"int(2.7)", 2},
		{"int(-2.5)", -3},
		{"floor(-1.5)", -2},
		{"ceil(1.2)", 2},
		{"min(3, -1)", -1},
		{"max(3, -1)", 3},
		{"sqr(3)", 9},
		{"invsqrt(-4)", 0.5},
		{"sign(-3)", -1},
		{"sign(0)", 0},
		{"sign(7)", 1},
		{"bor(0, 2)", 1},
		{"bor(0, 0.000001)", 0},
		{"band(1, 0)", 0},
		{"band(3, -3)", 1},
		{"bnot(0)", 1},
		{"bnot(0.000001)", 1},
		{"bnot(2)", 0},
		{"above(2, 1)", 1},
		{"below(2, 1)", 0},
		{"equal(1, 1.000001)", 1},
		{"7 % 3", 1},
		{"-7 % 3", -1},
		{"7 % 0", 0},
		{"7 % 0.5", 0},
		{"7.9 % 3.9", 1},
		{"5000000000 % 3", 0},
		{"5 & 3", 1},
		{"5 | 3", 7},
		{"5.7 | 0.2", 5},
		{"2 ^ 10", 1024},
		{"1 < 2", 1},
		{"2 <= 1", 0},
		{"3 >= 3", 1},
		{"!0", 1},
		{"!3", 0},
		{"1 == 1.000001", 1},
		{"1 == 1.001", 0},
		{"1 != 1.000001", 0},
		{"1 != 1.001", 1},
		{"0 && 1", 0},
		{"2 && 3", 1},
		{"0 || 0.5", 1},
		{"0 || 0", 0},
		{"1 ? 5 : 6", 5},
		{"0 ? 5", 0},
		{"if(0.000001, 5, 6)", 6},
		{"exec2(1, 2)", 2},
		{"exec3(1, 2, 3)", 3},
		{"(1; 2; 5)", 5},
		{"atan2(1, 1)", math.Pi / 4},
		{"pow(2, 3)", 8},
		{"log(exp(2))", 2},
		{"log10(1000)", 3},
		{"sin(0) + cos(0)", 1},
		{"sigmoid(0, 1)", 0.5},
		{"while(0)", 0},
		{"loop(3, 1)", 0},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			rt := run(t, "g = "+tc.expr+";", "g")
			require.InDelta(t, tc.want, get(t, rt, "g"), 1e-9)
		})
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	rt := run(t, "g = a && (b = 1); h = c || (d = 1);", "a", "b", "c", "d", "g", "h")
	require.Equal(t, 0.0, get(t, rt, "b"))
	require.Equal(t, 1.0, get(t, rt, "d"))
	require.Equal(t, 0.0, get(t, rt, "g"))
	require.Equal(t, 1.0, get(t, rt, "h"))

	rt = run(t, "a = 1; g = a && (b = 2); h = a || (c = 3);", "a", "b", "c", "g", "h")
	require.Equal(t, 2.0, get(t, rt, "b"))
	require.Equal(t, 0.0, get(t, rt, "c"))
	require.Equal(t, 1.0, get(t, rt, "g"))
	require.Equal(t, 1.0, get(t, rt, "h"))
}

func TestConditionalEvaluatesOneBranch(t *testing.T) {
	rt := run(t, "if(x, a = 1, b = 1); x ? c = 1 : d = 1;", "x", "a", "b", "c", "d")
	require.Equal(t, 0.0, get(t, rt, "a"))
	require.Equal(t, 1.0, get(t, rt, "b"))
	require.Equal(t, 0.0, get(t, rt, "c"))
	require.Equal(t, 1.0, get(t, rt, "d"))
}

func TestCompoundAssignment(t *testing.T) {
	rt := run(t, "g = 10; g += 5; g -= 3; g *= 2; g /= 4; g %= 4; h = (k += 3) * 2;", "g", "h", "k")
	require.Equal(t, 2.0, get(t, rt, "g"))
	require.Equal(t, 6.0, get(t, rt, "h"))
	require.Equal(t, 3.0, get(t, rt, "k"))
}

func TestLoops(t *testing.T) {
	rt := run(t, "loop(4.7, g += 2); loop(-2, h += 1);", "g", "h")
	require.Equal(t, 8.0, get(t, rt, "g"))
	require.Equal(t, 0.0, get(t, rt, "h"))

	rt = run(t, "i = 0; while((i += 1) < 10);", "i")
	require.Equal(t, 10.0, get(t, rt, "i"))

	rt = run(t, "while(n += 1);", "n")
	require.Equal(t, float64(compiler.MaxLoopCount), get(t, rt, "n"))

	rt = run(t, "loop(3, loop(2, n += 1; while(0)));", "n")
	require.Equal(t, 6.0, get(t, rt, "n"))
}

func TestBuffers(t *testing.T) {
	rt := run(t, "megabuf(0) = 1.2; g = megabuf(0);", "g")
	require.Equal(t, 1.2, get(t, rt, "g"))

	rt = run(t, "gmegabuf(0) = 1.2; g = megabuf(0); h = gmegabuf(0);", "g", "h")
	require.Equal(t, 0.0, get(t, rt, "g"))
	require.Equal(t, 1.2, get(t, rt, "h"))

	rt = run(t, "megabuf(0) = 7; r = (megabuf(-1) = 5); g = megabuf(0);", "g", "r")
	require.Equal(t, 7.0, get(t, rt, "g"))
	require.Equal(t, 5.0, get(t, rt, "r"))

	rt = run(t, "megabuf(3) = 2; megabuf(3) += 5; g = megabuf(3); h = megabuf(2.99999999);", "g", "h")
	require.Equal(t, 7.0, get(t, rt, "g"))
	require.Equal(t, 7.0, get(t, rt, "h"))

	rt = run(t, "megabuf(524287) = 9; megabuf(524288) = 4; g = megabuf(524287); h = megabuf(524288);", "g", "h")
	require.Equal(t, 9.0, get(t, rt, "g"))
	require.Equal(t, 0.0, get(t, rt, "h"))
}

func TestBufferReadRoundsTowardZero(t *testing.T) {
	rt := run(t, "megabuf(0) = 3; g = megabuf(-0.5); h = megabuf(-1); k = megabuf(-2);", "g", "h", "k")
	require.Equal(t, 3.0, get(t, rt, "g"))
	require.Equal(t, 3.0, get(t, rt, "h"))
	require.Equal(t, 0.0, get(t, rt, "k"))
}

func TestPoolScoping(t *testing.T) {
	ctx := context.Background()
	pools := []compiler.Pool{{Name: "p1", Vars: []string{"x1"}}, {Name: "p2", Vars: []string{"x2"}}}
	rt, inst := load(t, pools, []compiler.Function{
		{Name: "f1", Pool: "p1", Source: "tmp = tmp + 1; x1 = tmp;"},
		{Name: "f2", Pool: "p2", Source: "tmp = tmp + 10; x2 = tmp;"},
		{Name: "f3", Pool: "p1", Source: "tmp = tmp * 100; x1 = tmp;"},
	})
	require.Equal(t, []string{"f1", "f2", "f3"}, inst.Functions())

	require.NoError(t, inst.Call(ctx, "f1"))
	require.NoError(t, inst.Call(ctx, "f2"))
	require.NoError(t, inst.Call(ctx, "f1"))
	x1, err := rt.Get("p1", "x1")
	require.NoError(t, err)
	require.Equal(t, 2.0, x1)
	x2, err := rt.Get("p2", "x2")
	require.NoError(t, err)
	require.Equal(t, 10.0, x2)

	require.NoError(t, inst.Call(ctx, "f3"))
	x1, err = rt.Get("p1", "x1")
	require.NoError(t, err)
	require.Equal(t, 200.0, x1)
}

func TestPoolVariablesAreShared(t *testing.T) {
	ctx := context.Background()
	pools := []compiler.Pool{{Name: "frame", Vars: []string{"Time", "bass"}}}
	rt, err := New(ctx, pools)
	require.NoError(t, err)
	defer rt.Close(ctx)

	writer, err := compiler.Compile(compiler.Options{Pools: pools, Functions: []compiler.Function{
		{Name: "write", Pool: "frame", Source: "time = bass * 2;"},
	}})
	require.NoError(t, err)
	reader, err := compiler.Compile(compiler.Options{Pools: pools, Functions: []compiler.Function{
		{Name: "read", Pool: "frame", Source: "bass = TIME + 1;"},
	}})
	require.NoError(t, err)

	w, err := rt.Load(ctx, writer)
	require.NoError(t, err)
	r, err := rt.Load(ctx, reader)
	require.NoError(t, err)

	require.NoError(t, rt.Set("frame", "BASS", 1.5))
	require.NoError(t, w.Call(ctx, "write"))
	require.NoError(t, r.Call(ctx, "read"))

	vars, err := rt.Vars("frame")
	require.NoError(t, err)
	require.Equal(t, []Var{{Name: "Time", Value: 3}, {Name: "bass", Value: 4}}, vars)

	require.NoError(t, w.Close(ctx))
	require.NoError(t, r.Call(ctx, "read"))
	bass, err := rt.Get("frame", "bass")
	require.NoError(t, err)
	require.Equal(t, 4.0, bass)
}

func TestRuntimeErrors(t *testing.T) {
	ctx := context.Background()
	rt, inst := load(t,
		[]compiler.Pool{{Name: "main", Vars: []string{"g"}}},
		[]compiler.Function{{Name: "run", Pool: "main", Source: "g = 1;"}})

	require.Error(t, inst.Call(ctx, "missing"))
	_, err := rt.Get("other", "g")
	require.ErrorContains(t, err, `unknown pool "other"`)
	require.ErrorContains(t, rt.Set("main", "nope", 1), `pool "main" has no variable "nope"`)
	_, err = rt.Load(ctx, []byte("not wasm"))
	require.Error(t, err)

	_, err = New(ctx, []compiler.Pool{{Name: "p"}, {Name: "p"}})
	require.ErrorContains(t, err, "declared more than once")
	_, err = New(ctx, []compiler.Pool{{Name: compiler.ShimModule}})
	require.ErrorContains(t, err, "reserved")
	_, err = New(ctx, []compiler.Pool{{Name: "p", Vars: []string{"a", "A"}}})
	require.ErrorContains(t, err, "more than once")
	require.Equal(t, []string{"main"}, rt.Pools())
}

func TestRandIsSeeded(t *testing.T) {
	first := get(t, runWith(t, "g = rand(10);", []string{"g"}, WithSeed(42)), "g")
	second := get(t, runWith(t, "g = rand(10);", []string{"g"}, WithSeed(42)), "g")
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, first, 0.0)
	require.Less(t, first, 10.0)
}

func TestShimOverrides(t *testing.T) {
	rt := runWith(t, "g = sin(1) + atan2(1, 2);", []string{"g"},
		WithShim("sin", func(float64) float64 { return 40 }),
		WithShim("atan2", func(x, y float64) float64 { return x + y - 1 }))
	require.Equal(t, 42.0, get(t, rt, "g"))

	ctx := context.Background()
	_, err := New(ctx, nil, WithShim("nope", math.Sin))
	require.ErrorContains(t, err, `no shim named "nope"`)
	_, err = New(ctx, nil, WithShim("sin", math.Atan2))
	require.ErrorContains(t, err, "takes 1 arguments")
	_, err = New(ctx, nil, WithShim("sin", "sin"))
	require.ErrorContains(t, err, "unsupported implementation type")
}

func TestSigmoid(t *testing.T) {
	require.Equal(t, 0.5, sigmoid(0, 1))
	require.InDelta(t, 1/(1+math.Exp(-2)), sigmoid(1, 2), 1e-12)
	require.Equal(t, 0.0, sigmoid(-1000, 1))
}
