// Package main demonstrates the MeTTaTron evaluation core end to end:
// rule-based rewriting and nondeterminism on the trampoline evaluator,
// the same program compiled and run on the bytecode VM, and the hybrid
// tier promoting a hot chunk to JIT-compiled threaded code.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitrdm/mettatron/internal/parallel"
	"github.com/gitrdm/mettatron/pkg/metta"
)

func main() {
	fmt.Println("=== MeTTaTron Evaluation Core ===")
	fmt.Println()

	trampolineBasics()
	nondeterminism()
	bytecodeVM()
	hybridTiering()
	parallelPathMap()
}

// trampolineBasics shows a deterministic rule rewrite evaluated through
// the tree-walking trampoline: double(3) -> 6.
func trampolineBasics() {
	fmt.Println("1. Trampoline evaluator — rule rewriting:")

	env := metta.NewEnvironment()
	x := metta.NewAtom("$x")
	lhs := metta.NewSExpr(metta.NewAtom("double"), x)
	rhs := metta.NewSExpr(metta.NewAtom("+"), x, x)
	env.AddFact(metta.NewSExpr(metta.NewAtom("="), lhs, rhs))

	call := metta.NewSExpr(metta.NewAtom("double"), metta.NewLong(3))
	results, _ := metta.Eval(call, env)
	fmt.Printf("   (double 3) => %s\n", joinResults(results))
	fmt.Println()
}

// nondeterminism shows multiple matching rules for the same head
// producing a multiset of results: (color) -> [Red, Green, Blue].
func nondeterminism() {
	fmt.Println("2. Nondeterminism — multiple rules, one head:")

	env := metta.NewEnvironment()
	head := metta.NewSExpr(metta.NewAtom("color"))
	for _, c := range []string{"Red", "Green", "Blue"} {
		env.AddFact(metta.NewSExpr(metta.NewAtom("="), head, metta.NewAtom(c)))
	}

	results, _ := metta.Eval(head, env)
	fmt.Printf("   (color) => %s\n", joinResults(results))
	fmt.Println()
}

// bytecodeVM compiles `(+ (* 2 3) 4)` to a Chunk and runs it on the VM,
// exercising the arithmetic fast path compiler.go lowers directly to
// opcodes rather than an OpCall round trip.
func bytecodeVM() {
	fmt.Println("3. Bytecode compiler and VM:")

	expr := metta.NewSExpr(metta.NewAtom("+"),
		metta.NewSExpr(metta.NewAtom("*"), metta.NewLong(2), metta.NewLong(3)),
		metta.NewLong(4))

	chunk, err := metta.Compile(expr)
	if err != nil {
		fmt.Printf("   compile error: %v\n", err)
		return
	}

	env := metta.NewEnvironment()
	vm := metta.NewVM(env)
	results, err := vm.Run(chunk)
	if err != nil {
		fmt.Printf("   VM error: %v\n", err)
		return
	}
	fmt.Printf("   (+ (* 2 3) 4) via VM => %s\n", joinResults(results))
	fmt.Println()
}

// hybridTiering runs the same chunk many times through the Hybrid
// executor, crossing the JIT promotion threshold, and shows the tier
// transparently switching from VM interpretation to compiled threaded
// code without changing the result.
func hybridTiering() {
	fmt.Println("4. Hybrid tiered executor (VM -> JIT):")

	expr := metta.NewSExpr(metta.NewAtom("-"),
		metta.NewSExpr(metta.NewAtom("pow"), metta.NewLong(2), metta.NewLong(10)),
		metta.NewLong(1))
	chunk, err := metta.Compile(expr)
	if err != nil {
		fmt.Printf("   compile error: %v\n", err)
		return
	}

	env := metta.NewEnvironment()
	var logger metta.Logger = metta.NopLogger{}
	if zl, zerr := metta.NewZapLogger(false); zerr == nil {
		logger = zl
	}
	hybrid := metta.NewHybrid().WithLogger(logger)
	var last []metta.Value
	for i := 0; i < 60; i++ {
		last, err = hybrid.Run(chunk, env)
		if err != nil {
			fmt.Printf("   run %d error: %v\n", i, err)
			return
		}
	}
	fmt.Printf("   (- (pow 2 10) 1) after 60 runs (JIT-promoted) => %s\n", joinResults(last))
	fmt.Println()
}

// parallelPathMap partitions a Space by head symbol and doubles every
// Long fact concurrently via internal/parallel's WorkerPool, showing the
// path-map concurrency model spec.md section 5 names.
func parallelPathMap() {
	fmt.Println("5. Parallel path-map over a Space:")

	env := metta.NewEnvironment()
	for i := int64(1); i <= 6; i++ {
		env.AddFact(metta.NewSExpr(metta.NewAtom("count"), metta.NewLong(i)))
	}

	pool := parallel.NewWorkerPool(4)
	defer pool.Shutdown()

	out, err := metta.ParallelMap(context.Background(), env.Space(), pool, func(v metta.Value) (metta.Value, error) {
		if v.Arity() == 1 && v.Items()[1].IsLong() {
			return metta.NewSExpr(v.Head(), metta.NewLong(v.Items()[1].Long()*2)), nil
		}
		return v, nil
	})
	if err != nil {
		fmt.Printf("   path-map error: %v\n", err)
		return
	}
	fmt.Printf("   doubled counts => %s\n", joinResults(out))
	fmt.Println()
}

func joinResults(vs []metta.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
