package metta

import "sync"

// chunkTier is the hybrid executor's per-chunk state: the compiled VM
// chunk, its execution counter, and (once promoted) its compiled JIT
// form. Mirrors spec.md section 4.7's "compile-time is amortised by a
// tier policy" description.
type chunkTier struct {
	chunk     *Chunk
	execCount int
	jit       *jitChunk
	jitFailed bool
}

// Hybrid drives the interpret -> VM -> JIT tier policy: a chunk's first
// executions run on the VM; once its counter crosses jitTierThreshold it
// is compiled once and subsequent runs dispatch to threaded code, with
// automatic fallback to the VM on BAILOUT or compile failure. Safe for
// concurrent use (guards its per-chunk tier table), matching spec.md
// section 5's "optional background JIT compilation of a chunk while its
// VM execution continues."
type Hybrid struct {
	mu     sync.Mutex
	tiers  map[*Chunk]*chunkTier
	logger Logger
}

// NewHybrid constructs an empty tier table. Diagnostics default to
// NopLogger; call WithLogger to attach a real sink.
func NewHybrid() *Hybrid {
	return &Hybrid{tiers: make(map[*Chunk]*chunkTier), logger: NopLogger{}}
}

// WithLogger attaches l as the hybrid executor's diagnostic sink for
// tier-promotion and bailout events, returning h for chaining.
func (h *Hybrid) WithLogger(l Logger) *Hybrid {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = l
	return h
}

func (h *Hybrid) tierFor(chunk *Chunk) *chunkTier {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tiers[chunk]
	if !ok {
		t = &chunkTier{chunk: chunk}
		h.tiers[chunk] = t
	}
	return t
}

// Run executes chunk against env, picking the VM or JIT tier per the
// chunk's hotness counter. On a JIT BAILOUT, it does not resume at the
// recorded instruction pointer: a fresh VM re-runs the whole chunk from
// pc 0, which is semantically
// equivalent for every chunk this JIT tier compiles (it only natively
// threads straight-line/branching arithmetic with no cross-call side
// effects before the bailout point), so a full re-run rather than a
// true mid-stream stack transplant is sufficient here.
func (h *Hybrid) Run(chunk *Chunk, env *Environment) ([]Value, error) {
	t := h.tierFor(chunk)

	h.mu.Lock()
	t.execCount++
	count := t.execCount
	jitFailed := t.jitFailed
	jc := t.jit
	h.mu.Unlock()

	if jc == nil && !jitFailed && count >= jitTierThreshold {
		compiled, err := compileJIT(chunk)
		h.mu.Lock()
		if err != nil {
			t.jitFailed = true
		} else {
			t.jit = compiled
			jc = compiled
		}
		h.mu.Unlock()
		if err != nil {
			h.logger.Debugw("jit compile failed, staying on VM tier", "chunk", chunk.Name, "execCount", count, "error", err)
		} else {
			h.logger.Infow("chunk promoted to jit tier", "chunk", chunk.Name, "execCount", count, "threshold", jitTierThreshold)
		}
	}

	if jc != nil {
		locals := make([]Value, chunk.NumLocals)
		sig, _, results, err := jc.run(locals)
		switch sig {
		case SignalOK, SignalHalt:
			if err != nil {
				return nil, err
			}
			return results, nil
		case SignalError:
			return nil, err
		case SignalBailout:
			h.logger.Warnw("jit bailout, falling back to VM tier", "chunk", chunk.Name, "execCount", count)
		}
	}

	vm := NewVM(env)
	return vm.Run(chunk)
}

// CompileInBackground kicks off JIT compilation for chunk on a separate
// goroutine without blocking the caller's current VM execution, per
// spec.md section 5's concurrency model item (b). The result is
// installed into the tier table once ready; a caller already mid-VM-run
// for this chunk is unaffected until its next Run call.
func (h *Hybrid) CompileInBackground(chunk *Chunk) {
	t := h.tierFor(chunk)
	go func() {
		compiled, err := compileJIT(chunk)
		h.mu.Lock()
		defer h.mu.Unlock()
		if err != nil {
			t.jitFailed = true
			h.logger.Debugw("background jit compile failed", "chunk", chunk.Name, "error", err)
			return
		}
		t.jit = compiled
		h.logger.Infow("background jit compile finished", "chunk", chunk.Name)
	}()
}
