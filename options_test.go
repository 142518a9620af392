package modal

import "testing"

func uint32p(v uint32) *uint32 { return &v }

func TestFunction_WithOptions_MergesWithoutClobbering(t *testing.T) {
	base := &Function{}

	withCPU := base.WithOptions(Options{MilliCPU: uint32p(1000)})
	withMem := withCPU.WithOptions(Options{MemoryMB: uint32p(512)})

	if withMem.options.MilliCPU == nil || *withMem.options.MilliCPU != 1000 {
		t.Fatalf("expected MilliCPU to survive a second withOptions call")
	}
	if withMem.options.MemoryMB == nil || *withMem.options.MemoryMB != 512 {
		t.Fatalf("expected MemoryMB to be applied")
	}

	// The base Function's own options must be untouched (withOptions
	// returns a new Function rather than mutating the receiver).
	if base.options != nil {
		t.Fatalf("expected base Function to remain unmodified")
	}
}

func TestFunction_WithOptions_LaterCallWins(t *testing.T) {
	base := &Function{}
	f := base.WithOptions(Options{MilliCPU: uint32p(1000)}).WithOptions(Options{MilliCPU: uint32p(2000)})

	if *f.options.MilliCPU != 2000 {
		t.Fatalf("expected the later withOptions call to win, got %d", *f.options.MilliCPU)
	}
}

func TestFunction_WithConcurrency(t *testing.T) {
	f := (&Function{}).WithConcurrency(Concurrency{MaxConcurrentInputs: 10, TargetConcurrentInputs: 5})
	if f.options.Concurrency == nil || f.options.Concurrency.MaxConcurrentInputs != 10 {
		t.Fatalf("expected concurrency overlay to be applied")
	}
}
