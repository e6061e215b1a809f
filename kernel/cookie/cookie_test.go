package cookie

import "testing"

func installFakeSources(t *testing.T, entropy, tsc uint64) func() {
	t.Helper()
	origEntropy, origTSC := entropyFn, tscFn
	entropyFn = func() uint64 { return entropy }
	tscFn = func() uint64 { return tsc }
	return func() {
		entropyFn, tscFn = origEntropy, origTSC
	}
}

func TestGenerateNeverReturnsZero(t *testing.T) {
	defer installFakeSources(t, 0, 0)()

	for i := 0; i < 1000; i++ {
		if c := Generate(); c == 0 {
			t.Fatal("Generate returned 0")
		}
	}
}

func TestGenerateProducesDistinctValuesForDistinctCounterTicks(t *testing.T) {
	defer installFakeSources(t, 0xDEAD, 0xBEEF)()

	seen := map[uint64]bool{}
	for i := 0; i < 256; i++ {
		c := Generate()
		if seen[c] {
			t.Fatalf("duplicate cookie %#x with fixed entropy/tsc and advancing counter", c)
		}
		seen[c] = true
	}
}

func TestMixIsSensitiveToEachInput(t *testing.T) {
	base := mix(1, 2, 3)
	if mix(2, 2, 3) == base {
		t.Fatal("expected changing entropy to change the mixed value")
	}
	if mix(1, 3, 3) == base {
		t.Fatal("expected changing tsc to change the mixed value")
	}
	if mix(1, 2, 4) == base {
		t.Fatal("expected changing the counter to change the mixed value")
	}
}
