package agent

import "testing"

func TestPersonaForStable(t *testing.T) {
	pool := []string{"Ana", "Bruno", "Camila"}
	first := PersonaFor("+5551999887766", pool)
	for i := 0; i < 10; i++ {
		if got := PersonaFor("+5551999887766", pool); got != first {
			t.Fatalf("persona changed between calls: %q vs %q", first, got)
		}
	}
}

func TestPersonaForSpreadsAcrossPool(t *testing.T) {
	pool := []string{"Ana", "Bruno", "Camila", "Diego", "Fernanda"}
	seen := make(map[string]bool)
	keys := []string{
		"+5551999000001", "+5551999000002", "+5551999000003",
		"+5551999000004", "+5551999000005", "+5551999000006",
		"+5551999000007", "+5551999000008", "+5551999000009",
	}
	for _, key := range keys {
		seen[PersonaFor(key, pool)] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected the pool to be used, got only %v", seen)
	}
}

func TestPersonaForEmptyPool(t *testing.T) {
	if got := PersonaFor("+5551", nil); got == "" {
		t.Error("empty pool must still yield a name")
	}
}
