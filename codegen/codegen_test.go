package codegen

import (
	"strings"
	"sync"
	"testing"
)

func TestAlphanumeric_Generate(t *testing.T) {
	t.Run("generates codes of the requested length", func(t *testing.T) {
		gen := NewAlphanumeric()

		for _, length := range []int{1, 6, 7, 50, 1000} {
			code, err := gen.Generate(length)
			if err != nil {
				t.Fatalf("Generate(%d) unexpected error: %v", length, err)
			}
			if len(code) != length {
				t.Errorf("Generate(%d) returned length %d", length, len(code))
			}
		}
	})

	t.Run("uses only alphanumeric characters", func(t *testing.T) {
		code, err := NewAlphanumeric().Generate(500)
		if err != nil {
			t.Fatalf("Generate() unexpected error: %v", err)
		}
		for i, c := range code {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("invalid character %q at position %d", c, i)
			}
		}
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		for _, length := range []int{0, -1} {
			if _, err := NewAlphanumeric().Generate(length); err == nil {
				t.Errorf("Generate(%d) expected error, got nil", length)
			}
		}
	})

	t.Run("concurrent generation yields distinct codes", func(t *testing.T) {
		gen := NewAlphanumeric()
		const goroutines = 20
		const perGoroutine = 50

		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			seen = make(map[string]struct{}, goroutines*perGoroutine)
		)

		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perGoroutine {
					code, err := gen.Generate(12)
					if err != nil {
						t.Errorf("Generate() error: %v", err)
						return
					}
					mu.Lock()
					seen[code] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != goroutines*perGoroutine {
			t.Errorf("got %d distinct codes, want %d", len(seen), goroutines*perGoroutine)
		}
	})
}

func TestAlphabet(t *testing.T) {
	if len(alphabet) != 62 {
		t.Errorf("alphabet length = %d, want 62", len(alphabet))
	}
	if rejectAbove != 248 {
		t.Errorf("rejectAbove = %d, want 248", rejectAbove)
	}
}

func BenchmarkAlphanumeric_Generate(b *testing.B) {
	gen := NewAlphanumeric()
	for b.Loop() {
		if _, err := gen.Generate(6); err != nil {
			b.Fatalf("Generate() error: %v", err)
		}
	}
}
