package passgen

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, n := range []int{4, 12, 64, 256} {
		pw, err := Generate(Options{Length: n, Upper: true, Lower: true, Digits: true})
		if err != nil {
			t.Fatalf("length %d: %v", n, err)
		}
		if len([]rune(pw)) != n {
			t.Fatalf("length %d: got %d", n, len([]rune(pw)))
		}
	}
}

func TestGenerateRejectsBadLength(t *testing.T) {
	if _, err := Generate(Options{Length: 0, Upper: true}); err != ErrInvalidLength {
		t.Fatalf("length 0: expected ErrInvalidLength, got %v", err)
	}
	if _, err := Generate(Options{Length: -3, Upper: true}); err != ErrInvalidLength {
		t.Fatalf("negative length: expected ErrInvalidLength, got %v", err)
	}
}

func TestGenerateRequiredClassCoverage(t *testing.T) {
	// With upper+digits required, every password of length >= 2 must carry
	// at least one of each.
	for i := 0; i < 200; i++ {
		pw, err := Generate(Options{
			Length: 2, Upper: true, Digits: true,
			AvoidSimilar: true, RequireEachSelected: true,
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		up, _, dig, _ := Classes(pw)
		if !up || !dig {
			t.Fatalf("password %q missing a required class", pw)
		}
	}
}

func TestGenerateLengthBelowRequiredClasses(t *testing.T) {
	_, err := Generate(Options{
		Length: 1, Upper: true, Lower: true, RequireEachSelected: true,
	})
	if err == nil {
		t.Fatal("expected error: 2 required classes > length 1")
	}
}

func TestGenerateDefaultsToLetters(t *testing.T) {
	pw, err := Generate(Options{Length: 40})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range pw {
		if !strings.ContainsRune(setUpper+setLower, r) {
			t.Fatalf("unexpected character %q with no classes selected", r)
		}
	}
}

func TestGenerateAvoidSimilar(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := Generate(Options{
			Length: 32, Upper: true, Lower: true, Digits: true, Special: true,
			AvoidSimilar: true, RequireEachSelected: true,
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, r := range pw {
			if strings.ContainsRune(similarChars, r) {
				t.Fatalf("password %q contains excluded character %q", pw, r)
			}
		}
	}
}

func TestGenerateDistinctAcrossCalls(t *testing.T) {
	a, err := Generate(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two generated passwords matched: %q", a)
	}
}
