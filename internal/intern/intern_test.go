package intern

import (
	"sync"
	"testing"
)

func TestInternIdempotent(t *testing.T) {
	in := New()

	a := in.Intern("Darth Carnifex")
	b := in.Intern("Darth Carnifex")
	if a != b {
		t.Fatalf("expected equal handles, got %v and %v", a, b)
	}

	c := in.Intern("Darth Carnifex ")
	if a == c {
		t.Fatalf("expected distinct handles for distinct strings")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	in := New()
	cases := []string{"", "Vrook Lamar", "HK-51", "a b c"}
	for _, s := range cases {
		h := in.Intern(s)
		if got := in.Resolve(h); got != s {
			t.Fatalf("resolve(intern(%q)) = %q", s, got)
		}
	}
}

func TestEmptyIStr(t *testing.T) {
	in := New()
	if got := in.Resolve(EmptyIStr()); got != "" {
		t.Fatalf("expected empty string for empty handle, got %q", got)
	}
	if in.Intern("") != EmptyIStr() {
		t.Fatalf("interning empty string should return the well-known handle")
	}
}

func TestResolveUnknownHandle(t *testing.T) {
	in := New()
	if got := in.Resolve(IStr(9999)); got != "" {
		t.Fatalf("expected empty string for unknown handle, got %q", got)
	}
}

func TestConcurrentInternResolve(t *testing.T) {
	in := New()
	const goroutines = 64
	names := []string{"Revan", "Malak", "Bastila", "HK-47", "Canderous"}

	var wg sync.WaitGroup
	handles := make([][]IStr, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hs := make([]IStr, len(names))
			for i, n := range names {
				hs[i] = in.Intern(n)
			}
			handles[idx] = hs
		}(g)
	}
	wg.Wait()

	for i := range names {
		want := handles[0][i]
		for g := 1; g < goroutines; g++ {
			if handles[g][i] != want {
				t.Fatalf("handle for %q diverged across goroutines", names[i])
			}
		}
	}
}
