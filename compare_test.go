package epubcfi

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustPath(t *testing.T, s string) Path {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q) error: %v", s, err)
	}
	return p
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// --- Compare ---

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"/6/4!/4", "/6/4!/6", -1},
		{"/6/4!/4/2", "/6/4!/4", 1},
		{"/6/4!/4/1:5", "/6/4!/4/1:7", -1},
		{"/6/4!/4/1", "/6/4!/4/1:0", -1},
		{"/6/6!/2", "/6/4!/10", 1},
		{"/6/4!/4/3", "/6/4!/4/2", 1},
		{"/6/4!/4/3", "/6/4!/4/4", -1},
		{"/6/4[a]!/4[x]", "/6/4!/4", 0},
		{"/6/4!/4/1:3[;s=a]", "/6/4!/4/1:3[;s=b]", 0},
		{"/6/4!/4/1:3[foo]", "/6/4!/4/1:3[bar]", 0},
		{"/6!/4", "/6/6!/4", 0},
		{"/6/4!/4/10!/2", "/6/4!/4/10/2", -1},
		{"/6/4!/4/10!/2", "/6/4!/4/12", -1},
		{"/6/4", "/6/4!/2", -1},
		{"/6/4!/4/2:0", "/6/4!/4/2/1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, b := mustPath(t, tt.a), mustPath(t, tt.b)
			if got := sign(Compare(a, b)); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := sign(Compare(b, a)); got != -tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

var orderSample = []string{
	"/6/2!/4",
	"/6/4",
	"/6/4!/0",
	"/6/4!/1:0",
	"/6/4!/2",
	"/6/4!/2/1",
	"/6/4!/2/1:0",
	"/6/4!/2/1:4",
	"/6/4!/2/2",
	"/6/4!/2/2!/4",
	"/6/4!/2/3",
	"/6/4!/3",
	"/6/4!/4[x]",
	"/6/4!/4/1:2[;s=a]",
	"/6/6!/2",
	"/6/6!/2:1",
	"/6/8",
	"/8!/2",
}

func TestCompare_StrictWeakOrder(t *testing.T) {
	paths := make([]Path, len(orderSample))
	for i, s := range orderSample {
		paths[i] = mustPath(t, s)
	}
	for _, a := range paths {
		if Compare(a, a) != 0 {
			t.Errorf("Compare(%s, itself) != 0", a)
		}
		for _, b := range paths {
			ab, ba := sign(Compare(a, b)), sign(Compare(b, a))
			if ab != -ba {
				t.Errorf("antisymmetry: Compare(%s, %s) = %d, reverse = %d", a, b, ab, ba)
			}
			for _, c := range paths {
				if ab < 0 && sign(Compare(b, c)) < 0 && sign(Compare(a, c)) >= 0 {
					t.Errorf("transitivity: %s < %s < %s but not %s < %s", a, b, c, a, c)
				}
			}
		}
	}
}

func TestCompare_SortsDocumentOrder(t *testing.T) {
	shuffled := slices.Clone(orderSample)
	slices.Reverse(shuffled)
	shuffled[0], shuffled[5] = shuffled[5], shuffled[0]

	paths := make([]Path, len(shuffled))
	for i, s := range shuffled {
		paths[i] = mustPath(t, s)
	}
	slices.SortStableFunc(paths, Compare)

	got := make([]string, len(paths))
	for i, p := range paths {
		got[i] = p.String()
	}
	if diff := cmp.Diff(orderSample, got); diff != "" {
		t.Errorf("sorted order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_DoesNotAllocate(t *testing.T) {
	a := mustPath(t, "/6/4!/4/10/2/1:3")
	b := mustPath(t, "/6/4!/4/10/2/1:4")
	r := MustParse("/6/4!/4/10,/2/1:1,/3:4")
	allocs := testing.AllocsPerRun(100, func() {
		Compare(a, b)
		Contains(r, a)
		CompareCFI(r, r)
	})
	if allocs != 0 {
		t.Errorf("allocations per run = %v, want 0", allocs)
	}
}

// --- CompareCFI / Contains ---

func TestCompareCFI(t *testing.T) {
	short := MustParse("/6/4!/4/2,/1:1,/1:4")
	long := MustParse("/6/4!/4/2,/1:1,/3:2")
	point := MustParse("/6/4!/4/2/1:1")

	if got := CompareCFI(short, long); got >= 0 {
		t.Errorf("CompareCFI(short, long) = %d, want < 0", got)
	}
	if got := CompareCFI(long, short); got <= 0 {
		t.Errorf("CompareCFI(long, short) = %d, want > 0", got)
	}
	if got := CompareCFI(point, short); got >= 0 {
		t.Errorf("CompareCFI(point, short) = %d, want < 0 (same start, earlier end)", got)
	}
	if got := CompareCFI(short, short); got != 0 {
		t.Errorf("CompareCFI(short, short) = %d, want 0", got)
	}
}

func TestContains(t *testing.T) {
	r := MustParse("/6/4!/4/2,/1:1,/3:8")
	tests := []struct {
		path string
		want bool
	}{
		{"/6/4!/4/2/1:1", true},
		{"/6/4!/4/2/1:5", true},
		{"/6/4!/4/2/2", true},
		{"/6/4!/4/2/3:8", true},
		{"/6/4!/4/2/1:0", false},
		{"/6/4!/4/2/3:9", false},
		{"/6/4!/4/4", false},
		{"/6/6!/4/2/1:5", false},
	}
	for _, tt := range tests {
		if got := Contains(r, mustPath(t, tt.path)); got != tt.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", r, tt.path, got, tt.want)
		}
	}

	point := MustParse("/6/4!/4/2/1:1")
	if !Contains(point, mustPath(t, "/6/4[x]!/4/2/1:1")) {
		t.Error("point CFI does not contain itself")
	}
}
