package stringtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeAndOpen(t *testing.T, tables map[string]map[string]string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stuff.bin")
	if err := WriteFile(path, tables); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRoundTrip_NoCollision(t *testing.T) {
	things := map[string]string{
		"abc":      "def",
		"ghi":      "jkl",
		"mno":      "pqr",
		"stu":      "pqr",
		"xyz":      "def",
		"bullshit": "stuff",
	}
	f := writeAndOpen(t, map[string]map[string]string{"things": things})

	tbl, err := f.Table("things")
	if err != nil {
		t.Fatal(err)
	}
	for k, want := range things {
		got, err := tbl.Get(k)
		if err != nil {
			t.Errorf("Get(%q): %v", k, err)
			continue
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", k, got, want)
		}
	}
}

func TestRoundTrip_Collision(t *testing.T) {
	things := map[string]string{
		"abc": "def",
		"ghi": "jkl",
		"mno": "pqr",
		"stu": "pqr",
	}
	f := writeAndOpen(t, map[string]map[string]string{"things": things})

	tbl, err := f.Table("things")
	if err != nil {
		t.Fatal(err)
	}
	for k, want := range things {
		got, err := tbl.Get(k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", k, got, want)
		}
	}
}

func TestRoundTrip_Large(t *testing.T) {
	dct := make(map[string]string, 1000)
	for i := 0; i < 1000; i++ {
		dct[fmt.Sprintf("key-%04d", i)] = fmt.Sprintf("value-%d", i%17)
	}
	f := writeAndOpen(t, map[string]map[string]string{"big": dct})

	tbl, err := f.Table("big")
	if err != nil {
		t.Fatal(err)
	}
	for k, want := range dct {
		got, err := tbl.Get(k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if got != want {
			t.Fatalf("Get(%q) = %q, want %q", k, got, want)
		}
	}
}

func TestGet_MissingKey(t *testing.T) {
	f := writeAndOpen(t, map[string]map[string]string{
		"things": {"abc": "def", "ghi": "jkl", "mno": "pqr"},
	})
	tbl, err := f.Table("things")
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"nope", "", "abcd", "ab"} {
		if _, err := tbl.Get(k); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q): expected ErrNotFound, got %v", k, err)
		}
	}
}

func TestTable_UnknownName(t *testing.T) {
	f := writeAndOpen(t, map[string]map[string]string{"things": {"a": "b"}})
	if _, err := f.Table("other"); err == nil {
		t.Error("expected error for unknown table name")
	}
}

func TestMultipleTables(t *testing.T) {
	f := writeAndOpen(t, map[string]map[string]string{
		"first":  {"a": "1", "b": "2"},
		"second": {"a": "x", "c": "y", "d": "z"},
	})
	first, err := f.Table("first")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Table("second")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := first.Get("a"); v != "1" {
		t.Errorf("first[a] = %q", v)
	}
	if v, _ := second.Get("a"); v != "x" {
		t.Errorf("second[a] = %q", v)
	}
}

func TestWriteFile_RejectsNUL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	err := WriteFile(path, map[string]map[string]string{"t": {"a\x00b": "v"}})
	if err == nil {
		t.Error("NUL in key should fail")
	}
	err = WriteFile(path, map[string]map[string]string{"t": {"k": "a\x00b"}})
	if err == nil {
		t.Error("NUL in value should fail")
	}
}

// findDegenerateTable searches for a small key set that cannot be perfectly
// hashed within a single displacement iteration, which forces the writer's
// inline fallback.
func findDegenerateTable(t *testing.T) map[string]string {
	t.Helper()
	for seed := 0; seed < 100000; seed++ {
		dct := map[string]int32{
			fmt.Sprintf("a%d", seed): 0,
			fmt.Sprintf("b%d", seed): 1,
		}
		if _, _, err := createMinimalPerfectHash(dct, 1); err != nil {
			out := make(map[string]string, len(dct))
			for k, v := range dct {
				out[k] = fmt.Sprintf("v%d", v)
			}
			return out
		}
	}
	t.Fatal("no degenerate key set found")
	return nil
}

func TestInlineFallback(t *testing.T) {
	dct := findDegenerateTable(t)
	path := filepath.Join(t.TempDir(), "inline.bin")
	if err := WriteFileOptions(path, map[string]map[string]string{"t": dct}, WriteOptions{MaxIterations: 1}); err != nil {
		t.Fatalf("WriteFileOptions: %v", err)
	}

	infoBytes, err := os.ReadFile(InfoPath(path))
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]tableInfo
	if err := json.Unmarshal(infoBytes, &info); err != nil {
		t.Fatal(err)
	}
	if info["t"].Inline == nil {
		t.Fatal("expected inline representation")
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	tbl, err := f.Table("t")
	if err != nil {
		t.Fatal(err)
	}
	for k, want := range dct {
		got, err := tbl.Get(k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", k, got, want)
		}
	}
	if _, err := tbl.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMinimalPerfectHash_Verify(t *testing.T) {
	dct := make(map[string]int32, 257)
	for i := 0; i < 257; i++ {
		dct[fmt.Sprintf("entry/%d", i*i)] = int32(i)
	}
	gs, vs, err := createMinimalPerfectHash(dct, DefaultMaxIterations)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(gs) != len(dct) || len(vs) != len(dct) {
		t.Fatalf("table sizes %d/%d, want %d", len(gs), len(vs), len(dct))
	}
	if err := verifyMinimalPerfectHash(gs, vs, dct); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestFnv32Hash_SeedsDiffer(t *testing.T) {
	bs := []byte("some key")
	if fnv32Hash(0, bs) != fnv32Hash(0, bs) {
		t.Error("hash must be deterministic")
	}
	if fnv32Hash(1, bs) == fnv32Hash(2, bs) {
		t.Error("different seeds should give different hashes for this input")
	}
}
