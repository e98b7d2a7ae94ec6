package merkle

import (
	"bytes"
	"math/big"
	"testing"
)

func testBits() []uint8 {
	bits := make([]uint8, 100)
	for _, i := range []int{0, 1, 2, 3, 20, 42, 99} {
		bits[i] = 1
	}
	return bits
}

func TestBuildTreeShape(t *testing.T) {
	tree, err := BuildTree(testBits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Depth != 7 {
		t.Errorf("Expected depth 7 for 100 cells, got %d", tree.Depth)
	}
	if len(tree.Levels[0]) != 128 {
		t.Errorf("Expected 128 leaves, got %d", len(tree.Levels[0]))
	}
	if tree.Levels[0][100].Cmp(HashLeafMiMC(0)) != 0 {
		t.Error("Expected padding leaves to hash a zero bit")
	}
}

func TestPathRebuildsRoot(t *testing.T) {
	tree, err := BuildTree(testBits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, idx := range []int{0, 42, 57, 99} {
		path, dir, err := tree.Path(idx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cur := HashLeafMiMC(testBits()[idx])
		for i := range path {
			if dir[i] == 1 {
				cur = HashNodeMiMC(path[i], cur)
			} else {
				cur = HashNodeMiMC(cur, path[i])
			}
		}
		if cur.Cmp(tree.Root()) != 0 {
			t.Errorf("path for %d does not rebuild the root", idx)
		}
	}
	if _, _, err := tree.Path(128); err == nil {
		t.Error("Expected an error past the last leaf")
	}
}

func TestBuildTreeRejectsNonBits(t *testing.T) {
	if _, err := BuildTree([]uint8{0, 2}); err == nil {
		t.Error("Expected an error for a non-binary leaf")
	}
	if _, err := BuildTree(nil); err == nil {
		t.Error("Expected an error for no leaves")
	}
}

func TestCommitAndReveal(t *testing.T) {
	bits := testBits()
	c, err := Commit(bits, bytes.NewReader(bytes.Repeat([]byte{0xff}, 32)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Salt.Cmp(new(big.Int).Lsh(big.NewInt(1), 254)) >= 0 {
		t.Error("Expected the salt reduced into the field")
	}
	if err := VerifyReveal(c.RootHex(), bits, Hex(c.Salt)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tampered := append([]uint8(nil), bits...)
	tampered[5] = 1
	if err := VerifyReveal(c.RootHex(), tampered, Hex(c.Salt)); err == nil {
		t.Error("Expected a tampered board to fail")
	}
	if err := VerifyReveal(c.RootHex(), bits, "0x1"); err == nil {
		t.Error("Expected a wrong salt to fail")
	}
}

func TestSaltMakesRootsDiffer(t *testing.T) {
	a, err := Commit(testBits(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Commit(testBits(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Tree.Root().Cmp(b.Tree.Root()) != 0 {
		t.Error("Expected equal boards to share a tree root")
	}
	if a.Root().Cmp(b.Root()) == 0 {
		t.Error("Expected salted roots to differ")
	}
}

func TestParseHex(t *testing.T) {
	for _, s := range []string{"0x1f", "1f", " 0X1F "} {
		n, err := ParseHex(s)
		if err != nil || n.Int64() != 31 {
			t.Errorf("ParseHex(%q) = %v, %v", s, n, err)
		}
	}
	for _, s := range []string{"", "0x", "zz"} {
		if _, err := ParseHex(s); err == nil {
			t.Errorf("Expected an error for %q", s)
		}
	}
}
