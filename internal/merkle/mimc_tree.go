package merkle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// --- encode BN254 field elements as 32-byte big-endian ---
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func bytesToFE(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

// MiMC helpers (off-chain), consistent with the in-circuit MiMC in package zk
func HashLeafMiMC(bit uint8) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(new(big.Int).SetUint64(uint64(bit))))
	return bytesToFE(h.Sum(nil))
}

func HashNodeMiMC(left, right *big.Int) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(left))
	h.Write(feBytes(right))
	return bytesToFE(h.Sum(nil))
}

// Fixed-size binary Merkle tree over one bit per board cell, stored level-by-level.
type Tree struct {
	Depth  int          `json:"depth"`
	Levels [][]*big.Int `json:"levels"` // Levels[0]=leaves, Levels[Depth]=root
}

// LeafCount rounds n up to the next power of two.
func LeafCount(n int) int {
	size := 1
	for size < n {
		size *= 2
	}
	return size
}

// BuildTree hashes bits into leaves, padding with MiMC(0) up to LeafCount(len(bits)).
func BuildTree(bits []uint8) (*Tree, error) {
	if len(bits) == 0 {
		return nil, errors.New("no leaves")
	}
	for i, b := range bits {
		if b > 1 {
			return nil, fmt.Errorf("leaf %d is not a bit", i)
		}
	}
	size := LeafCount(len(bits))
	pad := HashLeafMiMC(0)

	L0 := make([]*big.Int, size)
	for i := range L0 {
		if i < len(bits) {
			L0[i] = HashLeafMiMC(bits[i])
		} else {
			L0[i] = new(big.Int).Set(pad)
		}
	}
	levels := [][]*big.Int{L0}

	for n := size; n > 1; n /= 2 {
		prev := levels[len(levels)-1]
		up := make([]*big.Int, n/2)
		for i := range up {
			up[i] = HashNodeMiMC(prev[2*i], prev[2*i+1])
		}
		levels = append(levels, up)
	}
	return &Tree{Depth: len(levels) - 1, Levels: levels}, nil
}

func (t *Tree) Root() *big.Int { return new(big.Int).Set(t.Levels[len(t.Levels)-1][0]) }

// Path returns sibling hashes + direction bits for index idx.
// dir[i]=0 ⇒ current is left child; dir[i]=1 ⇒ current is right child.
func (t *Tree) Path(idx int) (path []*big.Int, dir []uint8, err error) {
	if idx < 0 || idx >= len(t.Levels[0]) {
		return nil, nil, errors.New("idx OOB")
	}
	path = make([]*big.Int, 0, t.Depth)
	dir = make([]uint8, 0, t.Depth)
	cur := idx
	for level := 0; level < t.Depth; level++ {
		isRight := cur%2 == 1
		sib := cur + 1
		if isRight {
			sib = cur - 1
		}
		path = append(path, new(big.Int).Set(t.Levels[level][sib]))
		if isRight {
			dir = append(dir, 1)
		} else {
			dir = append(dir, 0)
		}
		cur /= 2
	}
	return path, dir, nil
}

// Commitment binds a board without revealing it: the published root is
// MiMC(salt, treeRoot), so equal boards still commit to different roots.
type Commitment struct {
	Bits []uint8  `json:"bits"`
	Tree *Tree    `json:"tree"`
	Salt *big.Int `json:"salt"`
}

// Commit builds the tree over bits and draws a salt from rnd (crypto/rand when nil).
func Commit(bits []uint8, rnd io.Reader) (*Commitment, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	t, err := BuildTree(bits)
	if err != nil {
		return nil, err
	}
	saltBytes := make([]byte, 32)
	if _, err := io.ReadFull(rnd, saltBytes); err != nil {
		return nil, err
	}
	// the salt is a circuit input, so it must be a field element
	salt := new(big.Int).Mod(new(big.Int).SetBytes(saltBytes), fr.Modulus())
	return &Commitment{Bits: append([]uint8(nil), bits...), Tree: t, Salt: salt}, nil
}

func (c *Commitment) Root() *big.Int { return HashNodeMiMC(c.Salt, c.Tree.Root()) }

func (c *Commitment) RootHex() string { return Hex(c.Root()) }

// VerifyReveal recomputes the salted root from revealed bits and salt.
func VerifyReveal(rootHex string, bits []uint8, saltHex string) error {
	root, err := ParseHex(rootHex)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	salt, err := ParseHex(saltHex)
	if err != nil {
		return fmt.Errorf("salt: %w", err)
	}
	t, err := BuildTree(bits)
	if err != nil {
		return err
	}
	if HashNodeMiMC(salt, t.Root()).Cmp(root) != 0 {
		return errors.New("revealed board does not match committed root")
	}
	return nil
}

func Hex(x *big.Int) string { return fmt.Sprintf("0x%x", x) }

// ParseHex accepts 0x-prefixed (or bare) hex.
func ParseHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.New("empty hex value")
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return n, nil
}
