package zk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"sea-battle/internal/merkle"
)

const (
	vkFile = "shot.vk"
	pkFile = "shot.pk"
)

// ShotPublic carries the public inputs of a strike proof. The root travels as
// hex so browsers can pass it through without losing precision.
type ShotPublic struct {
	Root  string `json:"root"`
	Index int    `json:"index"`
	Hit   uint8  `json:"hit"`
}

// ShotWitness is everything the prover knows about one cell.
type ShotWitness struct {
	Bit   uint8
	Index int
	Path  []*big.Int
	Dir   []uint8
	Salt  *big.Int
	Root  *big.Int
}

func compileShot() (constraint.ConstraintSystem, error) {
	var circuit ShotCircuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

// Ensure proving/verifying keys exist (reads/writes via io.ReaderFrom / io.WriterTo).
func EnsureShotKeys(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	vkPath := filepath.Join(dir, vkFile)
	pkPath := filepath.Join(dir, pkFile)

	// If both key files exist AND can be parsed, reuse them; else regenerate.
	if vk, pk, err := readKeys(vkPath, pkPath); err == nil && vk != nil && pk != nil {
		return nil
	}

	cs, err := compileShot()
	if err != nil {
		return err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return err
	}
	if err := writeKey(vkPath, vk); err != nil {
		return err
	}
	return writeKey(pkPath, pk)
}

// Prover holds the compiled circuit and keys so each proof skips compilation.
type Prover struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// NewProver runs a fresh in-memory setup.
func NewProver() (*Prover, error) {
	cs, err := compileShot()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, err
	}
	return &Prover{cs: cs, pk: pk, vk: vk}, nil
}

// LoadProver reuses the keys in dir, generating them first when missing.
func LoadProver(dir string) (*Prover, error) {
	if err := EnsureShotKeys(dir); err != nil {
		return nil, err
	}
	vk, pk, err := readKeys(filepath.Join(dir, vkFile), filepath.Join(dir, pkFile))
	if err != nil {
		return nil, err
	}
	cs, err := compileShot()
	if err != nil {
		return nil, err
	}
	return &Prover{cs: cs, pk: pk, vk: vk}, nil
}

func (p *Prover) VerifyingKey() groth16.VerifyingKey { return p.vk }

// Prove one shot.
func (p *Prover) Prove(w ShotWitness) ([]byte, ShotPublic, error) {
	if len(w.Path) != MerkleDepth || len(w.Dir) != MerkleDepth {
		return nil, ShotPublic{}, errors.New("bad path length")
	}
	if w.Salt == nil || w.Root == nil {
		return nil, ShotPublic{}, errors.New("missing salt or root")
	}

	var assign ShotCircuit
	assign.Bit = w.Bit
	assign.Salt = w.Salt
	for i := 0; i < MerkleDepth; i++ {
		assign.Path[i] = w.Path[i]
		assign.Dir[i] = w.Dir[i]
	}
	assign.Root = w.Root
	assign.Index = w.Index
	assign.Hit = w.Bit

	fullWit, err := frontend.NewWitness(&assign, ecc.BN254.ScalarField())
	if err != nil {
		return nil, ShotPublic{}, err
	}
	proof, err := groth16.Prove(p.cs, p.pk, fullWit)
	if err != nil {
		return nil, ShotPublic{}, err
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, ShotPublic{}, err
	}
	pub := ShotPublic{Root: merkle.Hex(w.Root), Index: w.Index, Hit: w.Bit}
	return buf.Bytes(), pub, nil
}

// Verify a shot proof against the expected root. (Verify returns only error; nil => valid)
func VerifyShot(vk groth16.VerifyingKey, proofBin []byte, pub ShotPublic, root *big.Int) (bool, error) {
	if pub.Root == "" {
		return false, errors.New("proof payload missing public root")
	}
	claimed, err := merkle.ParseHex(pub.Root)
	if err != nil {
		return false, fmt.Errorf("public root: %w", err)
	}
	if claimed.Cmp(root) != 0 {
		return false, errors.New("root mismatch: proof root != committed root")
	}
	if pub.Hit > 1 {
		return false, errors.New("invalid hit public output")
	}

	var pubAssign ShotCircuit
	pubAssign.Root = root
	pubAssign.Index = pub.Index
	pubAssign.Hit = pub.Hit

	pubWit, err := frontend.NewWitness(&pubAssign, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, err
	}
	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return false, err
	}
	if err := groth16.Verify(pr, vk, pubWit); err != nil {
		return false, err
	}
	return true, nil
}

// EncodeVerifyingKey serializes vk for shipping to a verifier.
func EncodeVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeVerifyingKey(b []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return vk, nil
}

// ReadVerifyingKey loads the verifying key from a keys directory or a file path.
func ReadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, vkFile)
	}
	return readVK(path)
}

// --- key IO: both key types are io.WriterTo / io.ReaderFrom ---

func writeKey(path string, k io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = k.WriteTo(f)
	return err
}

func readKey(path string, k io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = k.ReadFrom(f)
	return err
}

func readVK(path string) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	return vk, readKey(path, vk)
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readKey(pkPath, pk); err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
