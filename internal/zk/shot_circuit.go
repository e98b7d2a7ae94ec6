package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

const MerkleDepth = 7 // 128 leaves, enough for a 10x10 board

// ShotCircuit proves the committed board holds Hit at Index.
type ShotCircuit struct {
	Bit  frontend.Variable              `gnark:",secret"`
	Salt frontend.Variable              `gnark:",secret"`
	Path [MerkleDepth]frontend.Variable `gnark:",secret"`
	Dir  [MerkleDepth]frontend.Variable `gnark:",secret"`

	Root  frontend.Variable `gnark:",public"`
	Index frontend.Variable `gnark:",public"`
	Hit   frontend.Variable `gnark:",public"`
}

func (c *ShotCircuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.Bit)
	api.AssertIsEqual(c.Hit, c.Bit)

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Reset()
	h.Write(c.Bit)
	curr := h.Sum()

	// Dir bits are the leaf index, least significant first
	index := frontend.Variable(0)
	weight := 1
	for i := 0; i < MerkleDepth; i++ {
		isRight := c.Dir[i]
		api.AssertIsBoolean(isRight)
		index = api.Add(index, api.Mul(isRight, weight))
		weight *= 2

		h.Reset()
		left := api.Select(isRight, c.Path[i], curr)
		right := api.Select(isRight, curr, c.Path[i])
		h.Write(left, right)
		curr = h.Sum()
	}
	api.AssertIsEqual(index, c.Index)

	// salted root = MiMC(salt, treeRoot)
	h.Reset()
	h.Write(c.Salt, curr)
	api.AssertIsEqual(h.Sum(), c.Root)
	return nil
}
