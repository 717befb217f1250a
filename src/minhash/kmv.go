package minhash

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/will-rowe/ntHash"
)

// KMVsketch is the structure for the K-Minimum Values MinHash sketch of a set of k-mers
type KMVsketch struct {
	kmerSize   uint
	sketchSize uint
	heap       *hashHeap
	members    map[uint64]struct{} // hashes currently held in the heap
}

// NewKMVsketch is the constructor for a KMVsketch data structure
func NewKMVsketch(k, s uint) *KMVsketch {
	newSketch := &KMVsketch{
		kmerSize:   k,
		sketchSize: s,
		heap:       &hashHeap{},
		members:    make(map[uint64]struct{}, s),
	}

	// init the heap
	heap.Init(newSketch.heap)
	return newSketch
}

// AddSequence is a method to decompose a sequence to canonical kmers, hash them and add any minimums to the sketch
func (KMVsketch *KMVsketch) AddSequence(sequence []byte) error {

	// check the sequence length
	if len(sequence) < int(KMVsketch.kmerSize) {
		return fmt.Errorf("sequence length (%d) is short than k-mer length (%d)", len(sequence), KMVsketch.kmerSize)
	}

	// initiate the rolling ntHash
	hasher, err := ntHash.New(&sequence, KMVsketch.kmerSize)
	if err != nil {
		return err
	}

	// get hashed kmers from sequence and evaluate
	for hv := range hasher.Hash(CANONICAL) {
		if _, ok := KMVsketch.members[hv]; ok {
			continue
		}

		// if the heap isn't full yet, go ahead and add the hash
		if len(*KMVsketch.heap) < int(KMVsketch.sketchSize) {
			heap.Push(KMVsketch.heap, hv)
			KMVsketch.members[hv] = struct{}{}

			// or if the incoming hash is smaller than the hash at the top of the heap, add the hash and remove the larger one from the heap
		} else if hv < KMVsketch.heap.max() {
			delete(KMVsketch.members, KMVsketch.heap.max())

			// replace the largest value currently in the sketch with the new hash
			(*KMVsketch.heap)[0] = hv
			KMVsketch.members[hv] = struct{}{}

			// re-establish the heap ordering after adding the new hash
			heap.Fix(KMVsketch.heap, 0)
		}
	}
	return nil
}

// Sketch is a method to convert the heap to a Sketch, with hashes sorted in ascending order
func (KMVsketch *KMVsketch) Sketch() *Sketch {
	hashes := make([]uint64, len(*KMVsketch.heap))
	copy(hashes, *KMVsketch.heap)
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return &Sketch{
		KmerSize:   KMVsketch.kmerSize,
		SketchSize: KMVsketch.sketchSize,
		Hashes:     hashes,
	}
}
