// Package minhash contains a bottom-k (KMV) MinHash implementation built on the nthash rolling hash
// function, along with the estimators used to turn a pair of sketches into an ANI.
package minhash

// CANONICAL tell nthash to return the canonical k-mer (this is used in the KMV sketch)
const CANONICAL bool = true

// MaxKmerSize is the largest k-mer the ntHash rolling hash supports
const MaxKmerSize = 31
