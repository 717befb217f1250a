package minhash

// hashHeap keeps the largest hash of a bottom-k sketch at index 0, for container/heap
type hashHeap []uint64

func (h hashHeap) Len() int           { return len(h) }
func (h hashHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h hashHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// max is the hash that the next smaller one evicts
func (h hashHeap) max() uint64 { return h[0] }

func (h *hashHeap) Push(x interface{}) {
	*h = append(*h, x.(uint64))
}

func (h *hashHeap) Pop() interface{} {
	last := (*h)[len(*h)-1]
	*h = (*h)[:len(*h)-1]
	return last
}
