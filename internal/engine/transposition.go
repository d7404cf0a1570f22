package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// bucketSize is the number of slots probed per index on a collision.
// Two full-key slots per bucket trade a little memory for a much
// better fit than one entry per index: a shallow, stale entry doesn't
// have to evict a deep one it never collides with in the bucket.
const bucketSize = 2

// ttSlot is one bucket slot. Key is the full 64-bit Zobrist hash, not
// just its upper bits, so two different positions sharing an index
// can never be mistaken for one another.
type ttSlot struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Eval     int16
	Depth    int8
	Flag     TTFlag
	Age      uint8
}

// TranspositionTable is a bucketed hash table for storing search results.
type TranspositionTable struct {
	buckets [][bucketSize]ttSlot
	size    uint64
	mask    uint64
	age     uint8

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	slotSize := uint64(24) // approximate sizeof(ttSlot)
	numBuckets := (uint64(sizeMB) * 1024 * 1024) / (slotSize * bucketSize)
	numBuckets = roundDownToPowerOf2(numBuckets)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &TranspositionTable{
		buckets: make([][bucketSize]ttSlot, numBuckets),
		size:    numBuckets,
		mask:    numBuckets - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// TTEntry is the caller-facing view of a probed slot.
type TTEntry struct {
	BestMove board.Move
	Score    int
	Eval     int
	Depth    int
	Flag     TTFlag
}

// Probe looks up a position in the transposition table, scanning the
// whole bucket for a matching full key.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	bucket := &tt.buckets[hash&tt.mask]
	for i := range bucket {
		slot := &bucket[i]
		if slot.Key == hash {
			tt.hits++
			return TTEntry{
				BestMove: slot.BestMove,
				Score:    int(slot.Score),
				Eval:     int(slot.Eval),
				Depth:    int(slot.Depth),
				Flag:     slot.Flag,
			}, true
		}
	}

	return TTEntry{}, false
}

// Store saves a position in the transposition table. Within a bucket it
// prefers, in order: an empty slot, the matching key (always refreshed
// unless the existing entry is both deeper and we're not storing an
// exact bound), and otherwise the shallowest entry in the bucket.
func (tt *TranspositionTable) Store(hash uint64, depth int, score, eval int, flag TTFlag, bestMove board.Move) {
	bucket := &tt.buckets[hash&tt.mask]

	replace := 0
	replaceDepth := int(^uint8(0)>>1) + 1 // max int8 + 1, unreachable depth
	found := false

	for i := range bucket {
		slot := &bucket[i]
		if slot.Key == 0 {
			replace = i
			found = true
			break
		}
		if slot.Key == hash {
			if int(slot.Depth) > depth && flag != TTExact {
				return
			}
			replace = i
			found = true
			break
		}
		if int(slot.Depth) < replaceDepth {
			replaceDepth = int(slot.Depth)
			replace = i
		}
	}
	_ = found

	slot := &bucket[replace]
	slot.Key = hash
	slot.BestMove = bestMove
	slot.Score = int16(score)
	slot.Eval = int16(eval)
	slot.Depth = int8(depth)
	slot.Flag = flag
	slot.Age = tt.age
}

// NewSearch increments the age counter for a new search.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.buckets {
		tt.buckets[i] = [bucketSize]ttSlot{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		for _, slot := range tt.buckets[i] {
			if slot.Depth > 0 && slot.Age == tt.age {
				used++
				break
			}
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of buckets in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT adjusts a score read from the transposition table.
// Mate scores need to be adjusted based on ply distance.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
