package stringtable

import (
	"fmt"
	"sort"
)

// fnv32Key is the 32-bit FNV prime, doubling as the seed for displacement 0.
const fnv32Key = 0x01000193

// fnv32Hash computes a family of hash functions over bs, one per value of d.
// d == 0 selects the base function.
func fnv32Hash(d uint32, bs []byte) uint32 {
	if d == 0 {
		d = fnv32Key
	}
	for _, b := range bs {
		d = (d * fnv32Key) ^ uint32(b)
	}
	return d
}

// ErrHashGeneration is returned when no displacement assignment could be
// found within the iteration budget.
type ErrHashGeneration struct {
	Iterations int
}

func (e *ErrHashGeneration) Error() string {
	return fmt.Sprintf("minimal perfect hash generation failed after %d iterations", e.Iterations)
}

// createMinimalPerfectHash builds a minimal perfect hash table over the keys
// of dct. It returns two parallel arrays: gs holds per-bucket displacements
// (negative values encode a direct slot as -slot-1), vs holds the mapped
// values. Construction follows Hanov's CHD-style algorithm: bucket the keys
// by the base hash, place the largest buckets first by searching for a
// displacement that lands every member in a free slot, then drop the
// singleton buckets into the remaining free slots directly.
func createMinimalPerfectHash(dct map[string]int32, maxIterations int) (gs, vs []int32, err error) {
	if len(dct) == 0 {
		return nil, nil, fmt.Errorf("empty table")
	}

	size := len(dct)
	buckets := make([][]string, size)
	gs = make([]int32, size)
	vs = make([]int32, size)
	used := make([]bool, size)

	for key := range dct {
		b := int(fnv32Hash(0, []byte(key)) % uint32(size))
		buckets[b] = append(buckets[b], key)
	}
	// Determinism: bucket contents come from map iteration.
	for _, bucket := range buckets {
		sort.Strings(bucket)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return len(buckets[i]) > len(buckets[j])
	})

	bi := 0
	for ; bi < size; bi++ {
		bucket := buckets[bi]
		if len(bucket) <= 1 {
			break
		}

		d := uint32(1)
		item := 0
		var slots []int

		for item < len(bucket) {
			slot := int(fnv32Hash(d, []byte(bucket[item])) % uint32(size))
			if used[slot] || intsContain(slots, slot) {
				d++
				if int(d) >= maxIterations {
					return nil, nil, &ErrHashGeneration{Iterations: maxIterations}
				}
				item = 0
				slots = slots[:0]
			} else {
				slots = append(slots, slot)
				item++
			}
		}

		gs[fnv32Hash(0, []byte(bucket[0]))%uint32(size)] = int32(d)
		for i, key := range bucket {
			vs[slots[i]] = dct[key]
			used[slots[i]] = true
		}
	}

	var freelist []int
	for i := 0; i < size; i++ {
		if !used[i] {
			freelist = append(freelist, i)
		}
	}

	for ; bi < size; bi++ {
		bucket := buckets[bi]
		if len(bucket) == 0 {
			break
		}
		slot := freelist[len(freelist)-1]
		freelist = freelist[:len(freelist)-1]
		// Subtract one so the marker is negative even for slot zero.
		gs[fnv32Hash(0, []byte(bucket[0]))%uint32(size)] = int32(-slot - 1)
		vs[slot] = dct[bucket[0]]
		used[slot] = true
	}

	return gs, vs, nil
}

func intsContain(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// lookupMinimalPerfectHash resolves key against the gs/vs arrays. The result
// is only meaningful for keys that were present at construction; callers must
// verify the key at the returned index.
func lookupMinimalPerfectHash(gs, vs []int32, key []byte) int32 {
	d := gs[fnv32Hash(0, key)%uint32(len(gs))]
	if d < 0 {
		return vs[-d-1]
	}
	return vs[fnv32Hash(uint32(d), key)%uint32(len(vs))]
}

// verifyMinimalPerfectHash confirms every entry of dct resolves to its value.
func verifyMinimalPerfectHash(gs, vs []int32, dct map[string]int32) error {
	for k, want := range dct {
		got := lookupMinimalPerfectHash(gs, vs, []byte(k))
		if got != want {
			return fmt.Errorf("hash verification failed for %q: got %d, want %d", k, got, want)
		}
	}
	return nil
}
