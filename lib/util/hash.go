package util

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString hashes s with FNV-1a, mixing seed into the offset basis.
// The result is stable across processes and platforms.
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

// Bucket maps s onto one of n buckets. n must be positive.
func Bucket(s string, n int) int {
	return int(HashString(s, 0) % uint64(n))
}
