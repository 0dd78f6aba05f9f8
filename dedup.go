package logofy

import (
	"image"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which logos are considered perceptually identical. The same mark is
// commonly served by several providers at different sizes.
const dedupThreshold = 10

// perceptualHash returns the dHash of img. ok is false if hashing failed.
func perceptualHash(img image.Image) (hash uint64, ok bool) {
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, false
	}
	return h.GetHash(), true
}

// dedupFilter remembers hashes of logos already kept. Not safe for
// concurrent use; Distinct runs after the probe batch has joined.
type dedupFilter struct {
	hashes []*goimagehash.ImageHash
}

// isDuplicate reports whether r looks like a logo already seen. Results
// without a hash are never duplicates. Unique hashes are remembered.
func (d *dedupFilter) isDuplicate(r ProbeResult) bool {
	if !r.Hashed {
		return false
	}
	hash := goimagehash.NewImageHash(r.Hash, goimagehash.DHash)
	for _, h := range d.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < dedupThreshold {
			return true
		}
	}
	d.hashes = append(d.hashes, hash)
	return false
}

// Distinct drops results that are perceptual duplicates of an earlier one,
// preserving order. Pass a ranked slice to keep the best copy of each logo.
func Distinct(results []ProbeResult) []ProbeResult {
	d := &dedupFilter{}
	out := make([]ProbeResult, 0, len(results))
	for _, r := range results {
		if d.isDuplicate(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
