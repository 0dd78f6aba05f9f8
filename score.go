package logofy

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Score rates pix (tightly packed non-premultiplied RGBA, 4 bytes per pixel)
// from 0 to 100 using DefaultPolicy.
func Score(pix []uint8, width, height int) int {
	return DefaultPolicy().Score(pix, width, height)
}

// ScoreImage converts img to RGBA and scores it with DefaultPolicy.
func ScoreImage(img image.Image) int {
	return DefaultPolicy().ScoreImage(img)
}

// ScoreImage converts img to a raster of its own and scores it.
func (p ScoringPolicy) ScoreImage(img image.Image) int {
	nrgba := toNRGBA(img)
	b := nrgba.Bounds()
	return p.Score(nrgba.Pix, b.Dx(), b.Dy())
}

// scoreEpsilon absorbs float error so whole-number sums do not round up.
const scoreEpsilon = 1e-9

// Score is a pure function of its inputs:
//
//  1. either side below MinDimension → 0
//  2. sample every SampleStride bytes; non-transparent samples are bucketed
//     per channel by BucketSize
//  3. + DiversityWeight * min(buckets/DiversityBuckets, 1)
//  4. − MonochromePenalty when buckets < MonochromeBuckets
//  5. + SizeWeight * min(w*h/SizeNormalizer, 1)
//  6. + TransparencyBonus when any sample has alpha < 255
//  7. − AspectPenalty when min(w,h)/max(w,h) < MinAspectRatio
//  8. round up and clamp to [0, 100], so score > T holds exactly when the
//     unrounded score exceeds an integer threshold T
func (p ScoringPolicy) Score(pix []uint8, width, height int) int {
	if width < p.MinDimension || height < p.MinDimension {
		return 0
	}
	stride := p.SampleStride
	if stride < 4 {
		stride = 4
	}
	bucket := p.BucketSize
	if bucket <= 0 {
		bucket = 1
	}

	buckets := make(map[[3]uint8]struct{})
	transparent := false
	for i := 0; i+3 < len(pix); i += stride {
		a := pix[i+3]
		if a < 255 {
			transparent = true
		}
		if a == 0 {
			continue
		}
		key := [3]uint8{
			uint8(int(pix[i]) / bucket),
			uint8(int(pix[i+1]) / bucket),
			uint8(int(pix[i+2]) / bucket),
		}
		buckets[key] = struct{}{}
	}

	score := 0.0
	unique := len(buckets)
	if p.DiversityBuckets > 0 {
		score += math.Min(float64(unique)/float64(p.DiversityBuckets), 1) * p.DiversityWeight
	}
	if unique < p.MonochromeBuckets {
		score -= p.MonochromePenalty
	}
	if p.SizeNormalizer > 0 {
		score += math.Min(float64(width*height)/float64(p.SizeNormalizer), 1) * p.SizeWeight
	}
	if transparent {
		score += p.TransparencyBonus
	}
	aspect := float64(min(width, height)) / float64(max(width, height))
	if aspect < p.MinAspectRatio {
		score -= p.AspectPenalty
	}

	return clampScore(int(math.Ceil(score - scoreEpsilon)))
}

// FallbackScoreFor is the coarse size-only estimate used when an image's
// dimensions are known but its pixels could not be decoded.
func (p ScoringPolicy) FallbackScoreFor(width, height int) int {
	if width >= p.FallbackMinDimension && height >= p.FallbackMinDimension {
		return clampScore(p.FallbackScore)
	}
	return clampScore(p.FallbackLowScore)
}

func clampScore(s int) int {
	return max(0, min(100, s))
}

// toNRGBA copies img into a fresh, zero-origin, tightly packed NRGBA raster.
// Each call allocates its own surface, so concurrent probes never share one.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
