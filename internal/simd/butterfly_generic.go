//go:build !arm64 && !amd64

// Package simd hosts numeric inner loops: the butterfly combine step
// here, which feature.fft's radix-2 FFT runs for every frame, and the
// Mahalanobis distance accumulator in simd_generic.go, which nothing in
// this module calls. Both have a portable Go
// fallback (this file and simd_generic.go) and an assembly-backed path
// on arm64/amd64 (butterfly_asm.go, simd_asm.go).
package simd

// ButterflyBlock performs FFT butterfly operations on split real/imaginary arrays.
// feature.fft calls this once per butterfly block of every stage of the
// Cooley-Tukey recursion.
// For k in 0..len(uRe)-1:
//
//	t_re = twRe[k]*vRe[k] - twIm[k]*vIm[k]
//	t_im = twRe[k]*vIm[k] + twIm[k]*vRe[k]
//	uRe[k], vRe[k] = uRe[k]+t_re, uRe[k]-t_re
//	uIm[k], vIm[k] = uIm[k]+t_im, uIm[k]-t_im
func ButterflyBlock(uRe, uIm, vRe, vIm, twRe, twIm []float64) {
	for k := range uRe {
		tre := twRe[k]*vRe[k] - twIm[k]*vIm[k]
		tim := twRe[k]*vIm[k] + twIm[k]*vRe[k]
		ur := uRe[k]
		ui := uIm[k]
		uRe[k] = ur + tre
		uIm[k] = ui + tim
		vRe[k] = ur - tre
		vIm[k] = ui - tim
	}
}
