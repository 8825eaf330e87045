//go:build !darwin || !cgo

// Package blas provides the matrix-multiply primitive scorer.Net uses to
// evaluate each feed-forward layer's weight matrix against a batch of
// frames. This file is the portable fallback; blas_darwin.go dispatches
// to Apple's Accelerate framework instead when built with cgo on darwin.
package blas

// Dgemm performs C = alpha*op(A)*op(B) + beta*C in pure Go.
// All matrices are row-major. op(X) = X if trans=false, X^T if trans=true.
// Triple-nested loop, no blocking or vectorization: correct but not
// competitive with Accelerate for large batches.
func Dgemm(transA, transB bool, m, n, k int,
	alpha float64, a []float64, lda int,
	b []float64, ldb int,
	beta float64, c []float64, ldc int) {

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				var aVal, bVal float64
				if transA {
					aVal = a[p*lda+i]
				} else {
					aVal = a[i*lda+p]
				}
				if transB {
					bVal = b[j*ldb+p]
				} else {
					bVal = b[p*ldb+j]
				}
				sum += aVal * bVal
			}
			c[i*ldc+j] = alpha*sum + beta*c[i*ldc+j]
		}
	}
}

// HasAccelerate returns false on non-darwin platforms.
func HasAccelerate() bool { return false }
