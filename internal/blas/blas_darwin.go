//go:build darwin && cgo

// This build of the blas package backs scorer.Net's layer matmuls with
// Apple's Accelerate framework (the AMX coprocessor) instead of the pure
// Go loop in blas_generic.go, for servers running the sttd daemon on
// Apple silicon.
package blas

/*
#cgo CFLAGS: -DACCELERATE_NEW_LAPACK
#cgo LDFLAGS: -framework Accelerate
#include <Accelerate/Accelerate.h>
*/
import "C"
import "unsafe"

// Dgemm performs C = alpha*op(A)*op(B) + beta*C using Apple Accelerate (AMX).
// All matrices are row-major. op(X) = X if trans=false, X^T if trans=true.
// A is (m x k) or (k x m) if transA, B is (k x n) or (n x k) if transB, C is (m x n).
// Same contract as blas_generic.go's fallback; only the implementation differs.
func Dgemm(transA, transB bool, m, n, k int,
	alpha float64, a []float64, lda int,
	b []float64, ldb int,
	beta float64, c []float64, ldc int) {

	var ta, tb C.enum_CBLAS_TRANSPOSE
	if transA {
		ta = C.CblasTrans
	} else {
		ta = C.CblasNoTrans
	}
	if transB {
		tb = C.CblasTrans
	} else {
		tb = C.CblasNoTrans
	}

	C.cblas_dgemm(C.CblasRowMajor, ta, tb,
		C.int(m), C.int(n), C.int(k),
		C.double(alpha),
		(*C.double)(unsafe.Pointer(&a[0])), C.int(lda),
		(*C.double)(unsafe.Pointer(&b[0])), C.int(ldb),
		C.double(beta),
		(*C.double)(unsafe.Pointer(&c[0])), C.int(ldc))
}

// HasAccelerate returns true when Apple Accelerate framework is available.
func HasAccelerate() bool { return true }
