//go:build !amd64

package simd

// On non-amd64 builds avx2Kernel is the scalar kernel under another name:
// selectKernel can still pick it on a 386 host that reports AVX2 and FMA,
// and it must exist so dispatch.go compiles on every platform.
type avx2Kernel struct{ scalarKernel }

func (avx2Kernel) Name() string { return "avx2" }
