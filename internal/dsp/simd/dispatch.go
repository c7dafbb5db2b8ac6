package simd

import "golang.org/x/sys/cpu"

// Default is the kernel set every caller uses; it is selected once here at
// package init, never re-checked per call.
var Default Kernel = selectKernel()

func selectKernel() Kernel {
	if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
		return avx2Kernel{}
	}
	return scalarKernel{}
}
