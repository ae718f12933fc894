package audio

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FFT is a radix-2 forward transform of a fixed length. It reuses an
// internal buffer, so one FFT must not be used from two goroutines.
type FFT struct {
	bitReverseTable []int
	wTable          []complex128
	buf             []complex128
}

// NewFFT panics unless length is a power of two.
func NewFFT(length int) *FFT {
	if length <= 0 || length&(length-1) != 0 {
		panic(fmt.Sprintf("FFT length should be a power of two: %v", length))
	}
	return &FFT{
		bitReverseTable: makeBitReverseTable(length),
		wTable:          makeWTable(length),
		buf:             make([]complex128, length),
	}
}
func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}
func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}
func makeWTable(n int) []complex128 {
	array := make([]complex128, n)
	w := -2.0 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		array[i] = cmplx.Exp(complex(0, w*float64(i)))
	}
	return array
}

// Calc transforms x in place. len(x) must equal the FFT length.
func (fft *FFT) Calc(x []complex128) {
	n := len(x)
	if n != len(fft.bitReverseTable) {
		panic(fmt.Sprintf("length should be %v", len(fft.bitReverseTable)))
	}
	for i := 0; i < n; i++ {
		rev := fft.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			w := fft.wTable[n/step*k]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
}

// CalcReal replaces x with the real part of its transform.
func (fft *FFT) CalcReal(x []float64) {
	fft.load(x)
	for i := range x {
		x[i] = real(fft.buf[i])
	}
}

// CalcAbs replaces x with the magnitude of its transform.
func (fft *FFT) CalcAbs(x []float64) {
	fft.load(x)
	for i := range x {
		x[i] = cmplx.Abs(fft.buf[i])
	}
}

func (fft *FFT) load(x []float64) {
	if len(x) != len(fft.buf) {
		panic(fmt.Sprintf("length should be %v", len(fft.buf)))
	}
	for i, value := range x {
		fft.buf[i] = complex(value, 0)
	}
	fft.Calc(fft.buf)
}
