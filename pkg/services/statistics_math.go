package services

import (
	"errors"
	"math"
	"sort"
)

var errConstantSeries = errors.New("分散が0の系列です")

// pearson はピアソンの積率相関係数を返します。
func pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, errors.New("データ系列の長さが一致しないか、空です")
	}
	mx, my := calculateMean(x), calculateMean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, errConstantSeries
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), nil
}

// correlationPValue は無相関検定の両側p値です。
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	p := 2 * (1 - studentTCDF(math.Abs(t), df))
	return math.Max(0, math.Min(1, p))
}

// studentTCDF はt分布の累積分布関数です。
// t>0 で 1 - I_{v/(v+t²)}(v/2, 1/2)/2 の関係を使います。
func studentTCDF(t, df float64) float64 {
	if t == 0 {
		return 0.5
	}
	ib := regularizedIncompleteBeta(df/2, 0.5, df/(df+t*t))
	if t > 0 {
		return 1 - ib/2
	}
	return ib / 2
}

// regularizedIncompleteBeta は正則化不完全ベータ関数 I_x(a,b) です。
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	front := math.Exp(lab - la - lb + a*math.Log(x) + b*math.Log1p(-x))
	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction は修正Lentz法で連分数を評価します。
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIter = 300
		eps     = 1e-12
		tiny    = 1e-300
	)
	clamp := func(v float64) float64 {
		if math.Abs(v) < tiny {
			return tiny
		}
		return v
	}

	qab, qap, qam := a+b, a+1, a-1
	c := 1.0
	d := 1 / clamp(1-qab*x/qap)
	h := d
	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 / clamp(1+aa*d)
		c = clamp(1 + aa/c)
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 / clamp(1+aa*d)
		c = clamp(1 + aa/c)
		delta := d * c
		h *= delta
		if math.Abs(delta-1) < eps {
			break
		}
	}
	return h
}

// adjustPValuesBH はBenjamini-Hochberg法でp値を補正します。戻り値は入力と同じ順序です。
func adjustPValuesBH(pvals []float64) []float64 {
	n := len(pvals)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return pvals[order[i]] < pvals[order[j]] })

	out := make([]float64, n)
	prev := 1.0
	for rank := n; rank >= 1; rank-- {
		idx := order[rank-1]
		v := math.Min(prev, pvals[idx]*float64(n)/float64(rank))
		out[idx] = v
		prev = v
	}
	return out
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStandardDeviation 母標準偏差
func calculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := calculateMean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
