package fit

import "errors"

// DefaultEpsilonPx 吸收渲染层的亚像素抖动。
const DefaultEpsilonPx = 2.0

var ErrInvalidEpsilon = errors.New("epsilon must be positive")

// Prober 判断内容是否超出页面高度。
type Prober struct {
	epsilon float64
}

// NewProber 创建 Prober；epsilon 必须大于 0。
func NewProber(epsilon float64) (Prober, error) {
	if epsilon <= 0 {
		return Prober{}, ErrInvalidEpsilon
	}
	return Prober{epsilon: epsilon}, nil
}

// Epsilon 返回容差。
func (p Prober) Epsilon() float64 { return p.epsilon }

// Overflowing 仅当内容超出页面高度超过 epsilon 时返回 true。
// 内容恰好等于页面高度，或只超出不到 epsilon，都视为放得下。
func (p Prober) Overflowing(contentPx, pagePx float64) bool {
	return contentPx-pagePx > p.epsilon
}
