// Package camera 计算把某个文档区域居中放大到预览视口所需的缩放与平移。
package camera

import (
	"math"

	"fitResume/internal/config"
	"fitResume/internal/layout"
)

// Transform 是应用到整个文档上的缩放与纵向平移（px）。
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateY float64 `json:"translateY"`
	Fallback   bool    `json:"fallback"`
}

// Platform 描述一类视口的缩放范围与兜底值。
type Platform struct {
	MinScale      float64
	MaxScale      float64
	FallbackScale float64
}

// Camera 保存经验常量，本身无状态，Compute 是纯函数。
type Camera struct {
	PaddingFraction   float64
	DesktopBreakpoint float64
	Desktop           Platform
	Mobile            Platform
}

// New 由配置构造 Camera。
func New(cfg config.FitConfig) Camera {
	return Camera{
		PaddingFraction:   cfg.PaddingFraction,
		DesktopBreakpoint: cfg.DesktopBreakpointPx,
		Desktop: Platform{
			MinScale:      cfg.DesktopMinScale,
			MaxScale:      cfg.DesktopMaxScale,
			FallbackScale: cfg.DesktopFallbackScale,
		},
		Mobile: Platform{
			MinScale:      cfg.MobileMinScale,
			MaxScale:      cfg.MobileMaxScale,
			FallbackScale: cfg.MobileFallbackScale,
		},
	}
}

// Platform 根据视口宽度选择桌面或移动端参数。
func (c Camera) Platform(vp layout.Viewport) Platform {
	if vp.Width >= c.DesktopBreakpoint {
		return c.Desktop
	}
	return c.Mobile
}

// Compute 让区域顶边落在视口中心，并在两个方向上留出 padding。
// 区域或文档无法测量时返回兜底缩放且不平移。
func (c Camera) Compute(key layout.FragmentKey, snap layout.Snapshot, vp layout.Viewport) Transform {
	platform := c.Platform(vp)
	fallback := Transform{Scale: platform.FallbackScale, Fallback: true}

	if !snap.Measured() || vp.Width <= 0 || vp.Height <= 0 {
		return fallback
	}
	frag, ok := snap.Fragment(key)
	if !ok {
		return fallback
	}

	scaleByWidth := vp.Width * c.PaddingFraction / frag.Width
	scaleByHeight := vp.Height * c.PaddingFraction / frag.Height
	scale := math.Min(scaleByWidth, scaleByHeight)
	scale = math.Min(scale, platform.MaxScale)
	scale = math.Max(scale, platform.MinScale)

	fromCenter := frag.Top - snap.DocumentHeight()/2
	return Transform{Scale: scale, TranslateY: -fromCenter * scale}
}

// PreviewScale 是整页预览模式下的缩放：上下各留 32px，不超过 1。
func PreviewScale(viewportHeight, pageHeight float64) float64 {
	if pageHeight <= 0 || viewportHeight <= 64 {
		return 1
	}
	return math.Min((viewportHeight-64)/pageHeight, 1)
}
