package camera

import (
	"math"
	"testing"

	"fitResume/internal/config"
	"fitResume/internal/layout"
)

func testCamera() Camera {
	return New(config.DefaultFit())
}

func snapshotWith(key layout.FragmentKey, r layout.Rect) layout.Snapshot {
	return layout.Snapshot{
		PageWidth:     794,
		PageHeight:    1123,
		ContentHeight: 900,
		Fragments:     map[layout.FragmentKey]layout.Rect{key: r},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFallbackWhenUnmeasured(t *testing.T) {
	cam := testCamera()
	key := layout.Key(layout.FragmentSummary, 0)

	cases := []struct {
		name string
		snap layout.Snapshot
		vp   layout.Viewport
		want float64
	}{
		{"desktop no snapshot", layout.Snapshot{}, layout.Viewport{Width: 1280, Height: 800}, 1.1},
		{"mobile no snapshot", layout.Snapshot{}, layout.Viewport{Width: 390, Height: 700}, 0.35},
		{"missing fragment", snapshotWith(layout.Key(layout.FragmentName, 0), layout.Rect{Width: 10, Height: 10}), layout.Viewport{Width: 1280, Height: 800}, 1.1},
		{"zero-size fragment", snapshotWith(key, layout.Rect{Top: 40, Width: 0, Height: 30}), layout.Viewport{Width: 1280, Height: 800}, 1.1},
	}
	for _, tc := range cases {
		got := cam.Compute(key, tc.snap, tc.vp)
		if !got.Fallback || got.Scale != tc.want || got.TranslateY != 0 {
			t.Fatalf("%s: unexpected transform %+v", tc.name, got)
		}
	}
}

func TestScaleUsesTighterAxisAndClamps(t *testing.T) {
	cam := testCamera()
	key := layout.Key(layout.FragmentExperienceBullets, 1)

	cases := []struct {
		name string
		rect layout.Rect
		vp   layout.Viewport
		want float64
	}{
		// 1024*0.85/700 = 1.243 -> 桌面上限 1.1
		{"desktop max clamp", layout.Rect{Top: 300, Width: 700, Height: 100}, layout.Viewport{Width: 1024, Height: 2000}, 1.1},
		// 高度方向更紧：800*0.85/1000 = 0.68
		{"desktop height bound", layout.Rect{Top: 300, Width: 700, Height: 1000}, layout.Viewport{Width: 1200, Height: 800}, 0.68},
		// 800*0.85/2000 = 0.34 -> 桌面下限 0.4
		{"desktop min clamp", layout.Rect{Top: 0, Width: 700, Height: 2000}, layout.Viewport{Width: 1200, Height: 800}, 0.4},
		// 移动端：400*0.85/100 = 3.4 -> 上限 2.5
		{"mobile max clamp", layout.Rect{Top: 0, Width: 100, Height: 50}, layout.Viewport{Width: 400, Height: 700}, 2.5},
		// 移动端：400*0.85/700 = 0.4857
		{"mobile width bound", layout.Rect{Top: 0, Width: 700, Height: 50}, layout.Viewport{Width: 400, Height: 700}, 400 * 0.85 / 700},
	}
	for _, tc := range cases {
		got := cam.Compute(key, snapshotWith(key, tc.rect), tc.vp)
		if got.Fallback || !near(got.Scale, tc.want) {
			t.Fatalf("%s: expected scale %.4f, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestFragmentTopLandsAtViewportCenter(t *testing.T) {
	cam := testCamera()
	key := layout.Key(layout.FragmentEducation, 0)
	vp := layout.Viewport{Width: 1280, Height: 900}

	for _, top := range []float64{0, 120, 561.5, 800, 1100} {
		rect := layout.Rect{Top: top, Width: 680, Height: 90}
		snap := snapshotWith(key, rect)
		got := cam.Compute(key, snap, vp)

		// 文档以视口中心为原点缩放；区域顶边的屏幕坐标：
		docCenter := snap.DocumentHeight() / 2
		screenTop := vp.Height/2 + got.TranslateY + (top-docCenter)*got.Scale
		if !near(screenTop, vp.Height/2) {
			t.Fatalf("top %.1f: fragment top at %.3f, want %.3f", top, screenTop, vp.Height/2)
		}
		mid := screenTop + rect.Height*got.Scale/2
		if !near(mid-vp.Height/2, rect.Height*got.Scale/2) {
			t.Fatalf("top %.1f: fragment center off by %.3f", top, mid-vp.Height/2)
		}
	}
}

func TestComputeIsPure(t *testing.T) {
	cam := testCamera()
	key := layout.Key(layout.FragmentSkills, 0)
	snap := snapshotWith(key, layout.Rect{Top: 700, Width: 680, Height: 60})
	vp := layout.Viewport{Width: 1440, Height: 900}

	first := cam.Compute(key, snap, vp)
	for i := 0; i < 3; i++ {
		if got := cam.Compute(key, snap, vp); got != first {
			t.Fatalf("call %d returned %+v, want %+v", i, got, first)
		}
	}
}

func TestContentTallerThanPageUsesContentHeight(t *testing.T) {
	cam := testCamera()
	key := layout.Key(layout.FragmentName, 0)
	snap := snapshotWith(key, layout.Rect{Top: 0, Width: 680, Height: 60})
	snap.ContentHeight = 1400

	got := cam.Compute(key, snap, layout.Viewport{Width: 1280, Height: 900})
	if !near(got.TranslateY, 700*got.Scale) {
		t.Fatalf("expected translate %.3f, got %.3f", 700*got.Scale, got.TranslateY)
	}
}

func TestPreviewScale(t *testing.T) {
	if got := PreviewScale(1300, 1123); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := PreviewScale(600, 1123); !near(got, 536.0/1123) {
		t.Fatalf("unexpected preview scale %v", got)
	}
}
