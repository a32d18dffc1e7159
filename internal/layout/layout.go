// Package layout 定义渲染层与排版控制器、镜头之间交换的测量快照。
package layout

import "fmt"

// Fragment 是文档中可寻址区域的类型。
type Fragment string

const (
	FragmentName              Fragment = "name"
	FragmentContact           Fragment = "contact"
	FragmentSummary           Fragment = "summary"
	FragmentExperienceHeader  Fragment = "experience-header"
	FragmentExperienceBullets Fragment = "experience-bullets"
	FragmentEducation         Fragment = "education"
	FragmentSkills            Fragment = "skills"
)

// Repeating reports whether the fragment belongs to a repeating section and
// therefore needs an entry index.
func (f Fragment) Repeating() bool {
	switch f {
	case FragmentExperienceHeader, FragmentExperienceBullets, FragmentEducation:
		return true
	}
	return false
}

// Valid 判断是否为已知的区域类型。
func (f Fragment) Valid() bool {
	switch f {
	case FragmentName, FragmentContact, FragmentSummary, FragmentExperienceHeader,
		FragmentExperienceBullets, FragmentEducation, FragmentSkills:
		return true
	}
	return false
}

// FragmentKey 由区域类型与（可重复区块的）条目下标组成。
type FragmentKey struct {
	Fragment Fragment `json:"fragment"`
	Index    int      `json:"index"`
}

// Key 构造 FragmentKey；非重复区块的下标恒为 0。
func Key(f Fragment, index int) FragmentKey {
	if !f.Repeating() {
		index = 0
	}
	return FragmentKey{Fragment: f, Index: index}
}

func (k FragmentKey) String() string {
	if k.Fragment.Repeating() {
		return fmt.Sprintf("%s-%d", k.Fragment, k.Index)
	}
	return string(k.Fragment)
}

// Rect 是区域在未缩放文档坐标中的位置与尺寸（px）。
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rect has no measurable area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Snapshot 是一次测量的结果：页面容器、内容盒以及各区域的位置。
type Snapshot struct {
	PresetID      string               `json:"presetId"`
	PageWidth     float64              `json:"pageWidth"`
	PageHeight    float64              `json:"pageHeight"`
	ContentHeight float64              `json:"contentHeight"`
	Fragments     map[FragmentKey]Rect `json:"-"`
}

// Fragment 返回区域矩形；区域不存在或尺寸为 0 时 ok 为 false。
func (s Snapshot) Fragment(key FragmentKey) (Rect, bool) {
	r, ok := s.Fragments[key]
	if !ok || r.Empty() {
		return Rect{}, false
	}
	return r, true
}

// DocumentHeight 返回文档容器高度：页面高度与内容高度的较大者。
func (s Snapshot) DocumentHeight() float64 {
	if s.ContentHeight > s.PageHeight {
		return s.ContentHeight
	}
	return s.PageHeight
}

// Measured reports whether the document container has a non-zero size.
func (s Snapshot) Measured() bool {
	return s.PageWidth > 0 && s.PageHeight > 0
}

// Viewport 是预览区域的可用尺寸（px）。
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
