package density

import (
	"errors"
	"fmt"
)

// Preset 是一组不可变的排版尺寸。字号单位为 pt，间距单位为 px，PagePadding 单位为 mm。
type Preset struct {
	ID                string  `json:"id"`
	FontSize          float64 `json:"fontSize"`
	HeaderSize        float64 `json:"headerSize"`
	RoleSize          float64 `json:"roleSize"`
	SectionHeaderSize float64 `json:"sectionHeaderSize"`
	SectionMargin     float64 `json:"sectionMargin"`
	ItemMargin        float64 `json:"itemMargin"`
	LineHeight        float64 `json:"lineHeight"`
	PagePadding       float64 `json:"pagePadding"`
	Gap               float64 `json:"gap"`
}

// Ladder 是按密度从低到高排列的预设序列，搜索顺序即为序列顺序。
type Ladder struct {
	presets []Preset
	index   map[string]int
}

var (
	ErrTooShort     = errors.New("density ladder needs at least two presets")
	ErrNotMonotonic = errors.New("density ladder must not grow denser fields back")
	ErrDuplicateID  = errors.New("duplicate preset id")
	ErrUnknownID    = errors.New("unknown preset id")
)

// Standard 是默认的四级阶梯：standard / compact / dense / ultra-dense。
var Standard = MustNew(
	Preset{ID: "standard", FontSize: 10, HeaderSize: 28, RoleSize: 12, SectionHeaderSize: 11, SectionMargin: 24, ItemMargin: 8, LineHeight: 1.5, PagePadding: 20, Gap: 8},
	Preset{ID: "compact", FontSize: 9.5, HeaderSize: 24, RoleSize: 11, SectionHeaderSize: 10.5, SectionMargin: 16, ItemMargin: 6, LineHeight: 1.4, PagePadding: 18, Gap: 6},
	Preset{ID: "dense", FontSize: 9, HeaderSize: 22, RoleSize: 10.5, SectionHeaderSize: 10, SectionMargin: 12, ItemMargin: 4, LineHeight: 1.35, PagePadding: 15, Gap: 4},
	Preset{ID: "ultra-dense", FontSize: 8.5, HeaderSize: 20, RoleSize: 10, SectionHeaderSize: 9.5, SectionMargin: 8, ItemMargin: 3, LineHeight: 1.3, PagePadding: 12, Gap: 3},
)

// New 校验并构造阶梯：至少两级、ID 唯一，且每个尺寸字段随下标严格递减。
func New(presets ...Preset) (*Ladder, error) {
	if len(presets) < 2 {
		return nil, ErrTooShort
	}
	l := &Ladder{
		presets: append([]Preset{}, presets...),
		index:   make(map[string]int, len(presets)),
	}
	for i, p := range presets {
		if _, dup := l.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		l.index[p.ID] = i
		if i == 0 {
			continue
		}
		if !denser(presets[i-1], p) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrNotMonotonic, presets[i-1].ID, p.ID)
		}
	}
	return l, nil
}

// MustNew wraps New and panics on an invalid ladder.
func MustNew(presets ...Preset) *Ladder {
	l, err := New(presets...)
	if err != nil {
		panic(err)
	}
	return l
}

func denser(prev, next Preset) bool {
	pairs := [][2]float64{
		{prev.FontSize, next.FontSize},
		{prev.HeaderSize, next.HeaderSize},
		{prev.RoleSize, next.RoleSize},
		{prev.SectionHeaderSize, next.SectionHeaderSize},
		{prev.SectionMargin, next.SectionMargin},
		{prev.ItemMargin, next.ItemMargin},
		{prev.LineHeight, next.LineHeight},
		{prev.PagePadding, next.PagePadding},
		{prev.Gap, next.Gap},
	}
	for _, p := range pairs {
		if p[1] >= p[0] {
			return false
		}
	}
	return true
}

// Len 返回阶梯长度。
func (l *Ladder) Len() int { return len(l.presets) }

// At 返回第 i 级预设，越界时截断到合法范围。
func (l *Ladder) At(i int) Preset {
	return l.presets[l.Clamp(i)]
}

// Clamp 将下标限制在 [0, Len-1]。
func (l *Ladder) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(l.presets) {
		return len(l.presets) - 1
	}
	return i
}

// IndexOf 返回预设 ID 的下标。
func (l *Ladder) IndexOf(id string) (int, error) {
	i, ok := l.index[id]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return i, nil
}

// Presets 返回预设副本。
func (l *Ladder) Presets() []Preset {
	return append([]Preset{}, l.presets...)
}

// Last 返回最密集一级的下标。
func (l *Ladder) Last() int { return len(l.presets) - 1 }
