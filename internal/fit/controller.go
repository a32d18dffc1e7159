package fit

import (
	"errors"
	"fmt"
)

// Status 描述控制器当前所处的阶段。
type Status string

const (
	StatusSearching     Status = "searching"
	StatusFitting       Status = "fitting"
	StatusOverflowing   Status = "overflowing"
	StatusOverflowAtMax Status = "overflow-at-max"
)

var ErrBelowValidFloor = errors.New("preset below valid floor")

// ErrPresetOutOfRange 表示手动选择的下标不在阶梯范围内。
var ErrPresetOutOfRange = errors.New("preset index out of range")

// State 是自动排版的完整状态，各阶段由这四个字段唯一确定。
type State struct {
	Current  int  `json:"currentPresetIndex"`
	MinValid int  `json:"minValidPresetIndex"`
	Settled  bool `json:"settled"`
	Auto     bool `json:"autoEnabled"`
}

// Decision 是一次探测后的处理结果。
type Decision struct {
	Previous State
	State    State
	// Switched 为 true 时调用方需在下一帧以新预设重新测量。
	Switched bool
	Status   Status
}

// Controller 维护当前预设、有效下限与是否已稳定，只响应测量结果与显式事件。
// Controller 不是并发安全的，由会话的单一所有者驱动。
type Controller struct {
	length int
	state  State
	// overflowAt 是最近一次测得溢出的预设下标，-1 表示最近一次测量放得下。
	overflowAt int
}

// NewController 为长度为 length 的阶梯创建控制器，初始为自动模式、第 0 级。
func NewController(length int) *Controller {
	if length < 1 {
		length = 1
	}
	return &Controller{length: length, state: State{Auto: true}, overflowAt: -1}
}

// State 返回当前状态的副本。
func (c *Controller) State() State { return c.state }

// Len 返回阶梯长度。
func (c *Controller) Len() int { return c.length }

// Status 根据状态与最近一次测量结果推导阶段。
func (c *Controller) Status() Status {
	overflowing := c.overflowAt >= 0 && c.overflowAt == c.state.Current
	switch {
	case overflowing && c.state.Current == c.length-1:
		return StatusOverflowAtMax
	case overflowing:
		return StatusOverflowing
	case !c.state.Settled:
		return StatusSearching
	default:
		return StatusFitting
	}
}

// Valid reports whether preset i may be selected manually.
func (c *Controller) Valid(i int) bool {
	return i >= c.state.MinValid && i < c.length
}

// Observe 处理第 i 级预设的一次测量结果。i 应为测量时实际生效的预设下标；
// 与当前下标不一致的过期结果会被忽略。
func (c *Controller) Observe(i int, overflowing bool) Decision {
	prev := c.state
	if i != c.state.Current {
		return Decision{Previous: prev, State: prev, Status: c.Status()}
	}
	if overflowing {
		c.overflowAt = i
		c.onOverflow(i)
	} else {
		c.overflowAt = -1
		c.onFit(i)
	}
	return Decision{
		Previous: prev,
		State:    c.state,
		Switched: c.state.Current != prev.Current,
		Status:   c.Status(),
	}
}

func (c *Controller) onOverflow(i int) {
	c.state.Settled = false
	if c.state.Auto && i < c.length-1 {
		c.state.Current = i + 1
	}
	// 溢出的预设以及比它更稀疏的预设都不可能有效；下限最多到最密集一级。
	floor := i + 1
	if floor > c.length-1 {
		floor = c.length - 1
	}
	if floor > c.state.MinValid {
		c.state.MinValid = floor
	}
}

func (c *Controller) onFit(i int) {
	if (c.state.Auto && !c.state.Settled) || (!c.state.Auto && i < c.state.MinValid) {
		c.state.MinValid = i
	}
	c.state.Settled = true
}

// SetAuto 切换自动模式。从手动切回自动时从第 0 级重新搜索；即使已经在第 0 级，
// 手动期间测得的溢出也需要重新测量才能推进。返回 true 表示需要重新测量。
func (c *Controller) SetAuto(enabled bool) bool {
	was := c.state.Auto
	c.state.Auto = enabled
	if was || !enabled {
		return false
	}
	c.state.Current = 0
	c.state.Settled = false
	c.overflowAt = -1
	return true
}

// ShapeChanged 在可重复区块数量变化时调用。自动模式下若不在第 0 级，
// 则重置当前下标、有效下限与稳定标记。返回 true 表示需要重新测量。
func (c *Controller) ShapeChanged() bool {
	if !c.state.Auto || c.state.Current == 0 {
		return false
	}
	c.state.Current = 0
	c.state.MinValid = 0
	c.state.Settled = false
	c.overflowAt = -1
	return true
}

// Select 手动选择预设：下标必须不低于有效下限；成功后关闭自动模式。
// 有效下限不会因此放宽。
func (c *Controller) Select(i int) error {
	if i < 0 || i >= c.length {
		return fmt.Errorf("select %d of %d: %w", i, c.length, ErrPresetOutOfRange)
	}
	if i < c.state.MinValid {
		return fmt.Errorf("select %d with floor %d: %w", i, c.state.MinValid, ErrBelowValidFloor)
	}
	c.state.Auto = false
	if c.state.Current != i {
		c.state.Current = i
		c.overflowAt = -1
	}
	return nil
}

// Restore 恢复之前保存的状态（例如会话重建），越界的下标会被截断。
func (c *Controller) Restore(s State) {
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= c.length {
			return c.length - 1
		}
		return i
	}
	s.Current = clamp(s.Current)
	s.MinValid = clamp(s.MinValid)
	c.state = s
	c.overflowAt = -1
}
