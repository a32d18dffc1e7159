// Package export 把简历渲染为可下载的 PDF。导出与编辑预览共用同一套排版引擎，
// 使用简历保存的预设，与实时预览当前所处的预设无关。
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fitResume/internal/density"
	"fitResume/internal/resume"
	"fitResume/internal/typeset"
)

const (
	RendererCanvas  = "canvas"
	RendererBrowser = "browser"
)

var ErrUnknownRenderer = errors.New("unknown export renderer")

// Renderer 按指定预设把文档渲染为 PDF 字节。
type Renderer interface {
	Render(ctx context.Context, doc resume.Document, preset density.Preset) ([]byte, error)
}

// NewRenderer 根据配置名称创建渲染器，空字符串视为 canvas。
func NewRenderer(name string, ts *typeset.Typesetter) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RendererCanvas:
		return NewCanvasRenderer(ts), nil
	case RendererBrowser:
		return NewBrowserRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
}

// ResolvePreset 返回简历保存的预设；未保存或已失效的 ID 回退到阶梯第一级。
func ResolvePreset(ladder *density.Ladder, id string) density.Preset {
	if id != "" {
		if i, err := ladder.IndexOf(id); err == nil {
			return ladder.At(i)
		}
	}
	return ladder.At(0)
}
