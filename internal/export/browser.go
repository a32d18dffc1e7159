package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"fitResume/internal/density"
	"fitResume/internal/resume"
)

const browserTimeout = 30 * time.Second

// BrowserRenderer 把 HTML 模板交给无头 Chromium 打印成 PDF。
type BrowserRenderer struct {
	// Bin 为空时自动查找本机浏览器，找不到则由 launcher 下载。
	Bin     string
	Timeout time.Duration
}

var _ Renderer = (*BrowserRenderer)(nil)

// NewBrowserRenderer 创建基于 go-rod 的渲染器。
func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{Timeout: browserTimeout}
}

// Render 实现 Renderer。
func (r *BrowserRenderer) Render(ctx context.Context, doc resume.Document, preset density.Preset) ([]byte, error) {
	html, err := RenderHTML(doc, preset)
	if err != nil {
		return nil, err
	}

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if r.Bin != "" {
		launch = launch.Bin(r.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = browserTimeout
	}
	page, err := browser.Timeout(timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(timeout)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}
