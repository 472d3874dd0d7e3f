package invoice

import (
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RenderPDF はHTMLをヘッドレスブラウザで開き、A4縦のPDFにします。
func RenderPDF(html string) ([]byte, error) {
	u, err := launcher.New().
		Headless(true).
		Leakless(false).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("ブラウザの起動に失敗: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("ブラウザへの接続に失敗: %w", err)
	}
	defer browser.MustClose()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("ページの作成に失敗: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("HTMLの読み込みに失敗: %w", err)
	}
	if err := rod.Try(func() { page.MustWaitStable() }); err != nil {
		return nil, fmt.Errorf("レンダリングの完了待ちに失敗: %w", err)
	}

	// A4縦（インチ指定）
	paperWidth := 8.27
	paperHeight := 11.69
	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &paperWidth,
		PaperHeight:     &paperHeight,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("PDFの生成に失敗: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("PDFの読み取りに失敗: %w", err)
	}
	return data, nil
}
