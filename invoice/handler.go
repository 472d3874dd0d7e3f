package invoice

import (
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/jmoiron/sqlx"

	"juchu/app"
	"juchu/config"
)

// Handler は受注番号を指定して請求書を出力します。既定はPDFのダウンロードで、
// format=html を付けるとプレビュー用のHTMLをそのまま返します。
func Handler(db *sqlx.DB) http.HandlerFunc {
	svc := app.NewOrderAppService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		orderNo := r.URL.Query().Get("orderNo")
		if orderNo == "" {
			http.Error(w, "受注番号を指定してください", http.StatusBadRequest)
			return
		}

		o, err := svc.GetOrder(orderNo)
		if err != nil {
			log.Printf("ERROR: [invoice] 受注 %s の取得に失敗: %v", orderNo, err)
			http.Error(w, "受注の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		if o == nil {
			http.Error(w, "受注が見つかりません", http.StatusNotFound)
			return
		}

		html := RenderHTML(o, config.GetConfig())
		if r.URL.Query().Get("format") == "html" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, html)
			return
		}

		pdf, err := RenderPDF(html)
		if err != nil {
			log.Printf("ERROR: [invoice] 受注 %s のPDF生成に失敗: %v", orderNo, err)
			http.Error(w, "請求書PDFの生成に失敗しました", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("請求書_%s.pdf", orderNo)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
		w.Write(pdf)
	}
}
