// Package invoice は受注1件から請求書を生成します。
// HTMLを組み立て、ヘッドレスブラウザの印刷機能でPDF化します。
package invoice

import (
	"fmt"
	"html"
	"strings"

	"juchu/config"
	"juchu/model"
)

// Totals は請求書の金額欄です。消費税は10%で、端数は切り捨てます。
type Totals struct {
	Subtotal int
	Tax      int
	Total    int
}

func CalcTotals(o *model.Order) Totals {
	subtotal := o.Total()
	tax := subtotal / 10
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

// formatYen は金額を3桁区切りにします。
func formatYen(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// RenderHTML は請求書1枚分のHTML文書を組み立てます。
// 発行元の会社情報は設定から読みます。
func RenderHTML(o *model.Order, cfg config.Config) string {
	totals := CalcTotals(o)
	esc := html.EscapeString

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8">`)
	sb.WriteString(`<title>請求書</title>`)
	sb.WriteString(`<style>
		body { font-family: "Hiragino Sans", "Yu Gothic", sans-serif; font-size: 11px; color: #222; margin: 24px; }
		h1 { font-size: 22px; text-align: center; letter-spacing: 16px; margin: 0 0 24px; }
		.meta { text-align: right; margin-bottom: 8px; }
		.parties { display: flex; justify-content: space-between; margin-bottom: 16px; }
		.client-name { font-size: 16px; border-bottom: 1px solid #222; padding-bottom: 2px; }
		.total-box { border: 2px solid #222; padding: 8px 16px; font-size: 14px; margin-bottom: 16px; display: inline-block; }
		table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
		th, td { border: 1px solid #666; padding: 4px 6px; }
		th { background: #eee; }
		.right { text-align: right; }
		.center { text-align: center; }
		.remarks { font-size: 10px; color: #444; }
	</style></head><body>`)

	sb.WriteString(`<h1>請求書</h1>`)
	sb.WriteString(`<div class="meta">`)
	sb.WriteString(fmt.Sprintf(`受注番号: %s<br>発行日: %s`, esc(o.OrderNo), esc(o.OrderDate)))
	sb.WriteString(`</div>`)

	sb.WriteString(`<div class="parties"><div>`)
	sb.WriteString(fmt.Sprintf(`<div class="client-name">%s 御中</div>`, esc(o.Client.Name)))
	if o.Client.PostalCode != "" || o.Client.Prefecture != "" {
		sb.WriteString(fmt.Sprintf(`<div>〒%s %s</div>`, esc(o.Client.PostalCode), esc(o.Client.Prefecture)))
	}
	sb.WriteString(`<p>下記のとおりご請求申し上げます。</p>`)
	sb.WriteString(fmt.Sprintf(`<div class="total-box">ご請求金額（税込）: ￥%s</div>`, formatYen(totals.Total)))
	sb.WriteString(`</div><div>`)
	sb.WriteString(fmt.Sprintf(`<strong>%s</strong><br>`, esc(cfg.CompanyName)))
	sb.WriteString(fmt.Sprintf(`〒%s<br>%s<br>`, esc(cfg.CompanyPostalCode), esc(cfg.CompanyAddress)))
	sb.WriteString(fmt.Sprintf(`TEL: %s / FAX: %s<br>`, esc(cfg.CompanyTel), esc(cfg.CompanyFax)))
	sb.WriteString(fmt.Sprintf(`Email: %s`, esc(cfg.CompanyEmail)))
	sb.WriteString(`</div></div>`)

	sb.WriteString(`<table><thead><tr>`)
	sb.WriteString(`<th class="center">No.</th><th>商品コード</th><th>品名</th><th class="right">単価</th><th class="right">数量</th><th class="right">金額</th>`)
	sb.WriteString(`</tr></thead><tbody>`)
	if len(o.OrderDetails) == 0 {
		sb.WriteString(`<tr><td colspan="6" class="center">明細はありません。</td></tr>`)
	} else {
		for i, d := range o.OrderDetails {
			sb.WriteString(`<tr>`)
			sb.WriteString(fmt.Sprintf(`<td class="center">%d</td>`, i+1))
			sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(d.Product.Code)))
			sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(d.Product.Name)))
			sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, formatYen(int(d.Product.Price))))
			sb.WriteString(fmt.Sprintf(`<td class="right">%d</td>`, d.Quantity))
			sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, formatYen(d.Subtotal())))
			sb.WriteString(`</tr>`)
		}
	}
	sb.WriteString(`</tbody><tfoot>`)
	sb.WriteString(fmt.Sprintf(`<tr><td colspan="5" class="right">小計</td><td class="right">%s</td></tr>`, formatYen(totals.Subtotal)))
	sb.WriteString(fmt.Sprintf(`<tr><td colspan="5" class="right">消費税（10%%）</td><td class="right">%s</td></tr>`, formatYen(totals.Tax)))
	sb.WriteString(fmt.Sprintf(`<tr><td colspan="5" class="right">合計</td><td class="right">%s</td></tr>`, formatYen(totals.Total)))
	sb.WriteString(`</tfoot></table>`)

	sb.WriteString(`<div class="remarks">備考:<ul>`)
	sb.WriteString(`<li>お支払い期限は発行日より30日以内にお願いいたします。</li>`)
	sb.WriteString(`<li>振込手数料は貴社にてご負担ください。</li>`)
	sb.WriteString(`</ul></div>`)

	sb.WriteString(`</body></html>`)
	return sb.String()
}
