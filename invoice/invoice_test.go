package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"juchu/config"
	"juchu/model"
)

func sampleOrder() *model.Order {
	return &model.Order{
		OrderNo:   "000123",
		OrderDate: "2026-08-31",
		Client:    model.Client{Name: "山田商店", PostalCode: "100-0001", Prefecture: "東京都"},
		OrderDetails: []model.OrderDetail{
			{Quantity: 3, Product: model.Product{Code: "P00001", Name: "徳用セット", Price: 335}},
			{Quantity: 1, Product: model.Product{Code: "P00002", Name: "単品", Price: 500}},
		},
	}
}

func TestCalcTotalsFloorsTax(t *testing.T) {
	o := sampleOrder()
	// 小計 1005 + 500 = 1505 → 消費税は150（切り捨て）
	totals := CalcTotals(o)
	assert.Equal(t, 1505, totals.Subtotal)
	assert.Equal(t, 150, totals.Tax)
	assert.Equal(t, 1655, totals.Total)
}

func TestFormatYen(t *testing.T) {
	assert.Equal(t, "0", formatYen(0))
	assert.Equal(t, "999", formatYen(999))
	assert.Equal(t, "1,000", formatYen(1000))
	assert.Equal(t, "12,345,678", formatYen(12345678))
	assert.Equal(t, "-1,500", formatYen(-1500))
}

func TestRenderHTMLContainsDocumentParts(t *testing.T) {
	cfg := config.Config{
		CompanyName:       "株式会社日本サンプル",
		CompanyPostalCode: "123-1234",
		CompanyAddress:    "東京都新宿区○○○1-2-3",
		CompanyTel:        "03-1234-5678",
		CompanyFax:        "03-1234-5679",
		CompanyEmail:      "info@example.com",
	}

	html := RenderHTML(sampleOrder(), cfg)

	assert.True(t, strings.Contains(html, "請求書"))
	assert.Contains(t, html, "000123")
	assert.Contains(t, html, "山田商店 御中")
	assert.Contains(t, html, "株式会社日本サンプル")
	assert.Contains(t, html, "徳用セット")
	assert.Contains(t, html, "1,505")
	assert.Contains(t, html, "150")
	assert.Contains(t, html, "1,655")
}

func TestRenderHTMLEscapesUserData(t *testing.T) {
	o := sampleOrder()
	o.Client.Name = `<script>alert("x")</script>`

	html := RenderHTML(o, config.Config{})
	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
}
