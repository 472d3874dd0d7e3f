// Package dashboard はダッシュボード画面の集計APIです。
// 集計は毎回ストアから取り直します。キャッシュはしません。
package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"juchu/database"
	"juchu/model"
)

// Bucket はグラフ1本分です。
type Bucket struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}

// Summary はダッシュボード1画面分の集計結果です。
type Summary struct {
	MonthlySales       []Bucket        `json:"monthlySales"`
	YearlySales        []Bucket        `json:"yearlySales"`
	CategorySales      []Bucket        `json:"categorySales"`
	BusinessTypeCounts []Bucket        `json:"businessTypeCounts"`
	LowStock           []model.Product `json:"lowStock"`
	OrderCount         int             `json:"orderCount"`
	TotalSales         int             `json:"totalSales"`
}

const bucketCount = 7

// BuildSummary は全受注と関連マスタから集計を組み立てます。
func BuildSummary(db *sqlx.DB, now time.Time) (*Summary, error) {
	orders, err := database.FindAllOrders(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for dashboard: %w", err)
	}

	s := &Summary{
		MonthlySales: make([]Bucket, 0, bucketCount),
		YearlySales:  make([]Bucket, 0, bucketCount),
		OrderCount:   len(orders),
	}

	monthly := make(map[string]int)
	yearly := make(map[string]int)
	category := make(map[string]int)
	for _, o := range orders {
		total := o.Total()
		s.TotalSales += total

		// 受注日は "2006-01-02" 形式。壊れた日付は期間集計から外します。
		if d, err := time.Parse("2006-01-02", o.OrderDate); err == nil {
			monthly[d.Format("2006/01")] += total
			yearly[d.Format("2006年")] += total
		}
		for _, detail := range o.OrderDetails {
			cat := detail.Product.Category
			if cat == "" {
				cat = "未分類"
			}
			category[cat] += detail.Subtotal()
		}
	}

	// 直近の期間は受注が無くても0円の棒を出します。
	for i := bucketCount - 1; i >= 0; i-- {
		m := now.AddDate(0, -i, 0)
		label := m.Format("2006/01")
		s.MonthlySales = append(s.MonthlySales, Bucket{Label: label, Amount: monthly[label]})
	}
	for i := bucketCount - 1; i >= 0; i-- {
		label := now.AddDate(-i, 0, 0).Format("2006年")
		s.YearlySales = append(s.YearlySales, Bucket{Label: label, Amount: yearly[label]})
	}

	for cat, amount := range category {
		s.CategorySales = append(s.CategorySales, Bucket{Label: cat, Amount: amount})
	}
	sort.Slice(s.CategorySales, func(i, j int) bool {
		if s.CategorySales[i].Amount != s.CategorySales[j].Amount {
			return s.CategorySales[i].Amount > s.CategorySales[j].Amount
		}
		return s.CategorySales[i].Label < s.CategorySales[j].Label
	})

	counts, err := businessTypeCounts(db)
	if err != nil {
		return nil, err
	}
	s.BusinessTypeCounts = counts

	lowStock, err := lowStockProducts(db, 5)
	if err != nil {
		return nil, err
	}
	s.LowStock = lowStock

	return s, nil
}

// businessTypeCounts は業種ごとの得意先数です。未設定の業種は「未分類」に寄せます。
func businessTypeCounts(db *sqlx.DB) ([]Bucket, error) {
	var rows []struct {
		BusinessType string `db:"business_type"`
		Count        int    `db:"cnt"`
	}
	const q = `
		SELECT business_type, COUNT(*) AS cnt
		FROM clients
		GROUP BY business_type
		ORDER BY cnt DESC, business_type`
	if err := db.Select(&rows, q); err != nil {
		return nil, fmt.Errorf("failed to count clients by business type: %w", err)
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, r := range rows {
		label := r.BusinessType
		if label == "" {
			label = "未分類"
		}
		buckets = append(buckets, Bucket{Label: label, Amount: r.Count})
	}
	return buckets, nil
}

// lowStockProducts は在庫の少ない商品を limit 件返します。
func lowStockProducts(db *sqlx.DB, limit int) ([]model.Product, error) {
	products := []model.Product{}
	const q = `SELECT * FROM products ORDER BY quantity ASC, code LIMIT ?`
	if err := db.Select(&products, q, limit); err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

// Handler はダッシュボードの集計を返します。
func Handler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := BuildSummary(db, time.Now())
		if err != nil {
			log.Printf("ERROR: [dashboard] 集計に失敗: %v", err)
			http.Error(w, "ダッシュボードの集計に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}
