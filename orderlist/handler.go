// Package orderlist は受注一覧画面のAPIです。
package orderlist

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"juchu/app"
	"juchu/model"
)

// Row は一覧の1行分です。明細から合計金額を計算して持ちます。
type Row struct {
	ID         int64  `json:"id"`
	OrderNo    string `json:"orderNo"`
	OrderDate  string `json:"orderDate"`
	ClientName string `json:"clientName"`
	ItemCount  int    `json:"itemCount"`
	Total      int    `json:"total"`
}

func toRow(o model.Order) Row {
	return Row{
		ID:         o.ID,
		OrderNo:    o.OrderNo,
		OrderDate:  o.OrderDate,
		ClientName: o.Client.Name,
		ItemCount:  len(o.OrderDetails),
		Total:      o.Total(),
	}
}

// ListHandler は全受注を受注番号順で返します。
func ListHandler(db *sqlx.DB) http.HandlerFunc {
	svc := app.NewOrderAppService(db)
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.GetOrders()
		if err != nil {
			log.Printf("ERROR: [orderlist] 受注一覧の取得に失敗: %v", err)
			http.Error(w, "受注一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		rows := make([]Row, 0, len(orders))
		for _, o := range orders {
			rows = append(rows, toRow(o))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}
}
