// Package product は商品マスタ画面のAPIです。
package product

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"juchu/app"
	"juchu/bulksave"
	"juchu/database"
	"juchu/gridstate"
	"juchu/model"
)

// ValidateRow は商品1行の項目検証です。編集区分の付いた行にだけ適用されます。
func ValidateRow(p model.Product) bulksave.FieldErrors {
	errs := bulksave.FieldErrors{}
	if p.Code == "" {
		errs["code"] = "商品コードを入力してください"
	}
	if p.Name == "" {
		errs["name"] = "商品名を入力してください"
	}
	if p.Price < 0 {
		errs["price"] = "単価は0以上で入力してください"
	}
	if p.Quantity < 0 {
		errs["quantity"] = "在庫数は0以上で入力してください"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Screen は商品マスタ1画面分の状態です。
type Screen struct {
	db      *sqlx.DB
	svc     *app.ProductAppService
	tracker *gridstate.Tracker[model.Product]
	saver   *bulksave.Orchestrator[model.Product]
}

func NewScreen(db *sqlx.DB) *Screen {
	s := &Screen{
		db:      db,
		svc:     app.NewProductAppService(db),
		tracker: gridstate.NewTracker[model.Product](),
	}
	s.saver = bulksave.New(s.tracker, ValidateRow, s.submit, s.reload)
	return s
}

// Reload は作業セットをストアから取り直します。
func (s *Screen) Reload() error {
	products, err := s.svc.GetProducts()
	if err != nil {
		return err
	}
	s.tracker.Load(products)
	return nil
}

func (s *Screen) submit(_ context.Context, dirty []gridstate.Entry[model.Product]) ([]model.RowResult, error) {
	edits := make([]model.ProductEdit, 0, len(dirty))
	for _, e := range dirty {
		edits = append(edits, model.ProductEdit{Product: e.Data, UID: e.UID, Operation: e.Operation})
	}
	return s.svc.BulkCreateUpdate(edits)
}

func (s *Screen) reload(_ context.Context) ([]model.Product, error) {
	return s.svc.GetProducts()
}

func (s *Screen) writeRows(w http.ResponseWriter) {
	row, col := s.tracker.Selection()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rows":      s.tracker.Rows(),
		"selection": map[string]int{"row": row, "col": col},
	})
}

// RowsHandler は現在の作業セットを返します。
func (s *Screen) RowsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeRows(w)
	}
}

// ReloadHandler は再取得です。編集中データの破棄確認は画面側で済ませます。
func (s *Screen) ReloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Reload(); err != nil {
			log.Printf("ERROR: [product] 再取得に失敗: %v", err)
			http.Error(w, "商品の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		s.writeRows(w)
	}
}

func (s *Screen) AddRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tracker.AddRow(model.Product{})
		s.writeRows(w)
	}
}

type uidRequest struct {
	UID int `json:"uid"`
}

func (s *Screen) CopyRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if _, ok := s.tracker.CopyRow(req.UID); !ok {
			http.Error(w, "対象の行が見つかりません", http.StatusNotFound)
			return
		}
		s.writeRows(w)
	}
}

func (s *Screen) DeleteRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.tracker.DeleteRow(req.UID) {
			http.Error(w, "対象の行が見つかりません", http.StatusNotFound)
			return
		}
		s.writeRows(w)
	}
}

func (s *Screen) CancelRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.tracker.CancelRow(req.UID) {
			http.Error(w, "対象の行が見つかりません", http.StatusNotFound)
			return
		}
		s.writeRows(w)
	}
}

// EditHandler はセル編集確定後の行内容を受け取り、編集区分を付け直します。
func (s *Screen) EditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID  int           `json:"uid"`
			Data model.Product `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.tracker.CommitEdit(req.UID, req.Data) {
			http.Error(w, "対象の行が見つかりません", http.StatusNotFound)
			return
		}
		s.writeRows(w)
	}
}

// UpdateHandler は一括更新です。
func (s *Screen) UpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		outcome, err := s.saver.Submit(r.Context())
		if err != nil {
			log.Printf("ERROR: [product] 一括更新に失敗: %v", err)
			http.Error(w, database.MsgTransaction, http.StatusInternalServerError)
			return
		}
		row, col := s.tracker.Selection()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"outcome":   outcome,
			"rows":      s.tracker.Rows(),
			"selection": map[string]int{"row": row, "col": col},
		})
	}
}

// SearchHandler は商品検索ダイアログ用です。受注入力画面からも使われます。
func (s *Screen) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		products, err := s.svc.SearchProducts(q.Get("code"), q.Get("name"), q.Get("category"))
		if err != nil {
			log.Printf("ERROR: [product] 検索に失敗: %v", err)
			http.Error(w, "商品の検索に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(products)
	}
}
