// Package order は受注入力画面のAPIです。ヘッダ（受注番号・受注日・得意先）と
// 明細グリッドの作業セットをまとめて管理します。
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"juchu/app"
	"juchu/bulksave"
	"juchu/database"
	"juchu/gridstate"
	"juchu/model"
)

// ValidateRow は明細1行の項目検証です。商品コードは編集確定時に解決済みで、
// 未解決のままの行（ProductID=0）はここで止めます。
func ValidateRow(d model.OrderDetail) bulksave.FieldErrors {
	errs := bulksave.FieldErrors{}
	if d.Product.Code == "" {
		errs["productCode"] = "商品コードを入力してください"
	} else if d.ProductID == 0 {
		errs["productCode"] = "商品が見つかりません"
	}
	if d.Quantity < 1 {
		errs["quantity"] = "1以上の数量を入力してください"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// header は受注ヘッダの画面状態です。
type header struct {
	ID        int64        `json:"id"`
	OrderNo   string       `json:"orderNo"`
	OrderDate string       `json:"orderDate"`
	ClientID  int64        `json:"clientId"`
	Client    model.Client `json:"client"`
}

// Screen は受注入力1画面分の状態です。明細の作業セットと保存フローに加えて、
// 編集中の受注ヘッダを持ちます。
type Screen struct {
	db      *sqlx.DB
	svc     *app.OrderAppService
	tracker *gridstate.Tracker[model.OrderDetail]
	saver   *bulksave.Orchestrator[model.OrderDetail]

	mu  sync.Mutex
	hdr header
}

func NewScreen(db *sqlx.DB) *Screen {
	s := &Screen{
		db:      db,
		svc:     app.NewOrderAppService(db),
		tracker: gridstate.NewTracker[model.OrderDetail](),
	}
	s.saver = bulksave.New(s.tracker, ValidateRow, s.submit, s.reload)
	s.clear()
	return s
}

// clear は新規受注の入力状態に戻します。受注日は今日です。
func (s *Screen) clear() {
	s.mu.Lock()
	s.hdr = header{OrderDate: time.Now().Format("2006-01-02")}
	s.mu.Unlock()
	s.tracker.Load(nil)
}

func (s *Screen) headerSnapshot() header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hdr
}

// load は受注番号で受注を読み込み、ヘッダと明細グリッドを差し替えます。
// 見つからなければ false を返します。
func (s *Screen) load(orderNo string) (bool, error) {
	o, err := s.svc.GetOrder(orderNo)
	if err != nil {
		return false, err
	}
	if o == nil {
		return false, nil
	}
	s.mu.Lock()
	s.hdr = header{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		OrderDate: o.OrderDate,
		ClientID:  o.ClientID,
		Client:    o.Client,
	}
	s.mu.Unlock()
	s.tracker.Load(o.OrderDetails)
	return true, nil
}

func (s *Screen) submit(_ context.Context, dirty []gridstate.Entry[model.OrderDetail]) ([]model.RowResult, error) {
	hdr := s.headerSnapshot()
	edit := model.OrderEdit{
		ID:        hdr.ID,
		OrderNo:   hdr.OrderNo,
		OrderDate: hdr.OrderDate,
		ClientID:  hdr.ClientID,
		Details:   make([]model.OrderDetailEdit, 0, len(dirty)),
	}
	for _, e := range dirty {
		edit.Details = append(edit.Details, model.OrderDetailEdit{
			OrderDetail: e.Data,
			UID:         e.UID,
			Operation:   e.Operation,
		})
	}

	orderNo, results, err := s.svc.CreateUpdate(edit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// 確定できたら採番結果をヘッダへ反映する。再取得はこの番号で行われます。
		s.mu.Lock()
		s.hdr.OrderNo = orderNo
		s.mu.Unlock()
	}
	return results, nil
}

// reload は保存成功後の再取得です。確定済みヘッダも取り直します。
func (s *Screen) reload(_ context.Context) ([]model.OrderDetail, error) {
	hdr := s.headerSnapshot()
	o, err := s.svc.GetOrder(hdr.OrderNo)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	s.mu.Lock()
	s.hdr = header{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		OrderDate: o.OrderDate,
		ClientID:  o.ClientID,
		Client:    o.Client,
	}
	s.mu.Unlock()
	return o.OrderDetails, nil
}

func (s *Screen) writeState(w http.ResponseWriter, extra map[string]interface{}) {
	rows := s.tracker.Rows()
	total := 0
	for _, e := range rows {
		if e.Operation != model.OpDelete {
			total += e.Data.Subtotal()
		}
	}
	row, col := s.tracker.Selection()
	payload := map[string]interface{}{
		"header":    s.headerSnapshot(),
		"rows":      rows,
		"selection": map[string]int{"row": row, "col": col},
		"total":     total,
	}
	for k, v := range extra {
		payload[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// StateHandler は現在の入力状態を返します。
func (s *Screen) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeState(w, nil)
	}
}

// LoadHandler は受注番号で既存の受注を開きます。
func (s *Screen) LoadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderNo := r.URL.Query().Get("orderNo")
		if orderNo == "" {
			http.Error(w, "受注番号を指定してください", http.StatusBadRequest)
			return
		}
		found, err := s.load(orderNo)
		if err != nil {
			log.Printf("ERROR: [order] 受注 %s の読み込みに失敗: %v", orderNo, err)
			http.Error(w, "受注の読み込みに失敗しました", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "受注が見つかりません", http.StatusNotFound)
			return
		}
		s.writeState(w, nil)
	}
}

// NewHandler は画面を新規受注の状態にクリアします。
func (s *Screen) NewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.clear()
		s.writeState(w, nil)
	}
}

// HeaderHandler は受注日と得意先の変更を受け取ります。得意先は ID で指定し、
// 表示用スナップショットはここで解決します。
func (s *Screen) HeaderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderDate string `json:"orderDate"`
			ClientID  int64  `json:"clientId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var client model.Client
		if req.ClientID != 0 {
			c, err := database.GetClientByID(s.db, req.ClientID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					http.Error(w, "得意先が見つかりません", http.StatusNotFound)
					return
				}
				log.Printf("ERROR: [order] 得意先 %d の取得に失敗: %v", req.ClientID, err)
				http.Error(w, "得意先の取得に失敗しました", http.StatusInternalServerError)
				return
			}
			client = *c
		}

		s.mu.Lock()
		s.hdr.OrderDate = req.OrderDate
		s.hdr.ClientID = req.ClientID
		s.hdr.Client = client
		s.mu.Unlock()
		s.writeState(w, nil)
	}
}

func (s *Screen) AddRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tracker.AddRow(model.OrderDetail{Quantity: 1})
		s.writeState(w, nil)
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
		s.writeState(w, nil)
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
		s.writeState(w, nil)
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
		s.writeState(w, nil)
	}
}

// EditHandler は明細行の編集確定です。商品コードをここで解決し、単価などの
// 表示用スナップショットを行に埋めます。未登録のコードはメッセージ付きで
// そのまま保持し、登録時の検証で再度止めます。
func (s *Screen) EditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID  int               `json:"uid"`
			Data model.OrderDetail `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		message := ""
		code := req.Data.Product.Code
		if code == "" {
			req.Data.ProductID = 0
			req.Data.Product = model.Product{}
		} else {
			p, err := database.GetProductByCode(s.db, code)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					log.Printf("ERROR: [order] 商品コード %s の解決に失敗: %v", code, err)
					http.Error(w, "商品の取得に失敗しました", http.StatusInternalServerError)
					return
				}
				req.Data.ProductID = 0
				req.Data.Product = model.Product{Code: code}
				message = "商品が見つかりません"
			} else {
				req.Data.ProductID = p.ID
				req.Data.Product = *p
			}
		}

		if !s.tracker.CommitEdit(req.UID, req.Data) {
			http.Error(w, "対象の行が見つかりません", http.StatusNotFound)
			return
		}
		var extra map[string]interface{}
		if message != "" {
			extra = map[string]interface{}{"message": message}
		}
		s.writeState(w, extra)
	}
}

// RegisterHandler は受注の登録・更新です。マスタ画面の一括更新と違い、
// 1明細でも確定できなければ全体を確定しません。
func (s *Screen) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		// ヘッダの検証は明細の検証より先に行います。
		hdr := s.headerSnapshot()
		if hdr.ClientID == 0 {
			s.writeState(w, map[string]interface{}{
				"outcome": bulksave.Outcome{Status: bulksave.StatusInvalid, Message: "得意先を選択してください"},
			})
			return
		}
		if hdr.OrderDate == "" {
			s.writeState(w, map[string]interface{}{
				"outcome": bulksave.Outcome{Status: bulksave.StatusInvalid, Message: "受注日を入力してください"},
			})
			return
		}
		if !s.tracker.HasDirty() {
			s.writeState(w, map[string]interface{}{
				"outcome": bulksave.Outcome{Status: bulksave.StatusInvalid, Message: "明細は最低1件は入力してください"},
			})
			return
		}

		outcome, err := s.saver.Submit(r.Context())
		if err != nil {
			log.Printf("ERROR: [order] 受注の登録に失敗: %v", err)
			http.Error(w, database.MsgTransaction, http.StatusInternalServerError)
			return
		}
		if outcome.Status == bulksave.StatusSuccess {
			outcome.Message = "受注を登録しました"
		}
		s.writeState(w, map[string]interface{}{"outcome": outcome})
	}
}

// DeleteHandler は開いている受注をヘッダごと削除し、新規入力状態に戻します。
// 出荷済みの扱いがないため、削除で在庫は戻しません。
func (s *Screen) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		hdr := s.headerSnapshot()
		if hdr.ID == 0 {
			http.Error(w, "削除する受注が選択されていません", http.StatusBadRequest)
			return
		}
		if err := s.svc.DeleteOrder(hdr.OrderNo); err != nil {
			log.Printf("ERROR: [order] 受注 %s の削除に失敗: %v", hdr.OrderNo, err)
			http.Error(w, "受注の削除に失敗しました", http.StatusInternalServerError)
			return
		}
		s.clear()
		s.writeState(w, map[string]interface{}{"message": "受注を削除しました"})
	}
}
