// Package client は得意先マスタ画面のAPIです。
package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"

	"github.com/jmoiron/sqlx"

	"juchu/app"
	"juchu/bulksave"
	"juchu/database"
	"juchu/gridstate"
	"juchu/model"
	"juchu/parsers"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRow は得意先1行の項目検証です。編集区分の付いた行にだけ適用されます。
func ValidateRow(c model.Client) bulksave.FieldErrors {
	errs := bulksave.FieldErrors{}
	if c.Name == "" {
		errs["name"] = "会社名を入力してください"
	}
	if c.Email == "" {
		errs["email"] = "メールアドレスを入力してください"
	} else if !emailRegex.MatchString(c.Email) {
		errs["email"] = "正しいメールアドレスの形式で入力してください"
	}
	if c.BusinessType == "" {
		errs["businessType"] = "業種を選択してください"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Screen は得意先マスタ1画面分の状態です。作業セットと保存フローを持ちます。
type Screen struct {
	db      *sqlx.DB
	svc     *app.ClientAppService
	tracker *gridstate.Tracker[model.Client]
	saver   *bulksave.Orchestrator[model.Client]
}

func NewScreen(db *sqlx.DB) *Screen {
	s := &Screen{
		db:      db,
		svc:     app.NewClientAppService(db),
		tracker: gridstate.NewTracker[model.Client](),
	}
	s.saver = bulksave.New(s.tracker, ValidateRow, s.submit, s.reload)
	return s
}

// Reload は作業セットをストアから取り直します。
func (s *Screen) Reload() error {
	clients, err := s.svc.GetClients()
	if err != nil {
		return err
	}
	s.tracker.Load(clients)
	return nil
}

func (s *Screen) submit(_ context.Context, dirty []gridstate.Entry[model.Client]) ([]model.RowResult, error) {
	edits := make([]model.ClientEdit, 0, len(dirty))
	for _, e := range dirty {
		edits = append(edits, model.ClientEdit{Client: e.Data, UID: e.UID, Operation: e.Operation})
	}
	return s.svc.BulkCreateUpdate(edits)
}

func (s *Screen) reload(_ context.Context) ([]model.Client, error) {
	return s.svc.GetClients()
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
			log.Printf("ERROR: [client] 再取得に失敗: %v", err)
			http.Error(w, "得意先の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		s.writeRows(w)
	}
}

func (s *Screen) AddRowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tracker.AddRow(model.Client{})
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
			UID  int          `json:"uid"`
			Data model.Client `json:"data"`
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
			log.Printf("ERROR: [client] 一括更新に失敗: %v", err)
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

// SearchHandler は得意先検索ダイアログ用です。
func (s *Screen) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		clients, err := s.svc.SearchClients(q.Get("name"), q.Get("prefecture"), q.Get("businessType"))
		if err != nil {
			log.Printf("ERROR: [client] 検索に失敗: %v", err)
			http.Error(w, "得意先の検索に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(clients)
	}
}

// ImportHandler は得意先マスタCSV（Shift-JIS対応）のインポートです。
func (s *Screen) ImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "CSVファイルの読み取りに失敗: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		records, err := parsers.ParseClientCSV(file)
		if err != nil {
			http.Error(w, "CSVファイルの解析に失敗: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(records) == 0 {
			http.Error(w, "CSVから読み込むデータがありません。", http.StatusBadRequest)
			return
		}

		tx, err := s.db.Beginx()
		if err != nil {
			http.Error(w, "データベーストランザクションの開始に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		imported := 0
		var importErrors []string
		for _, rec := range records {
			if err := database.UpsertClientInTx(tx, rec); err != nil {
				log.Printf("ERROR: Failed to upsert client %s: %v", rec.Name, err)
				importErrors = append(importErrors, rec.Name+": "+database.TranslateError(err))
				continue
			}
			imported++
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "トランザクションのコミットに失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if err := s.Reload(); err != nil {
			log.Printf("WARN: [client] インポート後の再取得に失敗: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"imported": imported,
			"errors":   importErrors,
		})
	}
}
