package loader

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"juchu/config"
)

// SeedHandler はダミーデータ生成のエンドポイントです。件数は設定に従います。
func SeedHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg := config.GetConfig()
		if err := GenerateDummyData(db, cfg.DummyClientCount, cfg.DummyProductCount); err != nil {
			log.Printf("ERROR: Failed to generate dummy data: %v", err)
			http.Error(w, "ダミーデータの生成に失敗しました: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("ダミーデータを生成しました（得意先: %d件, 商品: %d件）",
				cfg.DummyClientCount, cfg.DummyProductCount),
		})
	}
}

// ResetHandler は全テーブルをクリアするエンドポイントです。
func ResetHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := ResetDatabase(db); err != nil {
			log.Printf("ERROR: Failed to reset database: %v", err)
			http.Error(w, "データベースの初期化に失敗しました: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "データベースを初期化しました"})
	}
}
