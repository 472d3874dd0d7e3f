package main

import (
	"encoding/json"
	"log"
	"net/http"

	"juchu/config"
)

// GetConfigHandler は現在の設定を返します。
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(config.GetConfig())
	}
}

// SaveConfigHandler は設定を受け取り、ファイルへ保存します。
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := config.SaveConfig(newCfg); err != nil {
			log.Printf("ERROR: Failed to save config: %v", err)
			http.Error(w, "設定の保存に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "設定を保存しました"})
	}
}
