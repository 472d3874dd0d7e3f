// Package loader はデータベースの初期化とダミーデータ投入を担当します。
package loader

import (
	_ "embed"
	"fmt"
	"log"
	"math/rand"

	"github.com/jmoiron/sqlx"

	"juchu/database"
	"juchu/model"
)

// スキーマはバイナリに埋め込み、起動時とテストで同じ定義を使います。
//
//go:embed schema.sql
var schemaSQL string

// InitDatabase はデータベーススキーマを適用します。
func InitDatabase(db *sqlx.DB) error {
	log.Println("Applying database schema...")
	if err := ApplySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("Schema applied successfully.")
	return nil
}

// ApplySchema は埋め込みの schema.sql を実行します。
func ApplySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// ResetDatabase は全テーブルを1トランザクションでクリアします。
func ResetDatabase(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"order_details", "orders", "products", "clients"}
	for _, table := range tables {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	// AUTOINCREMENT の採番もやり直す
	if _, err := tx.Exec(`DELETE FROM sqlite_sequence WHERE name IN ('clients','products','orders')`); err != nil {
		return fmt.Errorf("failed to reset sequences: %w", err)
	}
	return tx.Commit()
}

var (
	dummyPrefectures   = []string{"東京都", "神奈川県", "埼玉県", "千葉県", "大阪府"}
	dummyBusinessTypes = []string{"小売", "卸売", "製造", "サービス", "その他"}
	dummyCategories    = []string{"食品", "飲料", "日用品", "家電", "文具"}
	dummyProductPrefix = []string{"特選", "徳用", "業務用", "限定", "定番"}
	dummyProductSuffix = []string{"セットA", "セットB", "単品", "箱入り", "詰め合わせ"}
)

// GenerateDummyData は動作確認用の得意先と商品を投入します。
// 既存データと名前が重複した行はスキップされます（UNIQUE制約）。
func GenerateDummyData(db *sqlx.DB, clientCount, productCount int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin dummy data transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i := 1; i <= clientCount; i++ {
		c := model.Client{
			Name:         fmt.Sprintf("ダミー%d", i),
			Email:        fmt.Sprintf("dummy%d@example.com", i),
			Phone:        fmt.Sprintf("0%d-%d-%d", rand.Intn(90)+10, rand.Intn(9000)+1000, rand.Intn(9000)+1000),
			PostalCode:   fmt.Sprintf("%d-%d", rand.Intn(900)+100, rand.Intn(9000)+1000),
			Prefecture:   dummyPrefectures[rand.Intn(len(dummyPrefectures))],
			BusinessType: dummyBusinessTypes[rand.Intn(len(dummyBusinessTypes))],
		}
		if err := database.UpsertClientInTx(tx, c); err != nil {
			log.Printf("WARN: ダミー得意先 %d 件目の投入に失敗 (スキップ): %v", i, err)
			continue
		}
		inserted++
	}
	log.Printf("INFO: [loader] ダミー得意先を %d 件投入しました", inserted)

	inserted = 0
	for i := 1; i <= productCount; i++ {
		name := fmt.Sprintf("%sサンプル商品%d%s",
			dummyProductPrefix[rand.Intn(len(dummyProductPrefix))],
			i,
			dummyProductSuffix[rand.Intn(len(dummyProductSuffix))])
		const q = `
			INSERT OR IGNORE INTO products (code, name, description, price, quantity, category, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
		_, err := tx.Exec(q,
			fmt.Sprintf("P%05d", i),
			name,
			fmt.Sprintf("サンプル商品%dの説明です。", i),
			float64((rand.Intn(99)+1)*100),
			rand.Intn(100)+1,
			dummyCategories[rand.Intn(len(dummyCategories))])
		if err != nil {
			log.Printf("WARN: ダミー商品 %d 件目の投入に失敗 (スキップ): %v", i, err)
			continue
		}
		inserted++
	}
	log.Printf("INFO: [loader] ダミー商品を %d 件投入しました", inserted)

	return tx.Commit()
}
