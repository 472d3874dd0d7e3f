package database

import (
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"juchu/model"
)

func GetAllClients(dbtx DBTX) ([]model.Client, error) {
	clients := []model.Client{}
	err := dbtx.Select(&clients, `SELECT * FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all clients: %w", err)
	}
	return clients, nil
}

func GetClientByID(dbtx DBTX, id int64) (*model.Client, error) {
	var c model.Client
	err := dbtx.Get(&c, `SELECT * FROM clients WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SearchClients は検索ダイアログ用の絞り込みです。条件は任意の組み合わせで、
// 空の条件は無視されます。
func SearchClients(dbtx DBTX, name, prefecture, businessType string) ([]model.Client, error) {
	q := sq.Select("*").From("clients").OrderBy("id")
	if name != "" {
		q = q.Where(sq.Like{"name": "%" + name + "%"})
	}
	if prefecture != "" {
		q = q.Where(sq.Eq{"prefecture": prefecture})
	}
	if businessType != "" {
		q = q.Where(sq.Eq{"business_type": businessType})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build client search query: %w", err)
	}
	clients := []model.Client{}
	if err := dbtx.Select(&clients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return clients, nil
}

// BulkApplyClients は編集済みの得意先行を1件ずつ適用します。
// 行単位の失敗は uid 付きで集め、残りの行の処理は続行します。
// トランザクション全体は呼び出し側が管理します。
func BulkApplyClients(tx *sqlx.Tx, edits []model.ClientEdit) []model.RowResult {
	var results []model.RowResult
	now := time.Now()

	for _, edit := range edits {
		var err error
		switch edit.Operation {
		case model.OpInsert:
			err = insertClient(tx, edit.Client, now)
		case model.OpUpdate:
			err = updateClient(tx, edit.Client, now)
		case model.OpDelete:
			err = deleteClient(tx, edit.Client.ID)
		default:
			continue
		}
		if err != nil {
			log.Printf("WARN: [clients] uid=%d op=%s の保存に失敗: %v", edit.UID, edit.Operation, err)
			results = append(results, model.RowResult{UID: edit.UID, Error: TranslateError(err)})
		}
	}
	return results
}

func insertClient(tx *sqlx.Tx, c model.Client, now time.Time) error {
	const q = `
		INSERT INTO clients (name, email, phone, postal_code, prefecture, business_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.Exec(q, c.Name, c.Email, c.Phone, c.PostalCode, c.Prefecture, c.BusinessType, now, now)
	return err
}

func updateClient(tx *sqlx.Tx, c model.Client, now time.Time) error {
	const q = `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, postal_code = ?, prefecture = ?, business_type = ?, updated_at = ?
		WHERE id = ?`
	_, err := tx.Exec(q, c.Name, c.Email, c.Phone, c.PostalCode, c.Prefecture, c.BusinessType, now, c.ID)
	return err
}

func deleteClient(tx *sqlx.Tx, id int64) error {
	_, err := tx.Exec(`DELETE FROM clients WHERE id = ?`, id)
	return err
}

// UpsertClientInTx はCSVインポート用です。会社名をキーに挿入または更新します。
func UpsertClientInTx(tx *sqlx.Tx, c model.Client) error {
	const q = `
		INSERT INTO clients (name, email, phone, postal_code, prefecture, business_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			postal_code = excluded.postal_code,
			prefecture = excluded.prefecture,
			business_type = excluded.business_type,
			updated_at = excluded.updated_at`
	now := time.Now()
	_, err := tx.Exec(q, c.Name, c.Email, c.Phone, c.PostalCode, c.Prefecture, c.BusinessType, now, now)
	if err != nil {
		return fmt.Errorf("UpsertClientInTx (Name: %s) failed: %w", c.Name, err)
	}
	return nil
}
