package database

import (
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"juchu/model"
)

func GetAllProducts(dbtx DBTX) ([]model.Product, error) {
	products := []model.Product{}
	err := dbtx.Select(&products, `SELECT * FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

func GetProductByID(dbtx DBTX, id int64) (*model.Product, error) {
	var p model.Product
	err := dbtx.Get(&p, `SELECT * FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func GetProductByCode(dbtx DBTX, code string) (*model.Product, error) {
	var p model.Product
	err := dbtx.Get(&p, `SELECT * FROM products WHERE code = ?`, code)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchProducts は商品検索ダイアログ用の絞り込みです。空の条件は無視されます。
func SearchProducts(dbtx DBTX, code, name, category string) ([]model.Product, error) {
	q := sq.Select("*").From("products").OrderBy("code")
	if code != "" {
		q = q.Where(sq.Like{"code": code + "%"})
	}
	if name != "" {
		q = q.Where(sq.Like{"name": "%" + name + "%"})
	}
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product search query: %w", err)
	}
	products := []model.Product{}
	if err := dbtx.Select(&products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// BulkApplyProducts は編集済みの商品行を1件ずつ適用します。
// 得意先と同じく、行単位の失敗を集めつつ残りの行は続行します。
func BulkApplyProducts(tx *sqlx.Tx, edits []model.ProductEdit) []model.RowResult {
	var results []model.RowResult
	now := time.Now()

	for _, edit := range edits {
		var err error
		switch edit.Operation {
		case model.OpInsert:
			err = insertProduct(tx, edit.Product, now)
		case model.OpUpdate:
			err = updateProduct(tx, edit.Product, now)
		case model.OpDelete:
			err = deleteProduct(tx, edit.Product.ID)
		default:
			continue
		}
		if err != nil {
			log.Printf("WARN: [products] uid=%d op=%s の保存に失敗: %v", edit.UID, edit.Operation, err)
			results = append(results, model.RowResult{UID: edit.UID, Error: TranslateError(err)})
		}
	}
	return results
}

func insertProduct(tx *sqlx.Tx, p model.Product, now time.Time) error {
	const q = `
		INSERT INTO products (code, name, description, price, quantity, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.Exec(q, p.Code, p.Name, p.Description, p.Price, p.Quantity, p.Category, now, now)
	return err
}

func updateProduct(tx *sqlx.Tx, p model.Product, now time.Time) error {
	const q = `
		UPDATE products
		SET code = ?, name = ?, description = ?, price = ?, quantity = ?, category = ?, updated_at = ?
		WHERE id = ?`
	_, err := tx.Exec(q, p.Code, p.Name, p.Description, p.Price, p.Quantity, p.Category, now, p.ID)
	return err
}

func deleteProduct(tx *sqlx.Tx, id int64) error {
	_, err := tx.Exec(`DELETE FROM products WHERE id = ?`, id)
	return err
}

// AdjustProductQuantity は在庫数を delta だけ増減します。
// 受注トランザクションの明細書き込みと対で呼ばれます。
func AdjustProductQuantity(tx *sqlx.Tx, productID int64, delta int, now time.Time) error {
	_, err := tx.Exec(`UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`, delta, now, productID)
	return err
}
