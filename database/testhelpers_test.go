package database_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"juchu/loader"
	"juchu/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// インメモリDBは接続ごとに別物になるため、接続は1本に固定する
	db.SetMaxOpenConns(1)
	require.NoError(t, loader.ApplySchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedClient(t *testing.T, db *sqlx.DB, name string) int64 {
	t.Helper()
	now := time.Now()
	res, err := db.Exec(`
		INSERT INTO clients (name, email, phone, postal_code, prefecture, business_type, created_at, updated_at)
		VALUES (?, ?, '', '', '', '', ?, ?)`,
		name, name+"@example.com", now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, db *sqlx.DB, code string, price float64, quantity int) int64 {
	t.Helper()
	now := time.Now()
	res, err := db.Exec(`
		INSERT INTO products (code, name, description, price, quantity, category, created_at, updated_at)
		VALUES (?, ?, '', ?, ?, '', ?, ?)`,
		code, "商品"+code, price, quantity, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func productQuantity(t *testing.T, db *sqlx.DB, id int64) int {
	t.Helper()
	var q int
	require.NoError(t, db.Get(&q, `SELECT quantity FROM products WHERE id = ?`, id))
	return q
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func insertDetail(uid int, productID int64, quantity int) model.OrderDetailEdit {
	return model.OrderDetailEdit{
		OrderDetail: model.OrderDetail{ProductID: productID, Quantity: quantity},
		UID:         uid,
		Operation:   model.OpInsert,
	}
}
