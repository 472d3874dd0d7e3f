package database

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ユーザー向けのストアエラーメッセージ。
// 生のエラーオブジェクトは画面に出しません。
const (
	MsgDuplicate   = "データが重複しています"
	MsgConstraint  = "入力内容が制約に違反しています"
	MsgSchema      = "スキーマエラーが発生しました"
	MsgTransaction = "トランザクションエラーが発生しました"
)

// DBTX は *sqlx.DB と *sqlx.Tx の両方を受けるためのインターフェースです。
type DBTX interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// TranslateError はストアのエラーをユーザー向けメッセージに変換します。
// 一意キーの衝突は「重複」、CHECKなどその他の制約違反は「制約違反」、
// SQL・スキーマ起因は「スキーマエラー」、それ以外はストアのメッセージを
// そのまま返します。
func TranslateError(err error) string {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return MsgDuplicate
			default:
				return MsgConstraint
			}
		case sqlite3.ErrError, sqlite3.ErrSchema:
			return MsgSchema
		}
	}
	return err.Error()
}
