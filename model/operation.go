package model

// Operation は行に付与される編集区分です。
// 空文字は「未編集」を表し、一括更新の送信対象から除外されます。
type Operation string

const (
	OpNone   Operation = ""
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Dirty は送信・検証の対象となる行かどうかを返します。
func (op Operation) Dirty() bool {
	return op != OpNone
}

// RowResult は一括更新で失敗した行の結果です。
// UID は送信時に行へ割り当てた一時IDで、永続IDを持たない新規行とも対応付けられます。
type RowResult struct {
	UID   int    `json:"uid"`
	Error string `json:"error"`
}
