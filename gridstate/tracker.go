// Package gridstate は編集グリッドの作業セットを管理します。
// 行ごとの編集区分（insert/update/delete）と初期スナップショットを保持し、
// 追加・コピー・削除・取消の各操作をメモリ上だけで処理します。
// ストアには一切触れません。
package gridstate

import (
	"sync"

	"juchu/model"
)

// Row は各エンティティが明示的に実装する行データの契約です。
// リフレクションで構造を推測する代わりに、複製方法をエンティティ自身が定義します。
type Row[T any] interface {
	// Key は永続IDの文字列表現。未保存なら空文字。
	Key() string
	// Clone は初期スナップショット用の複製。
	Clone() T
	// CopyForInsert は行コピー用の複製（永続ID・一意キー項目はクリア）。
	CopyForInsert() T
}

// Entry は作業セット中の1行です。UID は行が作業セットに入った時点で
// 採番される送信往復用の一時IDで、表示順には依存しません。
type Entry[T Row[T]] struct {
	UID       int             `json:"uid"`
	Operation model.Operation `json:"operation"`
	Error     string          `json:"error,omitempty"`
	Data      T               `json:"data"`
}

// Tracker は1画面分の作業セットです。ハンドラはHTTPサーブゴルーチン上で
// 動くため、単一ユーザーでも排他は必要です。
type Tracker[T Row[T]] struct {
	mu       sync.Mutex
	rows     []*Entry[T]
	pristine map[string]T
	nextUID  int
	selRow   int
	selCol   int
}

func NewTracker[T Row[T]]() *Tracker[T] {
	return &Tracker[T]{pristine: make(map[string]T)}
}

// Load は作業セットを読み込み直します。全行の編集区分とエラーはリセットされ、
// 初期スナップショットは永続IDをキーに取り直されます。
func (t *Tracker[T]) Load(rows []T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = t.rows[:0]
	t.pristine = make(map[string]T, len(rows))
	for _, r := range rows {
		t.rows = append(t.rows, &Entry[T]{UID: t.takeUID(), Data: r})
		if key := r.Key(); key != "" {
			t.pristine[key] = r.Clone()
		}
	}
	t.selRow, t.selCol = 0, 0
}

// AddRow は空行を末尾に追加して insert を付与します。選択は新しい行へ移ります。
func (t *Tracker[T]) AddRow(blank T) Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := &Entry[T]{UID: t.takeUID(), Operation: model.OpInsert, Data: blank}
	t.rows = append(t.rows, e)
	t.selRow, t.selCol = len(t.rows)-1, 0
	return *e
}

// CopyRow は uid の行を複製して末尾に追加します。複製の中身は
// エンティティ側の CopyForInsert に従います。
func (t *Tracker[T]) CopyRow(uid int) (Entry[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	src, _ := t.find(uid)
	if src == nil {
		return Entry[T]{}, false
	}
	e := &Entry[T]{UID: t.takeUID(), Operation: model.OpInsert, Data: src.Data.CopyForInsert()}
	t.rows = append(t.rows, e)
	t.selRow, t.selCol = len(t.rows)-1, 0
	return *e, true
}

// DeleteRow は削除操作を処理します。
//   - すでに delete の行 → 区分を外す（論理削除の取り消し）
//   - 永続IDを持つ行 → delete を付与（保存までは可逆）
//   - 未保存の行 → 作業セットから物理削除。選択は元の行位置に残ります。
func (t *Tracker[T]) DeleteRow(uid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, idx := t.find(uid)
	if e == nil {
		return false
	}

	if e.Operation == model.OpDelete {
		e.Operation = model.OpNone
		return true
	}
	if e.Data.Key() != "" {
		e.Operation = model.OpDelete
		return true
	}

	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	if t.selRow >= len(t.rows) && t.selRow > 0 {
		t.selRow = len(t.rows) - 1
	}
	return true
}

// CancelRow は行の編集を取り消します。永続IDを持つ行は初期スナップショット
// から復元し、未保存の行は取り除きます。選択位置は維持されます。
func (t *Tracker[T]) CancelRow(uid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, idx := t.find(uid)
	if e == nil {
		return false
	}

	if key := e.Data.Key(); key != "" {
		if orig, ok := t.pristine[key]; ok {
			e.Data = orig.Clone()
		}
		e.Operation = model.OpNone
		e.Error = ""
		return true
	}

	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	if t.selRow >= len(t.rows) && t.selRow > 0 {
		t.selRow = len(t.rows) - 1
	}
	return true
}

// CommitEdit はセル編集確定後の内容で行を差し替え、編集区分を付け直します。
// 永続IDを持つ行は update（すでに insert/delete の行はそのまま）、
// 持たない行は insert になります。
func (t *Tracker[T]) CommitEdit(uid int, data T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, _ := t.find(uid)
	if e == nil {
		return false
	}
	e.Data = data
	if e.Data.Key() != "" {
		if e.Operation != model.OpInsert && e.Operation != model.OpDelete {
			e.Operation = model.OpUpdate
		}
	} else {
		e.Operation = model.OpInsert
	}
	return true
}

// Rows は表示順の作業セットのコピーを返します。
func (t *Tracker[T]) Rows() []Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry[T], len(t.rows))
	for i, e := range t.rows {
		out[i] = *e
	}
	return out
}

// Dirty は編集区分の付いた行（送信・検証の対象）だけを返します。
func (t *Tracker[T]) Dirty() []Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Entry[T]
	for _, e := range t.rows {
		if e.Operation.Dirty() {
			out = append(out, *e)
		}
	}
	return out
}

func (t *Tracker[T]) HasDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.rows {
		if e.Operation.Dirty() {
			return true
		}
	}
	return false
}

// AttachErrors は保存失敗の結果を uid で行へ書き戻します。
// 既存の行エラーは先にすべてクリアし、編集区分はそのまま残します。
func (t *Tracker[T]) AttachErrors(results []model.RowResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.rows {
		e.Error = ""
	}
	for _, res := range results {
		for _, e := range t.rows {
			if e.UID == res.UID {
				e.Error = res.Error
				break
			}
		}
	}
}

// Get は uid の行を返します。
func (t *Tracker[T]) Get(uid int) (Entry[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, _ := t.find(uid)
	if e == nil {
		return Entry[T]{}, false
	}
	return *e, true
}

func (t *Tracker[T]) Selection() (row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selRow, t.selCol
}

func (t *Tracker[T]) Select(row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selRow, t.selCol = row, col
}

func (t *Tracker[T]) find(uid int) (*Entry[T], int) {
	for i, e := range t.rows {
		if e.UID == uid {
			return e, i
		}
	}
	return nil, -1
}

func (t *Tracker[T]) takeUID() int {
	uid := t.nextUID
	t.nextUID++
	return uid
}
