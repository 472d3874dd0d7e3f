// Package bulksave は各画面の一括更新フローを駆動します。
// 検証は編集区分の付いた行に限定し、保存結果の行別エラーを uid で
// グリッドへ書き戻します。
package bulksave

import (
	"context"
	"sync"

	"juchu/gridstate"
	"juchu/model"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusNoChanges Status = "noChanges"
	StatusInvalid   Status = "invalid"
	StatusRowErrors Status = "rowErrors"
	StatusBusy      Status = "busy"
)

// FieldErrors は項目名→メッセージの検証結果です。
type FieldErrors map[string]string

// Validator は1行分の項目検証です。問題がなければ空のマップか nil を返します。
type Validator[T gridstate.Row[T]] func(T) FieldErrors

// SubmitFunc は編集済み行の一括保存です。行単位の失敗は RowResult で返し、
// 基盤レベルの失敗だけを error で返します。
type SubmitFunc[T gridstate.Row[T]] func(ctx context.Context, dirty []gridstate.Entry[T]) ([]model.RowResult, error)

// ReloadFunc は保存成功後の再取得です。
type ReloadFunc[T gridstate.Row[T]] func(ctx context.Context) ([]T, error)

// Outcome は一括更新1回分の結果です。Message はそのまま画面に表示されます。
type Outcome struct {
	Status      Status              `json:"status"`
	Message     string              `json:"message"`
	FieldErrors map[int]FieldErrors `json:"fieldErrors,omitempty"`
}

type Orchestrator[T gridstate.Row[T]] struct {
	tracker  *gridstate.Tracker[T]
	validate Validator[T]
	submit   SubmitFunc[T]
	reload   ReloadFunc[T]

	mu       sync.Mutex
	inFlight bool
}

func New[T gridstate.Row[T]](
	tracker *gridstate.Tracker[T],
	validate Validator[T],
	submit SubmitFunc[T],
	reload ReloadFunc[T],
) *Orchestrator[T] {
	return &Orchestrator[T]{
		tracker:  tracker,
		validate: validate,
		submit:   submit,
		reload:   reload,
	}
}

// Submit は一括更新を1回実行します。
//
//  1. 実行中なら受け付けない（多重送信ガード）
//  2. 編集行がなければ何もしない
//  3. 編集行だけを検証し、1件でも不正なら書き込みゼロで中断
//  4. 編集行を一括送信
//  5. 行別の失敗は uid で書き戻し、編集区分は残す（修正して再送信できる）
//  6. 全件成功なら再取得してスナップショットを取り直し、先頭行を選択
//
// 基盤レベルの失敗（トランザクション開始・コミット不能など）は error で返り、
// 部分的な結果は返しません。
func (o *Orchestrator[T]) Submit(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return Outcome{Status: StatusBusy, Message: "更新処理が実行中です"}, nil
	}
	o.inFlight = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	dirty := o.tracker.Dirty()
	if len(dirty) == 0 {
		return Outcome{Status: StatusNoChanges, Message: "更新するデータがありません"}, nil
	}

	// 未編集の行は検証対象外。既存データに不備があっても他の行の保存は妨げない。
	fieldErrors := make(map[int]FieldErrors)
	for _, e := range dirty {
		if errs := o.validate(e.Data); len(errs) > 0 {
			fieldErrors[e.UID] = errs
		}
	}
	if len(fieldErrors) > 0 {
		return Outcome{
			Status:      StatusInvalid,
			Message:     "入力内容を確認してください",
			FieldErrors: fieldErrors,
		}, nil
	}

	results, err := o.submit(ctx, dirty)
	if err != nil {
		return Outcome{}, err
	}

	if len(results) > 0 {
		o.tracker.AttachErrors(results)
		return Outcome{Status: StatusRowErrors, Message: "更新に失敗しました"}, nil
	}

	rows, err := o.reload(ctx)
	if err != nil {
		return Outcome{}, err
	}
	o.tracker.Load(rows)
	o.tracker.Select(0, 0)
	return Outcome{Status: StatusSuccess, Message: "更新しました"}, nil
}
