package bulksave

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juchu/gridstate"
	"juchu/model"
)

type item struct {
	ID   int64
	Name string
}

func (i item) Key() string {
	if i.ID == 0 {
		return ""
	}
	return strconv.FormatInt(i.ID, 10)
}

func (i item) Clone() item { return i }

func (i item) CopyForInsert() item {
	dup := i
	dup.ID = 0
	return dup
}

func validateItem(i item) FieldErrors {
	if i.Name == "" {
		return FieldErrors{"name": "名前を入力してください"}
	}
	return nil
}

func TestSubmitWithNoChanges(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	tr.Load([]item{{ID: 1, Name: "既存"}})

	called := false
	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			called = true
			return nil, nil
		},
		func(ctx context.Context) ([]item, error) { return nil, nil })

	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoChanges, outcome.Status)
	assert.Equal(t, "更新するデータがありません", outcome.Message)
	assert.False(t, called)
}

func TestSubmitValidatesOnlyDirtyRows(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	// 既存データに不正な行（名前なし）があっても、未編集なら検証対象外
	tr.Load([]item{{ID: 1, Name: ""}})
	tr.AddRow(item{Name: "新規"})

	var submitted []gridstate.Entry[item]
	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			submitted = dirty
			return nil, nil
		},
		func(ctx context.Context) ([]item, error) {
			return []item{{ID: 1, Name: ""}, {ID: 2, Name: "新規"}}, nil
		})

	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	require.Len(t, submitted, 1)
	assert.Equal(t, "新規", submitted[0].Data.Name)
}

func TestSubmitAbortsOnValidationError(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	tr.Load(nil)
	added := tr.AddRow(item{Name: ""})

	called := false
	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			called = true
			return nil, nil
		},
		func(ctx context.Context) ([]item, error) { return nil, nil })

	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, outcome.Status)
	assert.False(t, called, "検証エラー時は保存を呼ばない")
	require.Contains(t, outcome.FieldErrors, added.UID)
	assert.Equal(t, "名前を入力してください", outcome.FieldErrors[added.UID]["name"])
}

func TestSubmitAttachesRowErrorsAndKeepsOperations(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	tr.Load(nil)
	added := tr.AddRow(item{Name: "重複"})

	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			return []model.RowResult{{UID: added.UID, Error: "データが重複しています"}}, nil
		},
		func(ctx context.Context) ([]item, error) { return nil, nil })

	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusRowErrors, outcome.Status)

	got, ok := tr.Get(added.UID)
	require.True(t, ok)
	assert.Equal(t, "データが重複しています", got.Error)
	// 編集区分は残り、修正して再送信できる
	assert.Equal(t, model.OpInsert, got.Operation)
}

func TestSubmitReloadsOnSuccess(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	tr.Load(nil)
	tr.AddRow(item{Name: "新規"})

	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			return nil, nil
		},
		func(ctx context.Context) ([]item, error) {
			return []item{{ID: 10, Name: "新規"}}, nil
		})

	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, "更新しました", outcome.Message)

	rows := tr.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].Data.ID)
	assert.Equal(t, model.OpNone, rows[0].Operation)
	row, col := tr.Selection()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestSubmitRejectsConcurrentRuns(t *testing.T) {
	tr := gridstate.NewTracker[item]()
	tr.Load(nil)
	tr.AddRow(item{Name: "新規"})

	entered := make(chan struct{})
	release := make(chan struct{})
	o := New(tr, validateItem,
		func(ctx context.Context, dirty []gridstate.Entry[item]) ([]model.RowResult, error) {
			close(entered)
			<-release
			return nil, nil
		},
		func(ctx context.Context) ([]item, error) { return []item{{ID: 1, Name: "新規"}}, nil })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.Submit(context.Background())
		assert.NoError(t, err)
	}()

	<-entered
	outcome, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, outcome.Status)
	assert.Equal(t, "更新処理が実行中です", outcome.Message)

	close(release)
	wg.Wait()
}
