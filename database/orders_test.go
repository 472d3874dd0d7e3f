package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juchu/app"
	"juchu/database"
	"juchu/model"
)

func TestNextOrderNo(t *testing.T) {
	db := newTestDB(t)

	no, err := database.NextOrderNo(db)
	require.NoError(t, err)
	assert.Equal(t, "000001", no)

	now := time.Now()
	_, err = db.Exec(`INSERT INTO orders (order_no, order_date, client_id, created_at, updated_at) VALUES ('000003', '2026-08-01', 1, ?, ?)`, now, now)
	require.NoError(t, err)
	// 数値でない受注番号は採番の対象外
	_, err = db.Exec(`INSERT INTO orders (order_no, order_date, client_id, created_at, updated_at) VALUES ('X-999999', '2026-08-01', 1, ?, ?)`, now, now)
	require.NoError(t, err)

	no, err = database.NextOrderNo(db)
	require.NoError(t, err)
	assert.Equal(t, "000004", no)
}

func TestCreateUpdateOrderRejectsCumulativeOverdraw(t *testing.T) {
	db := newTestDB(t)
	clientID := seedClient(t, db, "得意先A")
	productID := seedProduct(t, db, "P00001", 100, 10)

	// 同じ商品を2明細で6個ずつ。行単位では在庫10に収まるが、合計12個は超過。
	edit := model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{
			insertDetail(0, productID, 6),
			insertDetail(1, productID, 6),
		},
	}

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, results, err := database.CreateUpdateOrder(tx, edit)
	require.ErrorIs(t, err, database.ErrOrderAborted)
	require.NoError(t, tx.Rollback())

	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].UID)
	assert.Equal(t, "在庫が不足しています（在庫: 4, 必要: 6）", results[0].Error)

	// 書き込みはゼロのまま
	assert.Equal(t, 10, productQuantity(t, db, productID))
	assert.Equal(t, 0, countRows(t, db, "orders"))
	assert.Equal(t, 0, countRows(t, db, "order_details"))
}

func TestCreateUpdateOrderRejectsUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	clientID := seedClient(t, db, "得意先A")

	edit := model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, 999, 1)},
	}

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, results, err := database.CreateUpdateOrder(tx, edit)
	require.ErrorIs(t, err, database.ErrOrderAborted)
	require.NoError(t, tx.Rollback())

	require.Len(t, results, 1)
	assert.Equal(t, "商品が見つかりません", results[0].Error)
}

func TestOrderLifecycleAdjustsStock(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productID := seedProduct(t, db, "P00001", 100, 5)

	// 登録: 在庫5個を全部引き当てる
	orderNo, results, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, productID, 5)},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "000001", orderNo)
	assert.Equal(t, 0, productQuantity(t, db, productID))

	saved, err := svc.GetOrder(orderNo)
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, saved.OrderDetails, 1)
	assert.Equal(t, "得意先A", saved.Client.Name)
	assert.Equal(t, 500, saved.Total())
	detail := saved.OrderDetails[0]
	assert.NotEmpty(t, detail.ID)

	// 数量を減らす更新: 差分だけ在庫に戻る
	_, results, err = svc.CreateUpdate(model.OrderEdit{
		ID:        saved.ID,
		OrderNo:   saved.OrderNo,
		OrderDate: saved.OrderDate,
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{{
			OrderDetail: model.OrderDetail{ID: detail.ID, ProductID: productID, Quantity: 3},
			UID:         0,
			Operation:   model.OpUpdate,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, productQuantity(t, db, productID))

	// 明細の削除: 保存済み数量がそのまま在庫に戻る
	_, results, err = svc.CreateUpdate(model.OrderEdit{
		ID:        saved.ID,
		OrderNo:   saved.OrderNo,
		OrderDate: saved.OrderDate,
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{{
			OrderDetail: model.OrderDetail{ID: detail.ID, ProductID: productID, Quantity: 3},
			UID:         0,
			Operation:   model.OpDelete,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 5, productQuantity(t, db, productID))
	assert.Equal(t, 0, countRows(t, db, "order_details"))
}

func TestOrderUpdateSwapsProductStock(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productA := seedProduct(t, db, "P00001", 100, 10)
	productB := seedProduct(t, db, "P00002", 200, 10)

	orderNo, results, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, productA, 5)},
	})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, 5, productQuantity(t, db, productA))

	saved, err := svc.GetOrder(orderNo)
	require.NoError(t, err)
	detail := saved.OrderDetails[0]

	// 明細の商品を差し替える更新: 旧商品の在庫が全量戻り、新商品から引き当てる
	_, results, err = svc.CreateUpdate(model.OrderEdit{
		ID:        saved.ID,
		OrderNo:   saved.OrderNo,
		OrderDate: saved.OrderDate,
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{{
			OrderDetail: model.OrderDetail{ID: detail.ID, ProductID: productB, Quantity: 5},
			UID:         0,
			Operation:   model.OpUpdate,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 10, productQuantity(t, db, productA))
	assert.Equal(t, 5, productQuantity(t, db, productB))

	reloaded, err := svc.GetOrder(orderNo)
	require.NoError(t, err)
	require.Len(t, reloaded.OrderDetails, 1)
	assert.Equal(t, productB, reloaded.OrderDetails[0].ProductID)
}

func TestOrderUpdateProductSwapChecksNewProductStock(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productA := seedProduct(t, db, "P00001", 100, 10)
	productB := seedProduct(t, db, "P00002", 200, 3)

	orderNo, _, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, productA, 5)},
	})
	require.NoError(t, err)
	saved, err := svc.GetOrder(orderNo)
	require.NoError(t, err)
	detail := saved.OrderDetails[0]

	// 数量が同じでも、差し替え先の在庫で引き当て可否を判定する
	_, results, err := svc.CreateUpdate(model.OrderEdit{
		ID:        saved.ID,
		OrderNo:   saved.OrderNo,
		OrderDate: saved.OrderDate,
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{{
			OrderDetail: model.OrderDetail{ID: detail.ID, ProductID: productB, Quantity: 5},
			UID:         2,
			Operation:   model.OpUpdate,
		}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].UID)
	assert.Equal(t, "在庫が不足しています（在庫: 3, 必要: 5）", results[0].Error)

	// 中断なので両商品とも動かない
	assert.Equal(t, 5, productQuantity(t, db, productA))
	assert.Equal(t, 3, productQuantity(t, db, productB))
}

func TestOrderDeleteRestoresStoredProductStock(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productA := seedProduct(t, db, "P00001", 100, 10)
	productB := seedProduct(t, db, "P00002", 200, 10)

	orderNo, _, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, productA, 4)},
	})
	require.NoError(t, err)
	saved, err := svc.GetOrder(orderNo)
	require.NoError(t, err)
	detail := saved.OrderDetails[0]

	// 画面側で商品コードを書き換えてから削除しても、戻し先は保存済みの商品
	_, results, err := svc.CreateUpdate(model.OrderEdit{
		ID:        saved.ID,
		OrderNo:   saved.OrderNo,
		OrderDate: saved.OrderDate,
		ClientID:  clientID,
		Details: []model.OrderDetailEdit{{
			OrderDetail: model.OrderDetail{ID: detail.ID, ProductID: productB, Quantity: 4},
			UID:         0,
			Operation:   model.OpDelete,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 10, productQuantity(t, db, productA))
	assert.Equal(t, 10, productQuantity(t, db, productB))
}

func TestCreateUpdateOrderAbortIsBusinessResultNotError(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productID := seedProduct(t, db, "P00001", 100, 2)

	orderNo, results, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(7, productID, 3)},
	})
	require.NoError(t, err, "業務エラーは error にしない")
	assert.Empty(t, orderNo)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].UID)
	assert.Equal(t, 2, productQuantity(t, db, productID))
}

func TestDeleteOrderByNoKeepsStock(t *testing.T) {
	db := newTestDB(t)
	svc := app.NewOrderAppService(db)
	clientID := seedClient(t, db, "得意先A")
	productID := seedProduct(t, db, "P00001", 100, 5)

	orderNo, _, err := svc.CreateUpdate(model.OrderEdit{
		OrderDate: "2026-08-31",
		ClientID:  clientID,
		Details:   []model.OrderDetailEdit{insertDetail(0, productID, 3)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, productQuantity(t, db, productID))

	require.NoError(t, svc.DeleteOrder(orderNo))

	assert.Equal(t, 0, countRows(t, db, "orders"))
	assert.Equal(t, 0, countRows(t, db, "order_details"))
	// 受注の削除は在庫を戻さない
	assert.Equal(t, 2, productQuantity(t, db, productID))

	// 存在しない受注の削除は何もしない
	require.NoError(t, svc.DeleteOrder("999999"))
}

func TestFindOrderByNoReturnsNilWhenMissing(t *testing.T) {
	db := newTestDB(t)
	o, err := database.FindOrderByNo(db, "000001")
	require.NoError(t, err)
	assert.Nil(t, o)
}
