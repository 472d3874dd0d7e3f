package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"juchu/model"
)

// ErrOrderAborted は受注トランザクションが業務エラーで中断したことを示します。
// 行別の失敗内容は RowResult 側に入っています。
// 得意先・商品の一括更新と違い、受注は1行でも失敗したら全体を確定しません。
// 在庫の部分的な更新は、更新しないことより悪いためです。
var ErrOrderAborted = errors.New("order transaction aborted")

func FindAllOrders(dbtx DBTX) ([]model.Order, error) {
	orders := []model.Order{}
	if err := dbtx.Select(&orders, `SELECT * FROM orders ORDER BY order_no`); err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	for i := range orders {
		if err := populateOrder(dbtx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func FindOrderByNo(dbtx DBTX, orderNo string) (*model.Order, error) {
	var o model.Order
	err := dbtx.Get(&o, `SELECT * FROM orders WHERE order_no = ?`, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderNo, err)
	}
	if err := populateOrder(dbtx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// populateOrder は表示用に得意先と明細の商品を結合します。
// 参照先が欠けていてもエラーにせず、ゼロ値のままにします。
func populateOrder(dbtx DBTX, o *model.Order) error {
	var c model.Client
	err := dbtx.Get(&c, `SELECT * FROM clients WHERE id = ?`, o.ClientID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to join client for order %s: %w", o.OrderNo, err)
	}
	o.Client = c

	details := []model.OrderDetail{}
	err = dbtx.Select(&details, `SELECT * FROM order_details WHERE order_id = ? ORDER BY created_at, id`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to get details for order %s: %w", o.OrderNo, err)
	}
	for i := range details {
		var p model.Product
		err := dbtx.Get(&p, `SELECT * FROM products WHERE id = ?`, details[i].ProductID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to join product for order %s: %w", o.OrderNo, err)
		}
		details[i].Product = p
	}
	o.OrderDetails = details
	return nil
}

func GetOrderDetailByID(dbtx DBTX, id string) (*model.OrderDetail, error) {
	var d model.OrderDetail
	err := dbtx.Get(&d, `SELECT * FROM order_details WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NextOrderNo は既存の受注番号のうち数値のものの最大値+1を6桁ゼロ埋めで返します。
// 1件もなければ "000001" です。番号はスキャンで採番するため同時書き込みには
// 耐えませんが、単一ユーザーのローカルストアでは問題になりません。
func NextOrderNo(dbtx DBTX) (string, error) {
	var orderNos []string
	if err := dbtx.Select(&orderNos, `SELECT order_no FROM orders`); err != nil {
		return "", fmt.Errorf("failed to scan order numbers: %w", err)
	}
	maxNo := 0
	for _, no := range orderNos {
		n, err := strconv.Atoi(no)
		if err != nil {
			continue
		}
		if n > maxNo {
			maxNo = n
		}
	}
	return fmt.Sprintf("%06d", maxNo+1), nil
}

// detailPlan は検証フェーズで確定した明細1行分の書き込み計画です。
type detailPlan struct {
	edit         model.OrderDetailEdit
	oldQty       int   // update/delete 時の保存済み数量
	oldProductID int64 // update/delete 時の保存済み商品
	diff         int   // 商品が変わらない update の数量差分
}

// CreateUpdateOrder は受注ヘッダと編集済み明細を2フェーズで保存します。
//
// フェーズ1（検証）: 商品ごとの数量増減を台帳 (ledger) に積みながら、
// 挿入・更新の各行が在庫を超えないか確認します。台帳を使うのは、同一商品を
// 参照する明細が同じ送信に複数あり得るためで、保存済み在庫と行単位で突き合わせる
// だけでは行をまたいだ超過を見逃します。不足が見つかった時点で全体を中断します。
//
// フェーズ2（確定）: ヘッダを upsert し（新規なら受注番号を採番）、明細の
// 書き込みと商品在庫の増減を対で実行します。ここでの失敗も行エラーに変換した
// うえで全体を中断します。
//
// 戻り値: 保存した受注番号（新規なら採番結果）と行別の結果です。業務エラーでの
// 中断は (results, ErrOrderAborted)。基盤レベルの失敗はそのまま error で返し、
// 握りつぶしません。ロールバックは呼び出し側の責務です。
func CreateUpdateOrder(tx *sqlx.Tx, edit model.OrderEdit) (string, []model.RowResult, error) {
	var results []model.RowResult
	now := time.Now()

	// フェーズ1: 検証
	ledger := make(map[int64]int)
	var plans []detailPlan
	for _, d := range edit.Details {
		if !d.Operation.Dirty() {
			continue
		}

		product, err := GetProductByID(tx, d.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				results = append(results, model.RowResult{UID: d.UID, Error: "商品が見つかりません"})
				return "", results, ErrOrderAborted
			}
			return "", nil, fmt.Errorf("failed to get product %d for validation: %w", d.ProductID, err)
		}

		plan := detailPlan{edit: d}
		switch d.Operation {
		case model.OpInsert:
			available := product.Quantity - ledger[d.ProductID]
			if available < d.Quantity {
				results = append(results, model.RowResult{
					UID:   d.UID,
					Error: fmt.Sprintf("在庫が不足しています（在庫: %d, 必要: %d）", available, d.Quantity),
				})
				return "", results, ErrOrderAborted
			}
			ledger[d.ProductID] += d.Quantity

		case model.OpUpdate:
			old, err := GetOrderDetailByID(tx, d.ID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					results = append(results, model.RowResult{UID: d.UID, Error: "更新対象の明細が見つかりません"})
					return "", results, ErrOrderAborted
				}
				return "", nil, fmt.Errorf("failed to get detail %s for validation: %w", d.ID, err)
			}
			plan.oldQty = old.Quantity
			plan.oldProductID = old.ProductID
			if old.ProductID != d.ProductID {
				// 商品の差し替えは「旧商品の解放 + 新商品の引き当て」として扱う。
				// 差分だけを動かすと旧商品の在庫が戻らない。
				ledger[old.ProductID] -= old.Quantity
				available := product.Quantity - ledger[d.ProductID]
				if available < d.Quantity {
					results = append(results, model.RowResult{
						UID:   d.UID,
						Error: fmt.Sprintf("在庫が不足しています（在庫: %d, 必要: %d）", available, d.Quantity),
					})
					return "", results, ErrOrderAborted
				}
				ledger[d.ProductID] += d.Quantity
			} else if plan.diff = d.Quantity - old.Quantity; plan.diff != 0 {
				available := product.Quantity - ledger[d.ProductID]
				if available < plan.diff {
					results = append(results, model.RowResult{
						UID:   d.UID,
						Error: fmt.Sprintf("在庫が不足しています（在庫: %d, 必要: %d）", available, plan.diff),
					})
					return "", results, ErrOrderAborted
				}
				ledger[d.ProductID] += plan.diff
			}

		case model.OpDelete:
			old, err := GetOrderDetailByID(tx, d.ID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					// すでに消えている明細の削除は在庫を動かさない
					continue
				}
				return "", nil, fmt.Errorf("failed to get detail %s for validation: %w", d.ID, err)
			}
			plan.oldQty = old.Quantity
			plan.oldProductID = old.ProductID
			ledger[old.ProductID] -= old.Quantity
		}
		plans = append(plans, plan)
	}

	// フェーズ2: 確定
	orderID := edit.ID
	orderNo := edit.OrderNo
	if orderID == 0 {
		var err error
		orderNo, err = NextOrderNo(tx)
		if err != nil {
			return "", nil, err
		}
		res, err := tx.Exec(`
			INSERT INTO orders (order_no, order_date, client_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			orderNo, edit.OrderDate, edit.ClientID, now, now)
		if err != nil {
			return "", nil, fmt.Errorf("failed to insert order header: %w", err)
		}
		orderID, err = res.LastInsertId()
		if err != nil {
			return "", nil, fmt.Errorf("failed to get new order id: %w", err)
		}
		log.Printf("INFO: [orders] 受注番号 %s を採番しました", orderNo)
	} else {
		_, err := tx.Exec(`
			UPDATE orders SET order_date = ?, client_id = ?, updated_at = ? WHERE id = ?`,
			edit.OrderDate, edit.ClientID, now, orderID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to update order header: %w", err)
		}
	}

	for _, plan := range plans {
		d := plan.edit
		var err error
		switch d.Operation {
		case model.OpInsert:
			_, err = tx.Exec(`
				INSERT INTO order_details (id, order_id, product_id, quantity, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), orderID, d.ProductID, d.Quantity, now, now)
			if err == nil {
				err = AdjustProductQuantity(tx, d.ProductID, -d.Quantity, now)
			}
		case model.OpUpdate:
			_, err = tx.Exec(`
				UPDATE order_details SET product_id = ?, quantity = ?, updated_at = ? WHERE id = ?`,
				d.ProductID, d.Quantity, now, d.ID)
			if err == nil {
				if plan.oldProductID != d.ProductID {
					err = AdjustProductQuantity(tx, plan.oldProductID, plan.oldQty, now)
					if err == nil {
						err = AdjustProductQuantity(tx, d.ProductID, -d.Quantity, now)
					}
				} else if plan.diff != 0 {
					err = AdjustProductQuantity(tx, d.ProductID, -plan.diff, now)
				}
			}
		case model.OpDelete:
			_, err = tx.Exec(`DELETE FROM order_details WHERE id = ?`, d.ID)
			if err == nil {
				err = AdjustProductQuantity(tx, plan.oldProductID, plan.oldQty, now)
			}
		}
		if err != nil {
			log.Printf("WARN: [orders] uid=%d op=%s の保存に失敗: %v", d.UID, d.Operation, err)
			results = append(results, model.RowResult{UID: d.UID, Error: TranslateError(err)})
			return "", results, ErrOrderAborted
		}
	}

	return orderNo, results, nil
}

// DeleteOrderByNo は受注をヘッダごと削除します。明細も併せて消します。
func DeleteOrderByNo(tx *sqlx.Tx, orderNo string) error {
	var o model.Order
	err := tx.Get(&o, `SELECT * FROM orders WHERE order_no = ?`, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to get order %s for delete: %w", orderNo, err)
	}
	if _, err := tx.Exec(`DELETE FROM order_details WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("failed to delete details of order %s: %w", orderNo, err)
	}
	if _, err := tx.Exec(`DELETE FROM orders WHERE id = ?`, o.ID); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", orderNo, err)
	}
	return nil
}
