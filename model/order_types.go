package model

import "time"

type Order struct {
	ID        int64     `db:"id" json:"id"`
	OrderNo   string    `db:"order_no" json:"orderNo"`
	OrderDate string    `db:"order_date" json:"orderDate"`
	ClientID  int64     `db:"client_id" json:"clientId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// 読み取り時に結合されるデータ。永続化はされません。
	Client       Client        `db:"-" json:"client"`
	OrderDetails []OrderDetail `db:"-" json:"orderDetails"`
}

// Total は明細の小計（数量×商品単価）の合計を返します。
func (o Order) Total() int {
	total := 0
	for _, d := range o.OrderDetails {
		total += d.Subtotal()
	}
	return total
}

type OrderDetail struct {
	ID        string    `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"orderId"`
	ProductID int64     `db:"product_id" json:"productId"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// 表示用の商品スナップショット。読み取り時に product_id で結合されます。
	Product Product `db:"-" json:"product"`
}

// Key は明細の永続ID（UUID）です。未保存の行は空文字です。
func (d OrderDetail) Key() string {
	return d.ID
}

func (d OrderDetail) Clone() OrderDetail {
	return d
}

// CopyForInsert は永続IDをクリアした複製を返します。
// 小計は計算項目なのでコピー対象がありません。
func (d OrderDetail) CopyForInsert() OrderDetail {
	dup := d
	dup.ID = ""
	dup.OrderID = 0
	return dup
}

// Subtotal は明細の小計（円）です。格納せず毎回計算します。
func (d OrderDetail) Subtotal() int {
	return int(d.Product.Price) * d.Quantity
}

// OrderDetailEdit は受注登録で送信される明細1行分です。
type OrderDetailEdit struct {
	OrderDetail
	UID       int       `json:"uid"`
	Operation Operation `json:"operation"`
}

// OrderEdit は受注登録1回分の送信内容です。ヘッダと編集済み明細を持ちます。
type OrderEdit struct {
	ID        int64             `json:"id"`
	OrderNo   string            `json:"orderNo"`
	OrderDate string            `json:"orderDate"`
	ClientID  int64             `json:"clientId"`
	Details   []OrderDetailEdit `json:"details"`
}
