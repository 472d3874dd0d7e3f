package model

import (
	"strconv"
	"time"
)

type Client struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PostalCode   string    `db:"postal_code" json:"postalCode"`
	Prefecture   string    `db:"prefecture" json:"prefecture"`
	BusinessType string    `db:"business_type" json:"businessType"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Key は永続IDを文字列で返します。未保存の行は空文字です。
func (c Client) Key() string {
	if c.ID == 0 {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}

func (c Client) Clone() Client {
	return c
}

// CopyForInsert は行コピー用の複製を返します。
// 永続IDと会社名（重複制約のある代表項目）はクリアします。
func (c Client) CopyForInsert() Client {
	dup := c
	dup.ID = 0
	dup.Name = ""
	return dup
}

type Product struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (p Product) Key() string {
	if p.ID == 0 {
		return ""
	}
	return strconv.FormatInt(p.ID, 10)
}

func (p Product) Clone() Product {
	return p
}

// CopyForInsert は永続IDと商品コード（UNIQUE制約）をクリアした複製を返します。
func (p Product) CopyForInsert() Product {
	dup := p
	dup.ID = 0
	dup.Code = ""
	return dup
}

// ClientEdit は一括更新で送信される得意先1行分です。
type ClientEdit struct {
	Client
	UID       int       `json:"uid"`
	Operation Operation `json:"operation"`
}

// ProductEdit は一括更新で送信される商品1行分です。
type ProductEdit struct {
	Product
	UID       int       `json:"uid"`
	Operation Operation `json:"operation"`
}
