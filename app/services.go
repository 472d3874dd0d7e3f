// Package app は画面とリポジトリの間の薄いアプリケーションサービスです。
// トランザクション境界の管理以外の業務ロジックは持ちません。
package app

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"juchu/database"
	"juchu/model"
)

type ClientAppService struct {
	db *sqlx.DB
}

func NewClientAppService(db *sqlx.DB) *ClientAppService {
	return &ClientAppService{db: db}
}

func (s *ClientAppService) GetClients() ([]model.Client, error) {
	return database.GetAllClients(s.db)
}

func (s *ClientAppService) SearchClients(name, prefecture, businessType string) ([]model.Client, error) {
	return database.SearchClients(s.db, name, prefecture, businessType)
}

// BulkCreateUpdate は編集済みの得意先行を1トランザクションで適用します。
// 行単位の失敗があってもトランザクションはコミットし、失敗行だけを返します。
func (s *ClientAppService) BulkCreateUpdate(edits []model.ClientEdit) ([]model.RowResult, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin client bulk update: %w", err)
	}
	defer tx.Rollback()

	results := database.BulkApplyClients(tx, edits)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit client bulk update: %w", err)
	}
	return results, nil
}

type ProductAppService struct {
	db *sqlx.DB
}

func NewProductAppService(db *sqlx.DB) *ProductAppService {
	return &ProductAppService{db: db}
}

func (s *ProductAppService) GetProducts() ([]model.Product, error) {
	return database.GetAllProducts(s.db)
}

func (s *ProductAppService) GetProductByCode(code string) (*model.Product, error) {
	return database.GetProductByCode(s.db, code)
}

func (s *ProductAppService) SearchProducts(code, name, category string) ([]model.Product, error) {
	return database.SearchProducts(s.db, code, name, category)
}

func (s *ProductAppService) BulkCreateUpdate(edits []model.ProductEdit) ([]model.RowResult, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin product bulk update: %w", err)
	}
	defer tx.Rollback()

	results := database.BulkApplyProducts(tx, edits)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product bulk update: %w", err)
	}
	return results, nil
}

type OrderAppService struct {
	db *sqlx.DB
}

func NewOrderAppService(db *sqlx.DB) *OrderAppService {
	return &OrderAppService{db: db}
}

func (s *OrderAppService) GetOrders() ([]model.Order, error) {
	return database.FindAllOrders(s.db)
}

func (s *OrderAppService) GetOrder(orderNo string) (*model.Order, error) {
	return database.FindOrderByNo(s.db, orderNo)
}

// CreateUpdate は受注1件を保存します。在庫不足などの業務エラーで中断した
// 場合は行別の失敗を返してロールバックし、基盤レベルの失敗は error で返します。
// 確定できたときは保存した受注番号（新規なら採番結果）を返します。
func (s *OrderAppService) CreateUpdate(edit model.OrderEdit) (string, []model.RowResult, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return "", nil, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderNo, results, err := database.CreateUpdateOrder(tx, edit)
	if err != nil {
		if errors.Is(err, database.ErrOrderAborted) {
			return "", results, nil
		}
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return orderNo, results, nil
}

func (s *OrderAppService) DeleteOrder(orderNo string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin order delete: %w", err)
	}
	defer tx.Rollback()

	if err := database.DeleteOrderByNo(tx, orderNo); err != nil {
		return err
	}
	return tx.Commit()
}
