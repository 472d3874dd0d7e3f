package main

import (
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"juchu/client"
	"juchu/dashboard"
	"juchu/invoice"
	"juchu/loader"
	"juchu/order"
	"juchu/orderlist"
	"juchu/product"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB) {
	clientScreen := client.NewScreen(dbConn)
	if err := clientScreen.Reload(); err != nil {
		log.Printf("WARN: 得意先マスタの初期読み込みに失敗: %v", err)
	}
	productScreen := product.NewScreen(dbConn)
	if err := productScreen.Reload(); err != nil {
		log.Printf("WARN: 商品マスタの初期読み込みに失敗: %v", err)
	}
	orderScreen := order.NewScreen(dbConn)

	mux.HandleFunc("/api/clients/rows", clientScreen.RowsHandler())
	mux.HandleFunc("/api/clients/reload", clientScreen.ReloadHandler())
	mux.HandleFunc("/api/clients/add_row", clientScreen.AddRowHandler())
	mux.HandleFunc("/api/clients/copy_row", clientScreen.CopyRowHandler())
	mux.HandleFunc("/api/clients/delete_row", clientScreen.DeleteRowHandler())
	mux.HandleFunc("/api/clients/cancel_row", clientScreen.CancelRowHandler())
	mux.HandleFunc("/api/clients/edit", clientScreen.EditHandler())
	mux.HandleFunc("/api/clients/update", clientScreen.UpdateHandler())
	mux.HandleFunc("/api/clients/search", clientScreen.SearchHandler())
	mux.HandleFunc("/api/clients/import", clientScreen.ImportHandler())

	mux.HandleFunc("/api/products/rows", productScreen.RowsHandler())
	mux.HandleFunc("/api/products/reload", productScreen.ReloadHandler())
	mux.HandleFunc("/api/products/add_row", productScreen.AddRowHandler())
	mux.HandleFunc("/api/products/copy_row", productScreen.CopyRowHandler())
	mux.HandleFunc("/api/products/delete_row", productScreen.DeleteRowHandler())
	mux.HandleFunc("/api/products/cancel_row", productScreen.CancelRowHandler())
	mux.HandleFunc("/api/products/edit", productScreen.EditHandler())
	mux.HandleFunc("/api/products/update", productScreen.UpdateHandler())
	mux.HandleFunc("/api/products/search", productScreen.SearchHandler())

	mux.HandleFunc("/api/order/state", orderScreen.StateHandler())
	mux.HandleFunc("/api/order/load", orderScreen.LoadHandler())
	mux.HandleFunc("/api/order/new", orderScreen.NewHandler())
	mux.HandleFunc("/api/order/header", orderScreen.HeaderHandler())
	mux.HandleFunc("/api/order/add_row", orderScreen.AddRowHandler())
	mux.HandleFunc("/api/order/copy_row", orderScreen.CopyRowHandler())
	mux.HandleFunc("/api/order/delete_row", orderScreen.DeleteRowHandler())
	mux.HandleFunc("/api/order/cancel_row", orderScreen.CancelRowHandler())
	mux.HandleFunc("/api/order/edit", orderScreen.EditHandler())
	mux.HandleFunc("/api/order/register", orderScreen.RegisterHandler())
	mux.HandleFunc("/api/order/delete", orderScreen.DeleteHandler())

	mux.HandleFunc("/api/orders", orderlist.ListHandler(dbConn))
	mux.HandleFunc("/api/dashboard", dashboard.Handler(dbConn))
	mux.HandleFunc("/api/invoice", invoice.Handler(dbConn))

	mux.HandleFunc("/api/seed", loader.SeedHandler(dbConn))
	mux.HandleFunc("/api/reset", loader.ResetHandler(dbConn))

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetConfigHandler()(w, r)
		case http.MethodPost:
			SaveConfigHandler()(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
}
