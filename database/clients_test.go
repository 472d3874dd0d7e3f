package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juchu/app"
	"juchu/database"
	"juchu/model"
)

func TestBulkApplyClientsContinuesPastRowFailures(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "既存商事")
	svc := app.NewClientAppService(db)

	results, err := svc.BulkCreateUpdate([]model.ClientEdit{
		{
			Client:    model.Client{Name: "既存商事", Email: "dup@example.com"},
			UID:       1,
			Operation: model.OpInsert,
		},
		{
			Client:    model.Client{Name: "新規物産", Email: "new@example.com"},
			UID:       2,
			Operation: model.OpInsert,
		},
	})
	require.NoError(t, err)

	// 重複した行だけが失敗し、残りの行は確定する
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].UID)
	assert.Equal(t, database.MsgDuplicate, results[0].Error)

	clients, err := svc.GetClients()
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "新規物産", clients[1].Name)
}

func TestBulkApplyClientsUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	id := seedClient(t, db, "改名前")
	id2 := seedClient(t, db, "消える商店")
	svc := app.NewClientAppService(db)

	results, err := svc.BulkCreateUpdate([]model.ClientEdit{
		{
			Client:    model.Client{ID: id, Name: "改名後", Email: "a@example.com", BusinessType: "小売"},
			UID:       0,
			Operation: model.OpUpdate,
		},
		{
			Client:    model.Client{ID: id2},
			UID:       1,
			Operation: model.OpDelete,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, results)

	clients, err := svc.GetClients()
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "改名後", clients[0].Name)
	assert.Equal(t, "小売", clients[0].BusinessType)
}

func TestUpsertClientInTxUpdatesByName(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "上書商事")

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = database.UpsertClientInTx(tx, model.Client{
		Name:         "上書商事",
		Email:        "updated@example.com",
		Prefecture:   "大阪府",
		BusinessType: "卸売",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	clients, err := database.GetAllClients(db)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "updated@example.com", clients[0].Email)
	assert.Equal(t, "大阪府", clients[0].Prefecture)
}

func TestSearchClientsIgnoresEmptyConditions(t *testing.T) {
	db := newTestDB(t)
	seeds := []model.Client{
		{Name: "東京商事", Prefecture: "東京都", BusinessType: "小売"},
		{Name: "大阪物産", Prefecture: "大阪府", BusinessType: "卸売"},
		{Name: "東京フーズ", Prefecture: "東京都", BusinessType: "卸売"},
	}
	tx, err := db.Beginx()
	require.NoError(t, err)
	for _, c := range seeds {
		require.NoError(t, database.UpsertClientInTx(tx, c))
	}
	require.NoError(t, tx.Commit())

	got, err := database.SearchClients(db, "東京", "", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = database.SearchClients(db, "東京", "東京都", "卸売")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "東京フーズ", got[0].Name)

	got, err = database.SearchClients(db, "", "", "")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
