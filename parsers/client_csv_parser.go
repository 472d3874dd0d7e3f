package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"juchu/model"
)

// ParseClientCSV は得意先マスタCSVを解析します。
// 必須ヘッダーは name のみで、その他の列は存在すれば取り込みます。
func ParseClientCSV(file io.Reader) ([]model.Client, error) {
	reader := csv.NewReader(DecodeJapanese(file))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み取りに失敗: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"name"})
	if err != nil {
		return nil, err
	}

	get := func(record []string, col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var clients []model.Client
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%d行目の読み取りに失敗: %w", line, err)
		}

		name := get(record, "name")
		if name == "" {
			continue
		}
		clients = append(clients, model.Client{
			Name:         name,
			Email:        get(record, "email"),
			Phone:        get(record, "phone"),
			PostalCode:   get(record, "postal_code"),
			Prefecture:   get(record, "prefecture"),
			BusinessType: get(record, "business_type"),
		})
	}
	return clients, nil
}
