package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	DummyClientCount  int    `json:"dummyClientCount"`
	DummyProductCount int    `json:"dummyProductCount"`
	CompanyName       string `json:"companyName"`
	CompanyPostalCode string `json:"companyPostalCode"`
	CompanyAddress    string `json:"companyAddress"`
	CompanyTel        string `json:"companyTel"`
	CompanyFax        string `json:"companyFax"`
	CompanyEmail      string `json:"companyEmail"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./juchu_config.json"

// defaults は未設定の項目に既定値を埋めます。
// 会社情報は請求書のヘッダに印字されます。
func defaults(c Config) Config {
	if c.DummyClientCount == 0 {
		c.DummyClientCount = 10000
	}
	if c.DummyProductCount == 0 {
		c.DummyProductCount = 100
	}
	if c.CompanyName == "" {
		c.CompanyName = "株式会社日本サンプル"
	}
	if c.CompanyPostalCode == "" {
		c.CompanyPostalCode = "123-1234"
	}
	if c.CompanyAddress == "" {
		c.CompanyAddress = "東京都新宿区○○○1-2-3"
	}
	if c.CompanyTel == "" {
		c.CompanyTel = "03-1234-5678"
	}
	if c.CompanyFax == "" {
		c.CompanyFax = "03-1234-5679"
	}
	if c.CompanyEmail == "" {
		c.CompanyEmail = "info@example.com"
	}
	return c
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = defaults(Config{})
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	cfg = defaults(tempCfg)

	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	newCfg = defaults(newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return defaults(cfg)
}
