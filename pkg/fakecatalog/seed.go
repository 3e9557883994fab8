package fakecatalog

import (
	"encoding/json"
	"os"

	"catalogadmin/pkg/catalog/domain/model"
)

type SeedJSON struct {
	Products []model.ProductDetail `json:"products"`
}

func LoadSeed(filePath string) ([]model.ProductDetail, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var data SeedJSON
	err = json.Unmarshal(file, &data)
	if err != nil {
		return nil, err
	}

	if data.Products == nil {
		return []model.ProductDetail{}, nil
	}

	return data.Products, nil
}

func SaveSeed(filePath string, products []model.ProductDetail) error {
	data := SeedJSON{
		Products: products,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, jsonData, 0666)
}
