package pricing

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/buildy-mcbuild/storefront/internal/domain/product"
)

// Writer stores price records. Both Repo and Memory implement it.
type Writer interface {
	Put(ctx context.Context, p product.Price) error
}

type priceRecord struct {
	SKU      string  `yaml:"sku"`
	Amount   float64 `yaml:"amount"`
	Currency string  `yaml:"currency"`
	Stock    int     `yaml:"stock"`
}

type priceFile struct {
	Prices []priceRecord `yaml:"prices"`
}

// LoadPrices reads price records from a YAML or JSON file, either a
// {prices: [...]} object or a bare list.
func LoadPrices(path string) ([]product.Price, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, fmt.Errorf("read prices %s: %w", path, err)
	}
	return ParsePrices(data)
}

// ParsePrices decodes price records.
func ParsePrices(data []byte) ([]product.Price, error) {
	var records []priceRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		var file priceFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse prices: %w", err)
		}
		records = file.Prices
	}

	out := make([]product.Price, len(records))
	for i, r := range records {
		if r.SKU == "" {
			return nil, fmt.Errorf("price %d: missing sku", i)
		}
		out[i] = product.Price{SKU: r.SKU, Amount: r.Amount, Currency: r.Currency, Stock: r.Stock}
	}
	return out, nil
}

// Seed writes prices in order and stops at the first failure. progress, if
// set, receives the number of records written so far.
func Seed(ctx context.Context, w Writer, prices []product.Price, progress func(done int)) (int, error) {
	for i, p := range prices {
		if err := w.Put(ctx, p); err != nil {
			return i, fmt.Errorf("seed %s: %w", p.SKU, err)
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return len(prices), nil
}
