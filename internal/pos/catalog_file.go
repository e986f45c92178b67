package pos

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/desims/tokobangunansaya/internal/repo"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Items []NewItem `yaml:"items"`
}

// LoadCatalog reads a YAML catalog of the form
//
//	items:
//	  - code: CEM01
//	    name: Cement 40kg
//	    unit: sak
//	    cost_price: 50000
//	    sale_price: 65000
//	    quantity: 100
func LoadCatalog(r io.Reader) ([]NewItem, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []NewItem{}, nil
		}
		return nil, fmt.Errorf("%w: catalog file: %v", ErrInvalidArgument, err)
	}

	seen := make(map[string]int, len(file.Items))
	for i, item := range file.Items {
		if item.Code == "" {
			return nil, fmt.Errorf("%w: catalog entry %d has no code", ErrInvalidArgument, i+1)
		}
		if first, ok := seen[item.Code]; ok {
			return nil, fmt.Errorf("%w: code %s appears in entries %d and %d", ErrInvalidArgument, item.Code, first, i+1)
		}
		seen[item.Code] = i + 1
	}

	if file.Items == nil {
		return []NewItem{}, nil
	}
	return file.Items, nil
}

// ImportResult reports what a bulk import did
type ImportResult struct {
	Added   []string          `json:"added"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Import adds every item through backend. Codes already in the catalog are
// skipped; other failures are collected and do not stop the import.
func Import(ctx context.Context, backend Backend, items []NewItem) ImportResult {
	result := ImportResult{Added: []string{}, Skipped: []string{}}
	for _, item := range items {
		_, err := backend.AddItem(ctx, item)
		switch {
		case err == nil:
			result.Added = append(result.Added, item.Code)
		case errors.Is(err, repo.ErrDuplicateCode):
			result.Skipped = append(result.Skipped, item.Code)
		default:
			if result.Failed == nil {
				result.Failed = map[string]string{}
			}
			result.Failed[item.Code] = Describe(err)
		}
	}
	return result
}
