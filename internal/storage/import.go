package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type catalogFile struct {
	Products []Product `json:"products"`
}

// ImportCatalog loads a products.json document ({"products":[...]}) into the repo.
// Entries are upserted by ID, so importing the same file twice is a no-op.
// It returns the number of products imported.
func ImportCatalog(ctx context.Context, repo *ProductRepo, r io.Reader) (int, error) {
	var file catalogFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return 0, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i, p := range file.Products {
		if err := repo.Upsert(ctx, p); err != nil {
			return i, err
		}
	}

	return len(file.Products), nil
}

// ImportCatalogFile is ImportCatalog for a file on disk.
func ImportCatalogFile(ctx context.Context, repo *ProductRepo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return ImportCatalog(ctx, repo, f)
}
