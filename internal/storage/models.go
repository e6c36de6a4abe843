package storage

// Product is a catalog entry as shipped in products.json.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category string // Exact category match, empty matches all
	Query    string // Case-insensitive substring of the product name
}
