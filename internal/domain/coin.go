package domain

// Coin is a single inventory record inside one tenant's collection.
type Coin struct {
	ID       int64
	Name     string
	Country  string
	Century  string
	Quantity int64
}

// CoinFilter narrows a listing. Zero-value fields impose no constraint;
// Quantity only applies when HasQuantity is set, so an exact match on 0
// remains expressible.
type CoinFilter struct {
	Country     string
	Century     string
	Quantity    int64
	HasQuantity bool
}
