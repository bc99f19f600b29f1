package models

// Asset is a balance-holding position inside an account, such as a KRW cash balance or a stock.
type Asset struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
}

// AssetIndex is a static asset snapshot keyed by id.
type AssetIndex map[string]Asset

// NewAssetIndex indexes assets by id.
func NewAssetIndex(assets []Asset) AssetIndex {
	idx := make(AssetIndex, len(assets))
	for _, a := range assets {
		idx[a.ID] = a
	}
	return idx
}

// LookupAsset returns the asset with the given id.
func (idx AssetIndex) LookupAsset(id string) (Asset, bool) {
	a, ok := idx[id]
	return a, ok
}
