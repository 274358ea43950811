package models

// Asset is a tradable instrument tracked by the ingester.
// Symbol is unique (assets_symbol_key) so reference data can be upserted.
type Asset struct {
	ID     int32  `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
