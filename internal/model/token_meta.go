package model

// TokenMeta captures ERC20 metadata for a pool currency.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Native   bool   `json:"native,omitempty"`
}
