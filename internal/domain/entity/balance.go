package entity

// Balance represents the amount of a specific token held by a wallet.
// Amount and USDValue are decimal strings exactly as reported by the wallet
// integration; they are never parsed into floats for storage.
type Balance struct {
	Token    string `json:"token" yaml:"token"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Amount   string `json:"amount" yaml:"amount"`
	USDValue string `json:"usdValue,omitempty" yaml:"usdValue,omitempty"`
}
