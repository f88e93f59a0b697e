package entity

// SupportedToken is one entry of the fixed staking catalog: a token the
// dashboard offers staking for.
type SupportedToken struct {
	Symbol  string `json:"symbol" yaml:"symbol"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// LockOption is one configured lock period a stake may choose.
type LockOption struct {
	Days int    `json:"days" yaml:"days"`
	APY  string `json:"apy" yaml:"apy"` // advertised yield, display only
}
