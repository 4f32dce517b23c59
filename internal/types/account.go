package types

// AccountInfo is a snapshot of the trading account state at the venue.
type AccountInfo struct {
	Balance    float64 `yaml:"balance" json:"balance"`
	Equity     float64 `yaml:"equity" json:"equity"`
	Margin     float64 `yaml:"margin" json:"margin"`
	FreeMargin float64 `yaml:"free_margin" json:"free_margin"`
	Currency   string  `yaml:"currency" json:"currency"`
}
