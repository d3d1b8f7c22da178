package economy

// Item identifiers sold by the shop. Themes are permanent and live in the
// profile inventory; retry passes and golden names are consumables.
const (
	ItemRetryPass    = "retry_pass"
	ItemGoldenName   = "golden_name"
	ItemThemeDefault = "theme_default"
	ItemThemeMatrix  = "theme_matrix"
	ItemThemeRetro   = "theme_retro"
	ItemThemeGold    = "theme_gold"
)

// prices in coins; 0 marks the free default.
var prices = map[string]int64{
	ItemRetryPass:    5000,
	ItemGoldenName:   5000,
	ItemThemeDefault: 0,
	ItemThemeMatrix:  2500,
	ItemThemeRetro:   2500,
	ItemThemeGold:    2500,
}

// DayStats is one user's per-day play record.
type DayStats struct {
	UserID       string `json:"userId"`
	PlayDate     string `json:"playDate"`
	Attempts     int    `json:"attempts"`
	HasRetryPass bool   `json:"hasRetryPass"`
}

// MaxAttempts is the per-day play limit: one game, or two with a retry pass.
func (s *DayStats) MaxAttempts() int {
	if s.HasRetryPass {
		return 2
	}
	return 1
}
