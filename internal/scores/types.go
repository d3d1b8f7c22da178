package scores

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one finished game, the append-only history row.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"userId,omitempty"`
	PlayerName   string    `json:"playerName"`
	MaskedID     string    `json:"maskedId,omitempty"`
	Score        int       `json:"score"`
	Money        int       `json:"money"`
	Stage        int       `json:"stage"`
	CorrectCount int       `json:"correctCount"`
	WrongCount   int       `json:"wrongCount"`
	Achievements []string  `json:"achievements"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the per-user accumulated row. Totals only ever grow; the best
// score and its achievement snapshot are replaced on a new personal best.
// The wallet and cosmetics the shop operates on live here too.
type Profile struct {
	UserID              string     `json:"userId"`
	PlayerName          string     `json:"playerName"`
	MaskedID            string     `json:"maskedId,omitempty"`
	BestScore           int        `json:"score"`
	TotalMoney          int64      `json:"totalMoney"`
	TotalCorrect        int        `json:"totalCorrect"`
	TotalWrong          int        `json:"totalWrong"`
	Achievements        []string   `json:"achievements"`
	Inventory           []string   `json:"inventory"`
	ActiveTheme         string     `json:"activeTheme"`
	GoldenNameExpiresAt *time.Time `json:"goldenNameExpiresAt,omitempty"`
	LastPlayedAt        time.Time  `json:"lastPlayedAt"`
}

// GoldenAt reports whether the golden-name cosmetic is active at t.
func (p *Profile) GoldenAt(t time.Time) bool {
	return p.GoldenNameExpiresAt != nil && p.GoldenNameExpiresAt.After(t)
}
