package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trivia-rush/server/internal/scores"
)

var (
	ErrInvalidItem       = errors.New("unknown shop item")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// StatsStore is the persistence boundary for per-day attempt rows.
type StatsStore interface {
	Get(ctx context.Context, userID, date string) (*DayStats, error)
	Create(ctx context.Context, stats *DayStats) error
	IncrementAttempts(ctx context.Context, userID, date string) error
	GrantRetryPass(ctx context.Context, userID, date string) error
}

// ProfileStore reads and writes the accumulated row the wallet lives on.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*scores.Profile, error)
	UpdateProfile(ctx context.Context, p *scores.Profile) error
}

// Service implements the attempt gate and the shop.
type Service struct {
	stats    StatsStore
	profiles ProfileStore
	loc      *time.Location
	logger   zerolog.Logger

	now func() time.Time
}

func NewService(stats StatsStore, profiles ProfileStore, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{
		stats:    stats,
		profiles: profiles,
		loc:      loc,
		logger:   logger.With().Str("component", "economy").Logger(),
		now:      time.Now,
	}
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// AttemptDecision is the attempt gate's verdict.
type AttemptDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckAttempt consumes one of the user's daily attempts, creating today's
// row on first contact. A missing user ID allows the game (guest mode). The
// counter moves before play begins, so an abandoned game still counts.
func (s *Service) CheckAttempt(ctx context.Context, userID string) (*AttemptDecision, error) {
	if userID == "" {
		return &AttemptDecision{Allowed: true}, nil
	}

	date := s.today()
	stats, err := s.stats.Get(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load day stats: %w", err)
	}
	if stats == nil {
		stats = &DayStats{UserID: userID, PlayDate: date}
		if err := s.stats.Create(ctx, stats); err != nil {
			return nil, fmt.Errorf("create day stats: %w", err)
		}
	}

	if stats.Attempts >= stats.MaxAttempts() {
		reason := "needs_pass"
		if stats.Attempts >= 2 {
			reason = "daily_limit_reached"
		}
		return &AttemptDecision{Allowed: false, Reason: reason}, nil
	}

	if err := s.stats.IncrementAttempts(ctx, userID, date); err != nil {
		return nil, fmt.Errorf("increment attempts: %w", err)
	}
	return &AttemptDecision{Allowed: true}, nil
}

// ShopStatus is the GET /v1/shop payload: wallet, cosmetics, and today's
// attempt state in one round trip.
type ShopStatus struct {
	Balance      int64    `json:"balance"`
	Inventory    []string `json:"inventory"`
	ActiveTheme  string   `json:"activeTheme"`
	IsGolden     bool     `json:"isGolden"`
	Attempts     int      `json:"attempts"`
	HasRetryPass bool     `json:"hasRetryPass"`
}

func (s *Service) Status(ctx context.Context, userID string) (*ShopStatus, error) {
	status := &ShopStatus{Inventory: []string{}, ActiveTheme: "default"}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil {
		status.Balance = profile.TotalMoney
		status.Inventory = profile.Inventory
		if profile.ActiveTheme != "" {
			status.ActiveTheme = profile.ActiveTheme
		}
		status.IsGolden = profile.GoldenAt(s.now())
	}

	stats, err := s.stats.Get(ctx, userID, s.today())
	if err != nil {
		return nil, fmt.Errorf("load day stats: %w", err)
	}
	if stats != nil {
		status.Attempts = stats.Attempts
		status.HasRetryPass = stats.HasRetryPass
	}
	return status, nil
}

// PurchaseResult reports the wallet after a purchase or re-activation.
type PurchaseResult struct {
	Success    bool   `json:"success"`
	NewBalance int64  `json:"newBalance"`
	Message    string `json:"message,omitempty"`
}

// Purchase buys or re-activates an item. Consumables (retry pass, golden
// name) always charge; a theme already in the inventory re-activates for
// free; the default theme is always owned.
func (s *Service) Purchase(ctx context.Context, userID, itemID string) (*PurchaseResult, error) {
	cost, ok := prices[itemID]
	if !ok {
		return nil, ErrInvalidItem
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var balance int64
	if profile != nil {
		balance = profile.TotalMoney
	}

	consumable := itemID == ItemRetryPass || itemID == ItemGoldenName
	owned := itemID == ItemThemeDefault
	if profile != nil {
		for _, have := range profile.Inventory {
			if have == itemID {
				owned = true
				break
			}
		}
	}

	if !consumable && owned {
		if profile != nil {
			profile.ActiveTheme = activeThemeValue(itemID)
			if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
				return nil, fmt.Errorf("activate %s: %w", itemID, err)
			}
		}
		return &PurchaseResult{Success: true, NewBalance: balance, Message: "Activated"}, nil
	}

	if balance < cost {
		return nil, ErrInsufficientFunds
	}

	profile.TotalMoney = balance - cost
	switch {
	case itemID == ItemRetryPass:
		if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("charge retry pass: %w", err)
		}
		if err := s.stats.GrantRetryPass(ctx, userID, s.today()); err != nil {
			return nil, fmt.Errorf("grant retry pass: %w", err)
		}
	case itemID == ItemGoldenName:
		expiry := s.now().Add(24 * time.Hour)
		profile.GoldenNameExpiresAt = &expiry
		if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("charge golden name: %w", err)
		}
	default:
		profile.Inventory = append(profile.Inventory, itemID)
		profile.ActiveTheme = activeThemeValue(itemID)
		if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("charge %s: %w", itemID, err)
		}
	}

	s.logger.Info().Str("user", userID).Str("item", itemID).Int64("cost", cost).Msg("purchase complete")
	return &PurchaseResult{Success: true, NewBalance: profile.TotalMoney}, nil
}

func activeThemeValue(itemID string) string {
	if itemID == ItemThemeDefault {
		return "default"
	}
	return itemID
}
