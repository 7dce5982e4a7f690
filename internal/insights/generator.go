// Package insights derives rule-based observations from the KPI
// aggregates: week-over-week revenue drops, the strongest sales channel,
// and a default all-clear when nothing stands out.
package insights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/kpi"
)

// Insight is one rule-based observation with a suggested follow-up.
type Insight struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	SuggestedAction string    `json:"suggested_action"`
}

const (
	TypeRevenueDrop = "revenue_drop"
	TypeBestChannel = "best_channel"
	TypeGeneral     = "general"
)

// revenueDropThreshold is the week-over-week fraction below which a drop
// is worth surfacing.
const revenueDropThreshold = 0.1

type Generator struct {
	kpis *kpi.Service
}

func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{kpis: kpi.NewService(db)}
}

// Insights evaluates the rule set against current KPI data. At least one
// insight is always returned.
func (g *Generator) Insights(ctx context.Context) ([]Insight, error) {
	var out []Insight

	daily, err := g.kpis.DailyRevenue(ctx, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily revenue: %w", err)
	}

	if len(daily) >= 7 {
		var lastWeek, priorWeek float64
		for _, day := range daily[len(daily)-7:] {
			lastWeek += day.Revenue
		}
		for _, day := range daily[:len(daily)-7] {
			priorWeek += day.Revenue
		}

		if priorWeek > 0 {
			drop := (priorWeek - lastWeek) / priorWeek
			if drop > revenueDropThreshold {
				out = append(out, Insight{
					ID:   uuid.New(),
					Type: TypeRevenueDrop,
					Description: fmt.Sprintf(
						"Revenue dropped by %.1f%% in the last 7 days compared to the previous week.",
						drop*100),
					SuggestedAction: "Check your ad campaigns and lead conversion funnel.",
				})
			}
		}
	}

	channels, err := g.kpis.ChannelBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel breakdown: %w", err)
	}

	if len(channels) > 0 {
		best := channels[0]
		for _, channel := range channels[1:] {
			if channel.Revenue > best.Revenue {
				best = channel
			}
		}
		out = append(out, Insight{
			ID:   uuid.New(),
			Type: TypeBestChannel,
			Description: fmt.Sprintf(
				"The best performing channel is %s with $%.2f in revenue.",
				best.Channel, best.Revenue),
			SuggestedAction: "Consider increasing ad spend on this channel.",
		})
	}

	if len(out) == 0 {
		out = append(out, Insight{
			ID:              uuid.New(),
			Type:            TypeGeneral,
			Description:     "System is running smoothly. No significant anomalies detected.",
			SuggestedAction: "Continue monitoring your daily metrics.",
		})
	}

	return out, nil
}
