package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelhouse/internal/store/model"
)

func rec(id, planID, action string, conf string, asof time.Time) model.Recommendation {
	r := model.Recommendation{
		Action:     action,
		Confidence: decimal.RequireFromString(conf),
		AsOf:       asof,
	}
	r.ID = id
	if planID != "" {
		r.PlanID = &planID
	}
	return r
}

func TestBuildExecutionPlanViewGrouping(t *testing.T) {
	now := time.Now().UTC()
	recs := []model.Recommendation{
		rec("r1", "plan-p", "sell_put", "0.6", now),
		rec("r2", "plan-p", "buy_to_close", "0.8", now.Add(time.Minute)),
		rec("r3", "", "hold", "0.1", now),
	}
	groups := BuildExecutionPlanView(recs)
	require.Len(t, groups, 2)

	// plan-p leads with max confidence 0.8; the singleton trails.
	assert.Equal(t, "plan-p", groups[0].Key)
	assert.Equal(t, "0.8", groups[0].MaxConfidence.String())
	require.Len(t, groups[0].Recommendations, 2)
	assert.Equal(t, "buy_to_close", groups[0].Recommendations[0].Action)
	assert.Equal(t, "sell_put", groups[0].Recommendations[1].Action)

	assert.Equal(t, "singleton:r3", groups[1].Key)
	require.Len(t, groups[1].Recommendations, 1)
}

func TestBuildExecutionPlanViewTieBreaks(t *testing.T) {
	now := time.Now().UTC()
	recs := []model.Recommendation{
		rec("r1", "plan-b", "sell_call", "0.5", now),
		rec("r2", "plan-a", "sell_put", "0.5", now),
		rec("r3", "plan-a", "buy_shares", "0.5", now.Add(-time.Hour)),
		rec("r4", "plan-a", "buy_shares", "0.5", now),
	}
	groups := BuildExecutionPlanView(recs)
	require.Len(t, groups, 2)
	// Equal max confidence: groups tie-break by key ascending.
	assert.Equal(t, "plan-a", groups[0].Key)
	assert.Equal(t, "plan-b", groups[1].Key)
	// Within plan-a: equal confidence, action asc, then asof asc.
	actions := groups[0].Recommendations
	assert.Equal(t, "buy_shares", actions[0].Action)
	assert.True(t, actions[0].AsOf.Before(actions[1].AsOf))
	assert.Equal(t, "sell_put", actions[2].Action)
}

func TestBuildExecutionPlanViewEmpty(t *testing.T) {
	assert.Empty(t, BuildExecutionPlanView(nil))
}
