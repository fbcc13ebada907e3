package strategy

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// RecordRecommendations persists a run's surviving actions with full
// linkage back to client, portfolio, account, instance and version.
// Called inside the executor's transaction.
func RecordRecommendations(ctx context.Context, repos store.Repos, sc *Context, actions []PlannedAction) ([]model.Recommendation, error) {
	recs := make([]model.Recommendation, 0, len(actions))
	for _, action := range actions {
		rec := model.Recommendation{
			ClientID:    sc.Client.ID,
			PortfolioID: sc.Portfolio.ID,
			AccountID:   sc.Account.ID,
			InstanceID:  sc.Instance.ID,
			VersionID:   &sc.Version.ID,
			AsOf:        sc.AsOf,
			Action:      NormalizeAction(action.Action),
			Params:      datatypes.JSONMap(action.Params),
			Confidence:  action.Confidence,
			Rationale:   action.Rationale,
		}
		if action.PlanID != "" {
			planID := action.PlanID
			rec.PlanID = &planID
		}
		if action.OpportunityID != "" {
			oppID := action.OpportunityID
			rec.OpportunityID = &oppID
		}
		if action.ConID != 0 {
			contract, err := repos.Contracts().FindByConID(ctx, action.ConID)
			if err != nil {
				return nil, err
			}
			if contract != nil {
				rec.ContractID = &contract.ID
				if contract.InstrumentID != "" {
					instrumentID := contract.InstrumentID
					rec.UnderlierID = &instrumentID
				}
			}
		}
		if err := repos.Recommendations().Create(ctx, &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// PlanGroup is one entry of the execution plan view: either a named
// multi-leg plan or a singleton wrapper around one recommendation.
type PlanGroup struct {
	Key             string
	MaxConfidence   decimal.Decimal
	Recommendations []model.Recommendation
}

// BuildExecutionPlanView groups recommendations into a deterministic
// review ordering: within a group by confidence desc, then action asc,
// then as-of asc; groups by max confidence desc, then key asc.
// Recommendations without a plan id become "singleton:<id>" groups.
func BuildExecutionPlanView(recs []model.Recommendation) []PlanGroup {
	grouped := make(map[string][]model.Recommendation)
	for _, rec := range recs {
		key := "singleton:" + rec.ID
		if rec.PlanID != nil && *rec.PlanID != "" {
			key = *rec.PlanID
		}
		grouped[key] = append(grouped[key], rec)
	}
	groups := make([]PlanGroup, 0, len(grouped))
	for key, members := range grouped {
		sort.SliceStable(members, func(i, j int) bool {
			if !members[i].Confidence.Equal(members[j].Confidence) {
				return members[i].Confidence.GreaterThan(members[j].Confidence)
			}
			if members[i].Action != members[j].Action {
				return members[i].Action < members[j].Action
			}
			return members[i].AsOf.Before(members[j].AsOf)
		})
		maxConf := decimal.Zero
		for _, rec := range members {
			if rec.Confidence.GreaterThan(maxConf) {
				maxConf = rec.Confidence
			}
		}
		groups = append(groups, PlanGroup{Key: key, MaxConfidence: maxConf, Recommendations: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].MaxConfidence.Equal(groups[j].MaxConfidence) {
			return groups[i].MaxConfidence.GreaterThan(groups[j].MaxConfidence)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
