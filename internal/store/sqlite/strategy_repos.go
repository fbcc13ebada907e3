package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wheelhouse/internal/store/model"
)

type strategyRepo struct{ db *gorm.DB }

func (r strategyRepo) CreateDefinition(ctx context.Context, def *model.StrategyDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r strategyRepo) CreateVersion(ctx context.Context, version *model.StrategyVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r strategyRepo) CreateInstance(ctx context.Context, instance *model.StrategyInstance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r strategyRepo) GetDefinition(ctx context.Context, id string) (*model.StrategyDefinition, error) {
	var d model.StrategyDefinition
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r strategyRepo) GetVersion(ctx context.Context, id string) (*model.StrategyVersion, error) {
	var v model.StrategyVersion
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r strategyRepo) GetInstance(ctx context.Context, id string) (*model.StrategyInstance, error) {
	var i model.StrategyInstance
	if err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (r strategyRepo) ListVersions(ctx context.Context) ([]model.StrategyVersion, error) {
	var versions []model.StrategyVersion
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r strategyRepo) ListEnabledInstances(ctx context.Context, slug string) ([]model.StrategyInstance, error) {
	q := r.db.WithContext(ctx).
		Model(&model.StrategyInstance{}).
		Where("strategy_instances.enabled = ?", true).
		Order("strategy_instances.created_at asc")
	if slug != "" {
		q = q.
			Joins("JOIN strategy_versions ON strategy_versions.id = strategy_instances.strategy_version_id").
			Joins("JOIN strategy_definitions ON strategy_definitions.id = strategy_versions.definition_id").
			Where("strategy_definitions.slug = ?", slug)
	}
	var instances []model.StrategyInstance
	if err := q.Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

type runRepo struct{ db *gorm.DB }

func (r runRepo) Create(ctx context.Context, run *model.StrategyRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r runRepo) Update(ctx context.Context, run *model.StrategyRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r runRepo) ListForInstance(ctx context.Context, instanceID string, limit int) ([]model.StrategyRun, error) {
	q := r.db.WithContext(ctx).
		Where("strategy_instance_id = ?", instanceID).
		Order("run_ts desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []model.StrategyRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

type recommendationRepo struct{ db *gorm.DB }

func (r recommendationRepo) Create(ctx context.Context, rec *model.Recommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r recommendationRepo) ListForInstance(ctx context.Context, instanceID string, limit int) ([]model.Recommendation, error) {
	q := r.db.WithContext(ctx).
		Where("strategy_instance_id = ?", instanceID).
		Order("asof_ts desc, created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []model.Recommendation
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r recommendationRepo) ListForInstanceSince(ctx context.Context, instanceID string, since time.Time) ([]model.Recommendation, error) {
	var recs []model.Recommendation
	err := r.db.WithContext(ctx).
		Where("strategy_instance_id = ? AND asof_ts >= ?", instanceID, since).
		Order("asof_ts asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

type opportunityRepo struct{ db *gorm.DB }

func (r opportunityRepo) Create(ctx context.Context, opp *model.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

func (r opportunityRepo) Get(ctx context.Context, id string) (*model.Opportunity, error) {
	var o model.Opportunity
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
