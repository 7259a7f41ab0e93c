package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OrderRow is one executed or failed order as stored.
type OrderRow struct {
	OrderID        string
	Tick           int
	Unit           string
	Action         string
	Target         string
	Destination    string
	TimeConstraint string
	Modifiers      []string
	Status         string
	Errors         []string
}

// SitRepRow is one tick situation report as stored.
type SitRepRow struct {
	Tick        int
	MissionTime string
	Report      string
}

var _ Store = (*MissionRepo)(nil)

type MissionRepo struct {
	db *DB
}

func NewMissionRepo(db *DB) *MissionRepo {
	return &MissionRepo{db: db}
}

// CreateMission inserts a mission row and returns its id.
func (r *MissionRepo) CreateMission(ctx context.Context, name, condition string) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO missions (id, name, victory_condition) VALUES ($1, $2, $3)`,
		id, name, condition,
	); err != nil {
		return "", fmt.Errorf("create mission: %w", err)
	}
	return id, nil
}

// SaveBatch writes orders and sitreps of one mission in a single transaction.
func (r *MissionRepo) SaveBatch(ctx context.Context, missionID string, orders []OrderRow, sitreps []SitRepRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range orders {
		orderID := o.OrderID
		if _, err := uuid.Parse(orderID); err != nil {
			orderID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO mission_orders
			   (mission_id, order_id, tick, unit, action, target, destination, time_constraint, modifiers, status, errors)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			missionID, orderID, o.Tick, o.Unit, o.Action, o.Target, o.Destination, o.TimeConstraint,
			nonNil(o.Modifiers), o.Status, nonNil(o.Errors),
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	for _, s := range sitreps {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mission_sitreps (mission_id, tick, mission_time, report) VALUES ($1, $2, $3, $4)`,
			missionID, s.Tick, s.MissionTime, s.Report,
		); err != nil {
			return fmt.Errorf("insert sitrep: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// FinishMission stamps the outcome on a mission row.
func (r *MissionRepo) FinishMission(ctx context.Context, missionID, outcome, reason string, turns, ticks int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE missions SET finished_at = now(), outcome = $2, reason = $3, turns = $4, ticks = $5 WHERE id = $1`,
		missionID, outcome, reason, turns, ticks,
	)
	if err != nil {
		return fmt.Errorf("finish mission: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
