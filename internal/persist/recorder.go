package persist

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store is the write side of MissionRepo.
type Store interface {
	CreateMission(ctx context.Context, name, condition string) (string, error)
	SaveBatch(ctx context.Context, missionID string, orders []OrderRow, sitreps []SitRepRow) error
	FinishMission(ctx context.Context, missionID, outcome, reason string, turns, ticks int) error
}

const writeTimeout = 5 * time.Second

// Recorder buffers tick reports of the running mission and writes them every
// interval ticks. Called from the game loop goroutine only.
type Recorder struct {
	store    Store
	log      *zap.Logger
	interval int

	missionID string
	sinceLast int
	orders    []OrderRow
	sitreps   []SitRepRow
}

func NewRecorder(store Store, intervalTicks int, log *zap.Logger) *Recorder {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &Recorder{store: store, log: log, interval: intervalTicks}
}

// Begin opens a new mission row. Buffered rows of a previous mission are
// dropped.
func (r *Recorder) Begin(name, condition string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	id, err := r.store.CreateMission(ctx, name, condition)
	if err != nil {
		return err
	}
	r.missionID = id
	r.sinceLast = 0
	r.orders = nil
	r.sitreps = nil
	return nil
}

// MissionID is empty until Begin succeeds.
func (r *Recorder) MissionID() string { return r.missionID }

// Tick buffers one tick's rows and flushes when the interval is reached.
func (r *Recorder) Tick(orders []OrderRow, sitrep SitRepRow) {
	if r.missionID == "" {
		return
	}
	r.orders = append(r.orders, orders...)
	r.sitreps = append(r.sitreps, sitrep)
	r.sinceLast++
	if r.sinceLast >= r.interval {
		r.Flush()
	}
}

// Flush writes everything buffered. Rows stay buffered if the write fails.
func (r *Recorder) Flush() {
	if r.missionID == "" || (len(r.orders) == 0 && len(r.sitreps) == 0) {
		r.sinceLast = 0
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.SaveBatch(ctx, r.missionID, r.orders, r.sitreps); err != nil {
		r.log.Error("mission batch write failed", zap.Error(err),
			zap.Int("orders", len(r.orders)), zap.Int("sitreps", len(r.sitreps)))
		return
	}
	r.log.Debug("mission batch written",
		zap.Int("orders", len(r.orders)), zap.Int("sitreps", len(r.sitreps)))
	r.orders = nil
	r.sitreps = nil
	r.sinceLast = 0
}

// Finish flushes and stamps the outcome. The recorder is idle afterwards.
func (r *Recorder) Finish(outcome, reason string, turns, ticks int) {
	if r.missionID == "" {
		return
	}
	r.Flush()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.FinishMission(ctx, r.missionID, outcome, reason, turns, ticks); err != nil {
		r.log.Error("mission finish write failed", zap.Error(err))
	}
	r.missionID = ""
}
