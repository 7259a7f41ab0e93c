package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type batch struct {
	mission string
	orders  []OrderRow
	sitreps []SitRepRow
}

type fakeStore struct {
	batches  []batch
	finished []string
	failNext bool
}

func (f *fakeStore) CreateMission(_ context.Context, name, _ string) (string, error) {
	return "m-" + name, nil
}

func (f *fakeStore) SaveBatch(_ context.Context, id string, orders []OrderRow, sitreps []SitRepRow) error {
	if f.failNext {
		f.failNext = false
		return errors.New("connection reset")
	}
	f.batches = append(f.batches, batch{id, orders, sitreps})
	return nil
}

func (f *fakeStore) FinishMission(_ context.Context, id, outcome, _ string, _, _ int) error {
	f.finished = append(f.finished, id+":"+outcome)
	return nil
}

func TestRecorder_FlushesEveryInterval(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, 3, zap.NewNop())

	r.Tick(nil, SitRepRow{Tick: 1})
	assert.Empty(t, store.batches)

	require.NoError(t, r.Begin("nightfall", "elimination"))
	assert.Equal(t, "m-nightfall", r.MissionID())

	r.Tick([]OrderRow{{Unit: "Alpha Squad", Action: "move", Status: "executed"}}, SitRepRow{Tick: 1})
	r.Tick(nil, SitRepRow{Tick: 2})
	assert.Empty(t, store.batches)
	r.Tick(nil, SitRepRow{Tick: 3})

	require.Len(t, store.batches, 1)
	assert.Equal(t, "m-nightfall", store.batches[0].mission)
	assert.Len(t, store.batches[0].orders, 1)
	assert.Len(t, store.batches[0].sitreps, 3)
}

func TestRecorder_RetainsRowsOnFailure(t *testing.T) {
	store := &fakeStore{failNext: true}
	r := NewRecorder(store, 1, zap.NewNop())
	require.NoError(t, r.Begin("a", "survival"))

	r.Tick(nil, SitRepRow{Tick: 1})
	assert.Empty(t, store.batches)
	r.Tick(nil, SitRepRow{Tick: 2})
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0].sitreps, 2)
}

func TestRecorder_Finish(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, 10, zap.NewNop())
	require.NoError(t, r.Begin("a", "survival"))
	r.Tick(nil, SitRepRow{Tick: 1})

	r.Finish("victory", "all hostile units eliminated", 2, 4)
	require.Len(t, store.batches, 1)
	assert.Equal(t, []string{"m-a:victory"}, store.finished)
	assert.Empty(t, r.MissionID())

	r.Finish("defeat", "", 0, 0)
	assert.Len(t, store.finished, 1)
}
