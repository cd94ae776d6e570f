package httpapi

import (
	"context"

	"ucid/internal/engine"
	"ucid/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Engines() types.EnginesResponse
	Configure(id int, e types.Engine) error
	Load(ctx context.Context, id int) (types.SlotStatus, error)
	WaitReady(ctx context.Context, id int) (types.SlotStatus, error)
	Stop(id int) error
	StopAll()
	SetActive(autoPlay int) error
	StartThinking() bool
	StopThinking()
	Output(id int) (string, error)
	Ready() bool
}

// PoolService serves the API from an engine pool.
type PoolService struct {
	Pool *engine.Pool
}

var _ Service = PoolService{}

func (s PoolService) Engines() types.EnginesResponse {
	sel := s.Pool.Active()
	active, hasActive := sel.Slot()
	resp := types.EnginesResponse{AutoPlay: int(sel), Engines: make([]types.SlotStatus, 0, s.Pool.Len())}
	for _, st := range s.Pool.Snapshot() {
		ec, _ := s.Pool.Engine(st.ID)
		resp.Engines = append(resp.Engines, slotStatus(st, ec, hasActive && active == st.ID))
	}
	return resp
}

func (s PoolService) Configure(id int, e types.Engine) error {
	return s.Pool.Configure(id, engine.EngineConfig{Path: e.Path, TablebasePath: e.TablebasePath})
}

func (s PoolService) Load(ctx context.Context, id int) (types.SlotStatus, error) {
	if err := s.Pool.Load(ctx, id); err != nil {
		return types.SlotStatus{}, err
	}
	return s.status(id)
}

func (s PoolService) WaitReady(ctx context.Context, id int) (types.SlotStatus, error) {
	if err := s.Pool.WaitReady(ctx, id); err != nil {
		return types.SlotStatus{}, err
	}
	return s.status(id)
}

func (s PoolService) Stop(id int) error { return s.Pool.Stop(id) }

func (s PoolService) StopAll() { s.Pool.StopAll() }

func (s PoolService) SetActive(autoPlay int) error {
	return s.Pool.SetActive(engine.Selector(autoPlay))
}

func (s PoolService) StartThinking() bool { return s.Pool.StartThinking() }

func (s PoolService) StopThinking() { s.Pool.StopThinking() }

func (s PoolService) Output(id int) (string, error) { return s.Pool.Output(id) }

func (s PoolService) Ready() bool { return s.Pool.ActiveReady() }

func (s PoolService) status(id int) (types.SlotStatus, error) {
	st, err := s.Pool.Status(id)
	if err != nil {
		return types.SlotStatus{}, err
	}
	ec, _ := s.Pool.Engine(id)
	active, ok := s.Pool.Active().Slot()
	return slotStatus(st, ec, ok && active == id), nil
}

func slotStatus(st engine.Status, ec engine.EngineConfig, active bool) types.SlotStatus {
	out := types.SlotStatus{
		ID:          st.ID,
		State:       st.State.String(),
		Ready:       st.Ready,
		Expect:      st.Expect.String(),
		Engine:      types.Engine{Path: ec.Path, TablebasePath: ec.TablebasePath},
		RunID:       st.RunID,
		PID:         st.PID,
		Thinking:    st.Thinking,
		OutputBytes: st.OutputBytes,
		Active:      active,
	}
	if st.BestMove != nil {
		out.BestMove = &types.BestMove{Move: st.BestMove.Move, Ponder: st.BestMove.Ponder}
	}
	if !st.StartedAt.IsZero() {
		out.StartedUnix = st.StartedAt.Unix()
	}
	if !st.ReadyAt.IsZero() {
		out.ReadyUnix = st.ReadyAt.Unix()
	}
	return out
}
