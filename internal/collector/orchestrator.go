package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenside/golfscout/internal/config"
	"github.com/greenside/golfscout/internal/model"
	"github.com/greenside/golfscout/internal/store"
)

// ErrNoActiveRun is returned by Continue when no collection state exists.
// The operator should start a new run; the state is never auto-repaired.
var ErrNoActiveRun = eris.New("collector: no active run, start a new collection")

// Orchestrator drives the phase machine across bounded invocations. Every
// invocation that does not reach Done arms exactly one deferred
// continuation; any stage error cancels all pending continuations before
// surfacing (fail-stop, so a broken run never loops silently).
type Orchestrator struct {
	store   Store
	search  *SearchStage
	details *DetailsStage
	sched   Scheduler
	cfg     *config.CollectConfig
}

// NewOrchestrator creates an Orchestrator with the given dependencies.
func NewOrchestrator(st Store, search *SearchStage, details *DetailsStage, sched Scheduler, cfg *config.CollectConfig) *Orchestrator {
	return &Orchestrator{
		store:   st,
		search:  search,
		details: details,
		sched:   sched,
		cfg:     cfg,
	}
}

// Start resets the collection state, cancels any pending continuation,
// and runs the first search batch synchronously.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.sched.CancelAll(ctx); err != nil {
		return eris.Wrap(err, "collector: cancel pending continuations")
	}

	st := &model.CollectionState{
		RunID:     uuid.New().String(),
		Phase:     model.PhaseSearch,
		LastRunAt: time.Now().UTC(),
	}
	if err := o.store.SaveState(ctx, st); err != nil {
		return eris.Wrap(err, "collector: save initial state")
	}

	zap.L().Info("collection started", zap.String("run_id", st.RunID))
	return o.runOnce(ctx, st)
}

// Continue resumes the run at its persisted phase. Missing state is a
// user error, not something to repair.
func (o *Orchestrator) Continue(ctx context.Context) error {
	st, err := o.store.LoadState(ctx)
	if err != nil {
		if eris.Is(err, store.ErrNoState) {
			return ErrNoActiveRun
		}
		return eris.Wrap(err, "collector: load state")
	}

	if st.Phase == model.PhaseDone {
		zap.L().Info("collection already complete", zap.String("run_id", st.RunID))
		return nil
	}

	return o.runOnce(ctx, st)
}

// Clear removes all pending continuations and resets progress. The
// stored credential is never touched. With wipeRecords the collected
// rows go too.
func (o *Orchestrator) Clear(ctx context.Context, wipeRecords bool) error {
	if err := o.sched.CancelAll(ctx); err != nil {
		return eris.Wrap(err, "collector: cancel pending continuations")
	}
	if err := o.store.ResetState(ctx); err != nil {
		return eris.Wrap(err, "collector: reset state")
	}
	if wipeRecords {
		if err := o.store.DeleteFacilities(ctx); err != nil {
			return eris.Wrap(err, "collector: delete facilities")
		}
	}
	zap.L().Info("collection progress cleared", zap.Bool("records_wiped", wipeRecords))
	return nil
}

// runOnce executes one bounded invocation of the stage matching the
// current phase, persists the updated cursor, and either finishes or
// arms the next continuation. State is durably saved before the
// continuation exists, so no batch can start ahead of its predecessor's
// commit.
func (o *Orchestrator) runOnce(ctx context.Context, st *model.CollectionState) error {
	log := zap.L().With(
		zap.String("run_id", st.RunID),
		zap.String("phase", string(st.Phase)),
	)
	st.LastRunAt = time.Now().UTC()

	var (
		finished bool
		err      error
	)
	switch st.Phase {
	case model.PhaseSearch:
		finished, err = o.search.Run(ctx, st, o.cfg.SearchBatchSize)
		if err == nil && finished {
			// Details owns no cursor; just rewind the search ones.
			st.Phase = model.PhaseDetails
			st.CenterIndex = 0
			st.KeywordIndex = 0
			st.PageToken = ""
			log.Info("search phase complete, advancing to details")
		}
	case model.PhaseDetails:
		finished, err = o.details.Run(ctx, st, o.cfg.DetailsBatchSize)
		if err == nil && finished {
			st.Phase = model.PhaseDone
			log.Info("details phase complete, collection done")
		}
	default:
		return eris.Errorf("collector: unexpected phase %q", st.Phase)
	}

	if err != nil {
		return o.failStop(ctx, st, err)
	}

	if saveErr := o.store.SaveState(ctx, st); saveErr != nil {
		return o.failStop(ctx, st, eris.Wrap(saveErr, "collector: save state"))
	}

	if st.Phase == model.PhaseDone {
		log.Info("collection complete", zap.Int("processed", st.Processed))
		return nil
	}

	if err := o.sched.ScheduleOnce(ctx, o.cfg.ContinueDelay); err != nil {
		return eris.Wrap(err, "collector: schedule continuation")
	}
	log.Info("continuation scheduled",
		zap.Duration("delay", o.cfg.ContinueDelay),
		zap.Int("processed", st.Processed),
	)
	return nil
}

// failStop persists whatever progress is known, cancels every pending
// continuation, and surfaces the stage error.
func (o *Orchestrator) failStop(ctx context.Context, st *model.CollectionState, cause error) error {
	log := zap.L().With(zap.String("run_id", st.RunID))

	if err := o.store.SaveState(ctx, st); err != nil {
		log.Warn("failed to persist state during fail-stop", zap.Error(err))
	}
	if err := o.sched.CancelAll(ctx); err != nil {
		log.Warn("failed to cancel continuations during fail-stop", zap.Error(err))
	}

	log.Error("collection stopped on stage error", zap.Error(cause))
	return cause
}
