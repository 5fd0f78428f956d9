package vscheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// SnapshotFetcher issues the batched pullSnapshot RPC against a previous
// slot holder.
type SnapshotFetcher interface {
	FetchGroupSnapshot(ctx context.Context, group vtypes.PartitionGroup, slots []vtypes.Slot) (map[vtypes.Slot]vtypes.Snapshot, error)
}

// LogManager is the narrow seam into the Partitioned Log Manager the
// scheduler needs: installing RemoteSnapshot placeholders. The scheduler
// does not install the fetched snapshots itself; each placeholder resolves
// to its slot's fetched snapshot once the task completes.
type LogManager interface {
	InstallSnapshot(slot vtypes.Slot, snap vtypes.Snapshot) bool
}

// Scheduler is the Pull-Snapshot Scheduler. Width is fixed at construction
// to the host's available hardware parallelism.
type Scheduler struct {
	sem     *semaphore.Weighted
	fetcher SnapshotFetcher
	logMgr  LogManager
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a scheduler with pool width runtime.GOMAXPROCS(0).
func New(fetcher SnapshotFetcher, logMgr LogManager, logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sem:     semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		fetcher: fetcher,
		logMgr:  logMgr,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

type taskResult struct {
	done  chan struct{}
	snaps map[vtypes.Slot]vtypes.Snapshot
	err   error
}

type holderGroup struct {
	group vtypes.PartitionGroup
	slots []vtypes.Slot
}

// PullSnapshots groups slots by their previous holder and submits one task
// per holder to the bounded pool. Each task resolves a RemoteSnapshot
// placeholder, installed synchronously before this call returns, under
// every affected slot; concurrent accessors block on the placeholder until
// the task completes rather than observing a missing slot.
func (s *Scheduler) PullSnapshots(prevHolders map[vtypes.Slot]vtypes.PartitionGroup) {
	grouped := make(map[string]*holderGroup)
	for slot, group := range prevHolders {
		key := group.HeaderKey()
		hg, ok := grouped[key]
		if !ok {
			hg = &holderGroup{group: group}
			grouped[key] = hg
		}
		hg.slots = append(hg.slots, slot)
	}

	for _, hg := range grouped {
		tr := &taskResult{done: make(chan struct{})}
		for _, slot := range hg.slots {
			slot := slot
			placeholder := vtypes.NewRemoteSnapshot(false, func() (vtypes.Snapshot, error) {
				<-tr.done
				if tr.err != nil {
					return nil, tr.err
				}
				snap, ok := tr.snaps[slot]
				if !ok {
					return nil, fmt.Errorf("vscheduler: no snapshot returned for slot %d", slot)
				}
				return snap, nil
			})
			s.logMgr.InstallSnapshot(slot, placeholder)
		}

		s.wg.Add(1)
		go s.runTask(hg.group, hg.slots, tr)
	}
}

func (s *Scheduler) runTask(group vtypes.PartitionGroup, slots []vtypes.Slot, tr *taskResult) {
	defer s.wg.Done()
	defer close(tr.done)

	vmetrics.PullSnapshotTasksInflight.Inc()
	defer vmetrics.PullSnapshotTasksInflight.Dec()

	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		// Member stop: the pool was force-terminated before this task got a
		// slot. The placeholder resolves to an error; the next leadership
		// cycle installs a fresh placeholder and retries.
		tr.err = fmt.Errorf("vscheduler: pool shut down before pulling from %s: %w", group.HeaderKey(), err)
		return
	}
	defer s.sem.Release(1)

	snaps, err := s.fetcher.FetchGroupSnapshot(s.ctx, group, slots)
	if err != nil {
		s.logger.Warn().Err(err).Str("holder", group.HeaderKey()).Msg("pull-snapshot task failed")
		tr.err = err
		return
	}
	tr.snaps = snaps
}

// Stop force-terminates the pool: the cancellation propagates to any
// in-flight fetch's context and to tasks still waiting for a semaphore
// slot. It waits for every launched goroutine to observe cancellation and
// return before returning itself, so a member that has called Stop never
// leaks a scheduler goroutine.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
