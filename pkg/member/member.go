package member

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/vortex/pkg/filepull"
	"github.com/cuemby/vortex/pkg/partition"
	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vquery"
	"github.com/cuemby/vortex/pkg/vscheduler"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
)

// Role is a Data Group Member's role within its partition group.
type Role int

const (
	RoleElector Role = iota
	RoleFollower
	RoleLeader
)

func (r Role) String() string {
	switch r {
	case RoleFollower:
		return "follower"
	case RoleLeader:
		return "leader"
	default:
		return "elector"
	}
}

// consensusState is role/term/leader/heartbeat: the compound critical
// section where a term-bump must stay atomic with the role/leader reset.
type consensusState struct {
	mu            sync.Mutex
	role          Role
	term          int64
	leader        *vtypes.Node
	lastHeartbeat time.Time
}

// Config constructs a Member. Every capability is injected, never
// constructed internally.
type Config struct {
	Local             vtypes.Node
	InitialGroup      vtypes.PartitionGroup
	ReplicationFactor vtypes.ReplicationFactor
	HeartbeatInterval time.Duration

	LogManager *partition.Manager
	Meta       vtypes.MetaCapability
	Schemas    vtypes.SchemaRegistry
	Storage    vtypes.StorageEngine
	Directory  vtypes.DirectoryManager
	Groups     vtypes.GroupDirectory
	Series     vtypes.SeriesReaderFactory
	Files      vtypes.FileReaderManager
	Transport  *Transport

	Logger zerolog.Logger
}

// Member is the Data Group Member: the component owning election gating,
// snapshot application, membership insertion, request routing and leader
// forwarding. The Factory is New; Start/Stop bracket its background work.
type Member struct {
	local             vtypes.Node
	replicationFactor vtypes.ReplicationFactor

	state      consensusState
	membership struct {
		mu    sync.Mutex
		group vtypes.PartitionGroup
	}

	logManager *partition.Manager
	scheduler  *vscheduler.Scheduler
	registry   *vquery.Registry
	puller     *filepull.Puller
	transport  *Transport

	meta      vtypes.MetaCapability
	schemas   vtypes.SchemaRegistry
	storage   vtypes.StorageEngine
	directory vtypes.DirectoryManager
	groups    vtypes.GroupDirectory
	series    vtypes.SeriesReaderFactory
	files     vtypes.FileReaderManager

	heartbeatInterval time.Duration
	logger            zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New is the Factory for Member: it builds one with a fixed header and
// initial membership but does not start any background work.
func New(cfg Config) (*Member, error) {
	if len(cfg.InitialGroup.Members) == 0 {
		return nil, fmt.Errorf("member: initial group must contain at least the local node")
	}
	if cfg.LogManager == nil {
		return nil, fmt.Errorf("member: log manager is required")
	}
	logger := cfg.Logger

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = time.Second
	}

	m := &Member{
		local:             cfg.Local,
		replicationFactor: cfg.ReplicationFactor,
		logManager:        cfg.LogManager,
		transport:         cfg.Transport,
		meta:              cfg.Meta,
		schemas:           cfg.Schemas,
		storage:           cfg.Storage,
		directory:         cfg.Directory,
		groups:            cfg.Groups,
		series:            cfg.Series,
		files:             cfg.Files,
		registry:          vquery.New(),
		heartbeatInterval: heartbeat,
		logger:            logger,
		stopCh:            make(chan struct{}),
	}
	m.membership.group = cfg.InitialGroup
	m.state.role = RoleElector

	if cfg.Transport != nil {
		m.puller = filepull.New(cfg.Directory.StagingRoot(), nil, logger)
		m.puller.ReaderFactory = cfg.Transport.ReaderFor
		m.scheduler = vscheduler.New(cfg.Transport, cfg.LogManager, logger)
	}

	return m, nil
}

// Start launches the heartbeat loop. It is idempotent-unsafe: calling twice
// starts two loops, a single-call convention rather than adding guard state
// nothing else needs.
func (m *Member) Start(ctx context.Context) error {
	m.wg.Add(1)
	go m.runHeartbeat(ctx)
	m.logger.Info().Str("local", m.local.String()).Msg("data group member started")
	return nil
}

// Stop force-terminates the pull-snapshot pool and the heartbeat loop.
func (m *Member) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	m.logger.Info().Msg("data group member stopped")
}

// Role returns the current role under the consensus lock.
func (m *Member) Role() Role {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.state.role
}

// Term returns the current data-group term.
func (m *Member) Term() int64 {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.state.term
}

// Leader returns the last-known leader, or (zero, false) if none.
func (m *Member) Leader() (vtypes.Node, bool) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if m.state.leader == nil {
		return vtypes.Node{}, false
	}
	return *m.state.leader, true
}

// Group returns a snapshot of the current partition group membership.
func (m *Member) Group() vtypes.PartitionGroup {
	m.membership.mu.Lock()
	defer m.membership.mu.Unlock()
	members := make([]vtypes.Node, len(m.membership.group.Members))
	copy(members, m.membership.group.Members)
	return vtypes.PartitionGroup{Members: members}
}

// SyncSlots starts a background pull for every slot in prevHolders that this
// member does not yet have an authoritative snapshot for, keyed by each
// slot's previous holder group. The Metadata Group Member calls this
// whenever the partition table assigns this member's header a new slot; it
// is a no-op if no transport was configured.
func (m *Member) SyncSlots(prevHolders map[vtypes.Slot]vtypes.PartitionGroup) {
	if m.scheduler == nil {
		return
	}
	pending := make(map[vtypes.Slot]vtypes.PartitionGroup, len(prevHolders))
	for slot, group := range prevHolders {
		if snap, ok := m.logManager.GetSnapshot(slot); ok {
			if _, remote := snap.(*vtypes.RemoteSnapshot); !remote {
				continue
			}
		}
		pending[slot] = group
	}
	m.scheduler.PullSnapshots(pending)
}

func (m *Member) setRoleAndMetrics(role Role) {
	m.state.role = role
	switch role {
	case RoleElector:
		vmetrics.Role.Set(0)
	case RoleFollower:
		vmetrics.Role.Set(1)
	case RoleLeader:
		vmetrics.Role.Set(2)
	}
}
