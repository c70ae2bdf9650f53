// Package archiver serializes superadmin snapshot uploads so a slow bucket
// never blocks a request, and a file is never uploaded by two jobs at once.
package archiver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"coin-tracker/internal/storage"
)

type State string

const (
	StatePending   State = "pending"
	StateUploading State = "uploading"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Status is the last known outcome for one tenant store file.
type Status struct {
	Filename  string
	State     State
	Location  string
	Error     string
	UpdatedAt time.Time
}

// Manager runs a single worker draining archive jobs in order.
type Manager interface {
	Start(ctx context.Context)
	Shutdown()
	Enqueue(filename, localPath string) error
	Statuses() []Status
}

type Config struct {
	QueueSize     int
	UploadTimeout time.Duration
	UploadOptions storage.UploadOptions
	Logger        *logrus.Logger
}

type manager struct {
	cfg     Config
	storage storage.Service

	jobs   chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	statuses map[string]*Status
	closed   bool
}

type job struct {
	filename  string
	localPath string
}

func NewManager(cfg Config, storage storage.Service) Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 2 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:      cfg,
		storage:  storage,
		jobs:     make(chan job, cfg.QueueSize),
		statuses: make(map[string]*Status),
	}
}

func (m *manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run()
	m.cfg.Logger.Info("archive manager started")
}

func (m *manager) Shutdown() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
	m.mu.Unlock()

	m.wg.Wait()
	if m.cancel != nil {
		m.cancel()
	}
	m.cfg.Logger.Info("archive manager stopped")
}

// Enqueue schedules one snapshot upload. A file already pending or
// uploading is not queued again.
func (m *manager) Enqueue(filename, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("archive manager is shut down")
	}
	if st, ok := m.statuses[filename]; ok && (st.State == StatePending || st.State == StateUploading) {
		return nil
	}

	select {
	case m.jobs <- job{filename: filename, localPath: localPath}:
	default:
		return fmt.Errorf("archive queue is full")
	}

	m.statuses[filename] = &Status{
		Filename:  filename,
		State:     StatePending,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// Statuses returns a snapshot of every tracked file, newest first.
func (m *manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.statuses))
	for _, st := range m.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (m *manager) run() {
	defer m.wg.Done()

	for j := range m.jobs {
		if m.ctx.Err() != nil {
			m.setStatus(j.filename, StateFailed, "", "shutdown before upload")
			continue
		}
		m.process(j)
	}
}

func (m *manager) process(j job) {
	m.setStatus(j.filename, StateUploading, "", "")

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.UploadTimeout)
	defer cancel()

	location, err := m.storage.UploadFile(ctx, j.localPath, m.cfg.UploadOptions)
	if err != nil {
		m.cfg.Logger.Warnf("archive %s: %v", j.filename, err)
		m.setStatus(j.filename, StateFailed, "", err.Error())
		return
	}

	m.cfg.Logger.Infof("archived %s to %s", j.filename, location)
	m.setStatus(j.filename, StateDone, location, "")
}

func (m *manager) setStatus(filename string, state State, location, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[filename] = &Status{
		Filename:  filename,
		State:     state,
		Location:  location,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}
}
