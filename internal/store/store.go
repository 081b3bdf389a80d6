// Package store persists tasks, projects and tags in a single JSON document
// with debounced atomic writes, periodic backups and crash recovery.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
)

const (
	DefaultFileName        = "todos.json"
	DefaultSaveDebounce    = time.Second
	DefaultBackupInterval  = time.Hour
	DefaultBackupRetention = 10
	backupDirName          = "backups"
)

// ErrNotInitialized is returned when the store is used before Initialize
var ErrNotInitialized = errors.New("store not initialized")

// Options configures a Store
type Options struct {
	Dir             string        // Data directory; backups go in Dir/backups
	FileName        string        // Document file name (default: todos.json)
	SaveDebounce    time.Duration // Coalescing window for Save (default: 1s)
	BackupInterval  time.Duration // Periodic backup cadence; <= 0 disables the loop
	BackupRetention int           // Snapshots kept (default: 10)
	Logger          *logger.Logger
	Now             func() time.Time
}

// Store owns the canonical document. All access is serialized by mu.
type Store struct {
	opts      Options
	path      string
	backupDir string
	log       *logger.Logger

	mu        sync.Mutex
	doc       *Document
	pending   bool // a debounced flush is owed
	saveTimer *time.Timer
	lastErr   error // last failed debounced flush
	closed    bool

	stopCh   chan struct{}
	loopDone chan struct{}
}

// New creates a store; call Initialize before use
func New(opts Options) *Store {
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = DefaultSaveDebounce
	}
	if opts.BackupRetention <= 0 {
		opts.BackupRetention = DefaultBackupRetention
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		opts:      opts,
		path:      filepath.Join(opts.Dir, opts.FileName),
		backupDir: filepath.Join(opts.Dir, backupDirName),
		log:       opts.Logger.WithFields(logger.F("component", "store")),
	}
}

// Path returns the live document path
func (s *Store) Path() string {
	return s.path
}

// BackupDir returns the directory holding snapshots
func (s *Store) BackupDir() string {
	return s.backupDir
}

// Initialize prepares directories, loads the document (recovering from the
// newest usable backup when the live file is unreadable) and starts the
// periodic backup loop.
func (s *Store) Initialize() error {
	for _, dir := range []string{s.opts.Dir, s.backupDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.IO("create directory", dir, err)
		}
	}

	s.mu.Lock()
	err := s.loadLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.opts.BackupInterval > 0 {
		s.stopCh = make(chan struct{})
		s.loopDone = make(chan struct{})
		go s.backupLoop(s.opts.BackupInterval)
	}
	return nil
}

func (s *Store) loadLocked() error {
	doc, err := readDocument(s.path)
	switch {
	case err == nil:
		s.doc = doc
		s.log.Info("Document loaded",
			logger.F("path", s.path),
			logger.F("tasks", len(doc.Todos)),
			logger.F("projects", len(doc.Projects)))
		return nil

	case errors.Is(err, fs.ErrNotExist):
		s.log.Info("No document found, creating a new one", logger.F("path", s.path))
		s.doc = newDocument()
		return s.writeLocked()

	default:
		s.log.Warn("Document unreadable, attempting recovery", logger.F("path", s.path), logger.F("error", err))
		s.quarantineLocked()
		return s.recoverLocked()
	}
}

// quarantineLocked moves a corrupt document aside so recovery never
// overwrites the only copy of it
func (s *Store) quarantineLocked() {
	if _, err := os.Stat(s.path); err != nil {
		return
	}
	dest := fmt.Sprintf("%s.corrupt-%s", s.path, s.opts.Now().UTC().Format(backupTimeLayout))
	if err := os.Rename(s.path, dest); err != nil {
		s.log.Warn("Failed to move corrupt document aside", logger.F("error", err))
		return
	}
	s.log.Info("Corrupt document preserved", logger.F("path", dest))
}

func (s *Store) recoverLocked() error {
	names, err := s.listBackups()
	if err != nil {
		s.log.Warn("Failed to list backups", logger.F("error", err))
	}

	for i := len(names) - 1; i >= 0; i-- {
		path := filepath.Join(s.backupDir, names[i])
		doc, err := readDocument(path)
		if err != nil {
			s.log.Warn("Skipping unusable backup", logger.F("backup", names[i]), logger.F("error", err))
			continue
		}
		s.doc = doc
		s.log.Info("Recovered document from backup", logger.F("backup", names[i]))
		return s.writeLocked()
	}

	s.log.Warn("No usable backup, starting with an empty document")
	s.doc = newDocument()
	return s.writeLocked()
}

// Save schedules a debounced flush. Calls within the window replace the
// pending flush's deadline, so a burst of mutations costs one write.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked()
}

func (s *Store) scheduleLocked() {
	if s.doc == nil {
		// Nothing loaded yet; a flush would overwrite the file on disk
		return
	}
	s.pending = true
	if s.closed {
		// No timer may outlive Destroy; write now instead
		if err := s.writeLocked(); err != nil {
			s.lastErr = err
			s.log.Error("Write after close failed", logger.F("error", err))
		}
		return
	}
	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.opts.SaveDebounce, s.flushPending)
		return
	}
	s.saveTimer.Reset(s.opts.SaveDebounce)
}

func (s *Store) flushPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return
	}
	if err := s.writeLocked(); err != nil {
		s.lastErr = err
		s.log.Error("Debounced save failed", logger.F("path", s.path), logger.F("error", err))
	}
}

// SaveImmediate writes the document now, cancelling any pending flush
func (s *Store) SaveImmediate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNotInitialized
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	return s.writeLocked()
}

// LastFlushError returns the error of the most recent failed background
// flush, cleared by the next successful write
func (s *Store) LastFlushError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) writeLocked() error {
	data, err := s.doc.encode()
	if err != nil {
		return errs.IO("encode", s.path, err)
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return errs.IO("write", s.path, err)
	}
	s.pending = false
	s.lastErr = nil
	s.log.Debug("Document written", logger.F("bytes", len(data)))
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so a crash mid-write never leaves a torn document
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Destroy stops the backup loop and flushes any pending write. It is safe
// to call more than once.
func (s *Store) Destroy() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop, done := s.stopCh, s.loopDone
	s.mu.Unlock()

	// The loop may be waiting on mu inside Backup, so it is drained unlocked
	if stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	if s.pending && s.doc != nil {
		if err := s.writeLocked(); err != nil {
			return err
		}
	}
	s.log.Info("Store closed")
	return nil
}

// Update runs fn against a working copy of the document and commits it only
// when fn returns nil, so a failed operation leaves no partial mutation.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNotInitialized
	}
	tx := &Tx{doc: s.doc.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.changed {
		s.doc = tx.doc
		s.scheduleLocked()
	}
	return nil
}

// View runs fn against the live document without copying it
func (s *Store) View(fn func(r Reader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNotInitialized
	}
	return fn(&Tx{doc: s.doc})
}

// Snapshot returns a deep copy of the whole document
func (s *Store) Snapshot() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return Document{}, ErrNotInitialized
	}
	return *s.doc.clone(), nil
}

// Per-collection CRUD primitives. Each is a one-operation transaction.

func (s *Store) CreateTask(t model.Task) (model.Task, error) {
	err := s.Update(func(tx *Tx) error { return tx.CreateTask(t) })
	return t.Clone(), err
}

func (s *Store) GetTask(id string) (model.Task, bool) {
	var (
		t  model.Task
		ok bool
	)
	_ = s.View(func(r Reader) error {
		t, ok = r.Task(id)
		return nil
	})
	return t, ok
}

func (s *Store) ListTasks() []model.Task {
	var out []model.Task
	_ = s.View(func(r Reader) error {
		out = r.Tasks()
		return nil
	})
	return out
}

func (s *Store) UpdateTask(t model.Task) (model.Task, error) {
	err := s.Update(func(tx *Tx) error { return tx.UpdateTask(t) })
	return t.Clone(), err
}

func (s *Store) DeleteTask(id string) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.DeleteTask(id)
		return nil
	})
	return ok
}

func (s *Store) CreateProject(p model.Project) (model.Project, error) {
	err := s.Update(func(tx *Tx) error { return tx.CreateProject(p) })
	return p.Clone(), err
}

func (s *Store) GetProject(id string) (model.Project, bool) {
	var (
		p  model.Project
		ok bool
	)
	_ = s.View(func(r Reader) error {
		p, ok = r.Project(id)
		return nil
	})
	return p, ok
}

func (s *Store) ListProjects() []model.Project {
	var out []model.Project
	_ = s.View(func(r Reader) error {
		out = r.Projects()
		return nil
	})
	return out
}

func (s *Store) UpdateProject(p model.Project) (model.Project, error) {
	err := s.Update(func(tx *Tx) error { return tx.UpdateProject(p) })
	return p.Clone(), err
}

func (s *Store) DeleteProject(id string) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.DeleteProject(id)
		return nil
	})
	return ok
}

func (s *Store) CreateTag(t model.Tag) (model.Tag, error) {
	err := s.Update(func(tx *Tx) error { return tx.CreateTag(t) })
	return t, err
}

func (s *Store) GetTag(name string) (model.Tag, bool) {
	var (
		t  model.Tag
		ok bool
	)
	_ = s.View(func(r Reader) error {
		t, ok = r.Tag(name)
		return nil
	})
	return t, ok
}

func (s *Store) ListTags() []model.Tag {
	var out []model.Tag
	_ = s.View(func(r Reader) error {
		out = r.Tags()
		return nil
	})
	return out
}

func (s *Store) UpdateTag(t model.Tag) (model.Tag, error) {
	err := s.Update(func(tx *Tx) error { return tx.UpdateTag(t) })
	return t, err
}

func (s *Store) DeleteTag(name string) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.DeleteTag(name)
		return nil
	})
	return ok
}
