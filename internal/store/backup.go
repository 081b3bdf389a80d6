package store

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/logger"
)

const (
	backupPrefix = "backup-"
	backupSuffix = ".json"
	// Fixed-width UTC layout: filenames sort lexicographically by time
	backupTimeLayout = "2006-01-02T15-04-05.000000000Z"
)

func backupName(t time.Time) string {
	return backupPrefix + t.UTC().Format(backupTimeLayout) + backupSuffix
}

// Backup writes a timestamped snapshot, records lastBackup and prunes old
// snapshots. The returned path is durable when Backup returns.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return "", ErrNotInitialized
	}
	return s.backupLocked()
}

func (s *Store) backupLocked() (string, error) {
	now := s.opts.Now()
	path := filepath.Join(s.backupDir, backupName(now))
	for {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", errs.IO("backup", path, err)
		}
		now = now.Add(time.Nanosecond)
		path = filepath.Join(s.backupDir, backupName(now))
	}

	prev := s.doc.LastBackup
	s.doc.LastBackup = &now
	data, err := s.doc.encode()
	if err == nil {
		err = writeFileAtomic(path, data, 0644)
	}
	if err != nil {
		s.doc.LastBackup = prev
		return "", errs.IO("backup", path, err)
	}

	s.log.Info("Backup written", logger.F("path", path))
	s.pruneLocked()
	s.scheduleLocked()
	return path, nil
}

func (s *Store) pruneLocked() {
	names, err := s.listBackups()
	if err != nil {
		s.log.Warn("Failed to list backups for pruning", logger.F("error", err))
		return
	}
	for len(names) > s.opts.BackupRetention {
		old := filepath.Join(s.backupDir, names[0])
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			s.log.Warn("Failed to remove old backup", logger.F("path", old), logger.F("error", err))
			return
		}
		s.log.Debug("Old backup removed", logger.F("path", old))
		names = names[1:]
	}
}

// ListBackups returns snapshot file names, oldest first
func (s *Store) ListBackups() ([]string, error) {
	names, err := s.listBackups()
	if err != nil {
		return nil, errs.IO("list backups", s.backupDir, err)
	}
	return names, nil
}

func (s *Store) listBackups() ([]string, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, err
	}

	// ReadDir sorts by name, which is chronological for our layout
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// RestoreFromBackup replaces the live document with a snapshot and writes
// it immediately. file is either a name inside the backup directory or a
// path.
func (s *Store) RestoreFromBackup(file string) error {
	path := file
	if filepath.Base(file) == file {
		path = filepath.Join(s.backupDir, file)
	}

	doc, err := readDocument(path)
	if err != nil {
		return errs.IO("restore", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.doc = doc
	if err := s.writeLocked(); err != nil {
		return err
	}
	s.log.Info("Restored from backup",
		logger.F("path", path),
		logger.F("tasks", len(doc.Todos)),
		logger.F("projects", len(doc.Projects)))
	return nil
}

// backupLoop snapshots the document every interval until Destroy
func (s *Store) backupLoop(interval time.Duration) {
	defer close(s.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Backup(); err != nil {
				s.log.Error("Scheduled backup failed", logger.F("error", err))
			}
		case <-s.stopCh:
			return
		}
	}
}
