package status

import (
	"bytes"
	"fmt"

	"github.com/OpenGG/zconfig/internal/zconfig/paths"
	"github.com/OpenGG/zconfig/internal/zconfig/settings"
	"github.com/OpenGG/zconfig/internal/zconfig/snapshot"
	"github.com/OpenGG/zconfig/internal/zconfig/storage"
)

// Report classifies the tracked paths of one environment. The three lists
// are disjoint and keep the order of the tracked list.
type Report struct {
	Env       string
	Unchanged []string
	Modified  []string
	Deleted   []string
}

// Clean reports whether no tracked file is modified or deleted.
func (r Report) Clean() bool {
	return len(r.Modified) == 0 && len(r.Deleted) == 0
}

// Engine compares an environment's snapshot against the live project tree.
type Engine struct {
	storage   *storage.Storage
	snapshots *snapshot.Store
	paths     paths.PathBuilder
}

// New creates a new status Engine.
func New(storage *storage.Storage, snapshots *snapshot.Store, paths paths.PathBuilder) *Engine {
	return &Engine{storage: storage, snapshots: snapshots, paths: paths}
}

// Evaluate computes the report for env. An empty env yields an empty report.
// Tracked paths without a snapshot copy are skipped.
func (e *Engine) Evaluate(record *settings.Record, env string) (Report, error) {
	report := Report{
		Env:       env,
		Unchanged: []string{},
		Modified:  []string{},
		Deleted:   []string{},
	}
	if env == "" {
		return report, nil
	}

	for _, rel := range record.Tracked(env) {
		stored, found, err := e.snapshots.ReadFile(env, rel)
		if err != nil {
			return Report{}, err
		}
		if !found {
			continue
		}

		projectPath := e.paths.ProjectPath(rel)
		exists, err := e.storage.IsFile(projectPath)
		if err != nil {
			return Report{}, err
		}
		if !exists {
			report.Deleted = append(report.Deleted, rel)
			continue
		}

		live, err := e.storage.ReadFile(projectPath)
		if err != nil {
			return Report{}, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if !bytes.Equal(stored, live) {
			report.Modified = append(report.Modified, rel)
			continue
		}
		report.Unchanged = append(report.Unchanged, rel)
	}
	return report, nil
}

// Current evaluates the record's current environment.
func (e *Engine) Current(record *settings.Record) (Report, error) {
	return e.Evaluate(record, record.CurrentEnv())
}
