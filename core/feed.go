package core

import (
	"github.com/encodeous/lsdb/state"
)

// Feed publishes the adjacency databases found in AdjacencyDir. It stands in
// for a flooding layer: a file that is removed stops being refreshed and the
// advertisement expires after AdjacencyExpiry.
type Feed struct {
	// file -> node name of the last successful load
	files map[string]string
}

func (f *Feed) Init(s *state.State) error {
	f.files = make(map[string]string)
	if s.AdjacencyDir == "" {
		s.Log.Info("no adjacency_dir configured, adjacency databases must be published externally")
		return nil
	}
	s.Log.Debug("schedule adjacency refresh", "dir", s.AdjacencyDir, "interval", s.RefreshInterval)
	s.Env.RepeatTask(f.Refresh, s.RefreshInterval)
	return nil
}

func (f *Feed) Cleanup(s *state.State) error {
	f.files = nil
	return nil
}

// Refresh re-reads every adjacency database file and publishes it. Broken
// files are logged and skipped, they never stop the daemon.
func (f *Feed) Refresh(s *state.State) error {
	files, err := state.AdjacencyFiles(s.AdjacencyDir)
	if err != nil {
		s.Log.Warn("failed to list adjacency databases", "dir", s.AdjacencyDir, "error", err)
		return nil
	}
	d := Get[*Decision](s)
	for _, file := range files {
		db, err := state.ReadAdjacencyDatabase(file)
		if err != nil {
			s.Log.Warn("failed to read adjacency database", "file", file, "error", err)
			continue
		}
		if err := d.Publish(s, db); err != nil {
			s.Log.Warn("rejected adjacency database", "file", file, "node", db.NodeName, "error", err)
			continue
		}
		if prev, ok := f.files[file]; !ok || prev != db.NodeName {
			s.Log.Info("loaded adjacency database", "file", file, "node", db.NodeName, "adjacencies", len(db.Adjacencies))
		}
		f.files[file] = db.NodeName
	}
	return nil
}
