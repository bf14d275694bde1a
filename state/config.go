package state

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	// unique id for this node, used as the log prefix
	Id NodeId `yaml:"id"`
	// ticks to hold good news (metric decrease, link up, overload cleared)
	HoldUpTtl *uint64 `yaml:"hold_up_ttl,omitempty"`
	// ticks to hold bad news (metric increase, overload set)
	HoldDownTtl *uint64 `yaml:"hold_down_ttl,omitempty"`
	// wall-clock length of one hold tick
	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
	// directory of *.yaml adjacency databases
	AdjacencyDir    string        `yaml:"adjacency_dir,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	// advertisements that are not refreshed within this long are dropped
	AdjacencyExpiry time.Duration `yaml:"adjacency_expiry,omitempty"`
	// if not empty, logs are also written to this file
	LogPath string `yaml:"log_path,omitempty"`
}

type NodeId string

// ExpandLocalConfig fills in defaults for unset fields
func ExpandLocalConfig(cfg *LocalCfg) {
	if cfg.HoldUpTtl == nil {
		holdUp := DefaultHoldUpTtl
		cfg.HoldUpTtl = &holdUp
	}
	if cfg.HoldDownTtl == nil {
		holdDown := DefaultHoldDownTtl
		cfg.HoldDownTtl = &holdDown
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.AdjacencyExpiry == 0 {
		cfg.AdjacencyExpiry = DefaultAdjacencyExpiry
	}
}

func (cfg *LocalCfg) HoldTtls() (holdUp, holdDown uint64) {
	if cfg.HoldUpTtl != nil {
		holdUp = *cfg.HoldUpTtl
	}
	if cfg.HoldDownTtl != nil {
		holdDown = *cfg.HoldDownTtl
	}
	return holdUp, holdDown
}

func ReadLocalConfig(path string) (*LocalCfg, error) {
	var cfg LocalCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ReadAdjacencyDatabase(path string) (AdjacencyDatabase, error) {
	var db AdjacencyDatabase
	file, err := os.ReadFile(path)
	if err != nil {
		return db, err
	}
	err = yaml.Unmarshal(file, &db)
	if err != nil {
		return db, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// AdjacencyFiles lists the adjacency databases in dir, sorted by name
func AdjacencyFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
