package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// File names inside a config directory
const (
	WorldFile  = "world.json"
	AgentsFile = "agents.yaml"
	HooksFile  = "hooks.tengo"
)

// SimConfig holds all loaded configurations
type SimConfig struct {
	World  *WorldConfig
	Agents *AgentsConfig
	Hooks  []byte // Optional state hook script
}

// Loader loads simulation configuration using the fs.FS interface
type Loader struct {
	fsys     fs.FS
	basePath string
}

// NewLoader creates a new config loader from a filesystem path
func NewLoader(basePath string) *Loader {
	return &Loader{
		fsys:     os.DirFS(basePath),
		basePath: basePath,
	}
}

// NewFSLoader creates a new config loader from fs.FS
func NewFSLoader(fsys fs.FS, basePath string) *Loader {
	return &Loader{
		fsys:     fsys,
		basePath: basePath,
	}
}

// BasePath returns the directory the loader was created for
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadWorld loads world.json
func (l *Loader) LoadWorld() (*WorldConfig, error) {
	data, err := fs.ReadFile(l.fsys, WorldFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", WorldFile, err)
	}

	var cfg WorldConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", WorldFile, err)
	}

	return &cfg, nil
}

// LoadAgents loads agents.yaml
func (l *Loader) LoadAgents() (*AgentsConfig, error) {
	data, err := fs.ReadFile(l.fsys, AgentsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", AgentsFile, err)
	}

	var cfg AgentsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", AgentsFile, err)
	}

	return &cfg, nil
}

// LoadHooks loads hooks.tengo. A missing file is not an error.
func (l *Loader) LoadHooks() ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, HooksFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", HooksFile, err)
	}
	return data, nil
}

// LoadAll loads and validates every configuration file
func (l *Loader) LoadAll() (*SimConfig, error) {
	world, err := l.LoadWorld()
	if err != nil {
		return nil, err
	}

	agents, err := l.LoadAgents()
	if err != nil {
		return nil, err
	}

	hooks, err := l.LoadHooks()
	if err != nil {
		return nil, err
	}

	cfg := &SimConfig{
		World:  world,
		Agents: agents,
		Hooks:  hooks,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
