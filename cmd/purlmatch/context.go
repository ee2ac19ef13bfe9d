package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"purlmatch/internal/config"
	"purlmatch/internal/logging"
	"purlmatch/internal/store"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		projectFlag: projectFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withStore opens the codebase store, runs fn, and closes the store.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// resolveProject returns the project named by --project, or the most recent
// project when the flag is unset.
func (c *commandContext) resolveProject(ctx context.Context, st *store.Store) (*store.Project, error) {
	name := ""
	if c.projectFlag != nil {
		name = strings.TrimSpace(*c.projectFlag)
	}
	if name != "" {
		project, err := st.FindProjectByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no project named %q; run 'purlmatch collect' first", name)
		}
		return project, err
	}
	project, err := st.LatestProject(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("no projects found; run 'purlmatch collect' first")
	}
	return project, err
}
