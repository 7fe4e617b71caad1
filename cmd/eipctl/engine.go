package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carun/eipsession/internal/config"
	"github.com/carun/eipsession/internal/ioruntime"
	"github.com/carun/eipsession/internal/logging"
	"github.com/carun/eipsession/internal/orchestrator"
	"github.com/rs/zerolog"
)

var (
	flagHost     string
	flagPort     int
	flagPoolSize int
	flagConfig   string
)

var log = logging.New("eipctl")

// resolvedHost/resolvedPort/resolvedPoolSize apply the PLC_HOST/PLC_PORT/
// PLC_POOL_SIZE env vars as fallbacks for flags left at their zero value,
// matching spec §6's adapter-boundary env vars.
func resolvedHost() string {
	if flagHost != "" {
		return flagHost
	}
	return os.Getenv("PLC_HOST")
}

func resolvedPort() int {
	if flagPort != 0 {
		return flagPort
	}
	if v := os.Getenv("PLC_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 44818
}

func resolvedPoolSize() int {
	if flagPoolSize != 0 {
		return flagPoolSize
	}
	if v := os.Getenv("PLC_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func init() {
	logging.Configure(os.Stderr, zerolog.InfoLevel)
	if token := os.Getenv("PLC_API_TOKEN"); token != "" {
		log.Debug().Msg("PLC_API_TOKEN set; ignored, no HTTP surface to authenticate in this binary")
	}
}

// newEngine builds an orchestrator, optionally loading an assembly
// configuration from --config, and starts a session against the resolved
// host/port, returning a teardown func callers should defer.
func newEngine(ctx context.Context) (*orchestrator.Orchestrator, orchestrator.SessionID, config.DeviceConfiguration, func(), error) {
	opts := orchestrator.Options{PoolSize: resolvedPoolSize()}
	rt := ioruntime.New()
	o := orchestrator.New(rt, opts)

	var cfg config.DeviceConfiguration
	if flagConfig != "" {
		data, err := os.ReadFile(flagConfig)
		if err != nil {
			return nil, "", config.DeviceConfiguration{}, nil, err
		}
		cfg, err = config.LoadYAML(data)
		if err != nil {
			return nil, "", config.DeviceConfiguration{}, nil, err
		}
		if err := o.ApplyConfiguration(cfg); err != nil {
			return nil, "", config.DeviceConfiguration{}, nil, err
		}
	}

	id, err := o.StartSession(ctx, resolvedHost(), resolvedPort())
	if err != nil {
		return nil, "", config.DeviceConfiguration{}, nil, err
	}
	teardown := func() {
		if err := o.StopSession(context.Background(), id); err != nil {
			log.Warn().Err(err).Msg("session stop failed")
		}
	}
	return o, id, cfg, teardown, nil
}

// resolveAlias looks up alias's class/instance/size in cfg, grounded on
// DeviceConfiguration.AliasMapping.
func resolveAlias(cfg config.DeviceConfiguration, alias string) (classID, instanceID uint16, size int, err error) {
	for _, a := range cfg.Assemblies {
		if normaliseAlias(a.Alias) == normaliseAlias(alias) {
			if a.Size != nil {
				size = *a.Size
			}
			return a.ClassID, a.InstanceID, size, nil
		}
	}
	return 0, 0, 0, fmt.Errorf("assembly alias %q not found in --config", alias)
}

func normaliseAlias(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
