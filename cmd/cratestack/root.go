package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/metrics"
	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/project"
)

// cli holds what the persistent flags and the config file resolve to.
type cli struct {
	cfgPath   string
	logLevel  string
	container string
	algorithm string
	catalog   string

	cfg model.AppConfig
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "cratestack",
		Short:         "3-D container loading engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	flags.StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	flags.StringVar(&c.container, "container", "", "override the container as WxHxD or a catalog preset name")
	flags.StringVar(&c.catalog, "catalog", "", "container catalog file (default ~/.cratestack/containers.json)")
	flags.StringVar(&c.algorithm, "algorithm", "", "override the item ordering (greedy or genetic)")

	root.AddCommand(newPackCmd(c), newPlaceCmd(c), newTrainCmd(c), newCompareCmd(c), newBackupCmd(c),
		newContainersCmd(c))
	return root
}

// load resolves the configuration: file, then environment, then flags.
func (c *cli) load() error {
	cfg, err := project.LoadAppConfig(c.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.container != "" {
		spec, err := c.resolveContainer(c.container)
		if err != nil {
			return err
		}
		cfg.Container = spec
	}
	if c.algorithm != "" {
		cfg.Packing.Algorithm = model.Algorithm(c.algorithm)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetLevel(cfg.Logging.Level)
	c.cfg = cfg
	c.log = logging.New("cli")
	return nil
}

// parseDims reads "WxHxD" into a container spec.
func parseDims(s string) (model.ContainerSpec, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 3 {
		return model.ContainerSpec{}, fmt.Errorf("container size %q must look like WxHxD", s)
	}
	var dims [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return model.ContainerSpec{}, fmt.Errorf("container size %q: %q is not a positive integer", s, p)
		}
		dims[i] = v
	}
	spec := model.ContainerSpec{Width: dims[0], Height: dims[1], Depth: dims[2]}
	if !spec.Valid() {
		return model.ContainerSpec{}, fmt.Errorf("container size %q exceeds %d cells", s, model.MaxContainerCells)
	}
	return spec, nil
}

func (c *cli) catalogPath() string {
	if c.catalog != "" {
		return c.catalog
	}
	return project.DefaultCatalogPath()
}

// readCatalog returns the saved catalog, or the default presets when none is saved yet.
func (c *cli) readCatalog() (model.Catalog, error) {
	path := c.catalogPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return model.DefaultCatalog(), nil
	}
	return project.LoadCatalog(path)
}

// resolveContainer accepts "WxHxD" or the name of a catalog preset.
func (c *cli) resolveContainer(s string) (model.ContainerSpec, error) {
	spec, err := parseDims(s)
	if err == nil {
		return spec, nil
	}
	cat, catErr := c.readCatalog()
	if catErr != nil {
		return model.ContainerSpec{}, catErr
	}
	if p := cat.FindByName(s); p != nil {
		return p.Spec(), nil
	}
	return model.ContainerSpec{}, fmt.Errorf("%w (and no catalog preset named %q)", err, s)
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// metricsSink returns a Prometheus sink served on the configured address when
// metrics are enabled, otherwise a no-op sink.
func (c *cli) metricsSink(ctx context.Context) (metrics.Sink, error) {
	if !c.cfg.Metrics.Enabled {
		return metrics.NopSink{}, nil
	}
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(reg)
	if err != nil {
		return nil, fmt.Errorf("prom sink: %w", err)
	}
	go func() {
		if err := metrics.Serve(ctx, c.cfg.Metrics.Addr, reg); err != nil {
			c.log.Errorf("metrics server: %v", err)
		}
	}()
	c.log.Infof("serving metrics on %s/metrics", c.cfg.Metrics.Addr)
	return sink, nil
}
