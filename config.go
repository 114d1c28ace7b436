package realip

import (
	"fmt"
)

// config is an immutable configuration snapshot once published by a
// Resolver. Options mutate a private clone before publication.
type config struct {
	// generation increases with every published snapshot and keys
	// request-scoped caches.
	generation uint64

	trustMode  TrustMode
	proxySpecs []ProxySpec
	// specsChanged marks snapshots whose trust list was set by the options
	// being applied, so inert specs are reported once.
	specsChanged bool

	headerKeys   []string
	disableCache bool

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

var (
	// loopbackProxySpecs contains loopback networks used when the app sits
	// behind a reverse proxy running on the same host.
	loopbackProxySpecs = []string{
		"127.0.0.0/8",
		"::1",
	}

	// privateProxySpecs contains private-network ranges commonly used for
	// trusted upstream proxies in VM and internal network deployments.
	privateProxySpecs = []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
	}
)

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	cloned := make([]string, len(values))
	copy(cloned, values)
	return cloned
}

func cloneProxySpecs(specs []ProxySpec) []ProxySpec {
	if specs == nil {
		return nil
	}
	cloned := make([]ProxySpec, len(specs))
	copy(cloned, specs)
	return cloned
}

func defaultConfig() *config {
	return &config{
		trustMode:  TrustNone,
		headerKeys: DefaultHeaderKeys(),
		logger:     noopLogger{},
		metrics:    noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

// derive applies opts to a clone of base and returns the validated result
// with the next generation number. base is never modified.
func derive(base *config, opts ...Option) (*config, error) {
	cfg := base.clone()
	cfg.generation = base.generation + 1

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.trustMode != TrustList {
		cfg.proxySpecs = nil
	}

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, fmt.Errorf("metrics factory cannot be nil")
	}

	validationConfig := cfg
	if cfg.useMetricsFactory {
		validationConfig = cfg.clone()
		validationConfig.metrics = noopMetrics{}
	}

	if err := validationConfig.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics
		cfg.metricsFactory = nil
		cfg.useMetricsFactory = false

		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// clone copies c for modification. specsChanged is reset so only the options
// applied to the clone can set it.
func (c *config) clone() *config {
	return &config{
		generation:        c.generation,
		trustMode:         c.trustMode,
		proxySpecs:        cloneProxySpecs(c.proxySpecs),
		headerKeys:        cloneStrings(c.headerKeys),
		disableCache:      c.disableCache,
		logger:            c.logger,
		metrics:           c.metrics,
		metricsFactory:    c.metricsFactory,
		useMetricsFactory: c.useMetricsFactory,
	}
}

func (c *config) inertProxySpecs() []ProxySpec {
	var inert []ProxySpec
	for _, spec := range c.proxySpecs {
		if !spec.Valid() {
			inert = append(inert, spec)
		}
	}
	return inert
}
