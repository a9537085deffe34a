package config

import (
	"fmt"
	"net/url"
)

// Validate checks that the resolved configuration is usable.
func (c *Config) Validate() error {
	if c.Correlator.Endpoint == "" {
		return fmt.Errorf("correlator endpoint is required (--correlator-endpoint or CORRELATOR_ENDPOINT)")
	}

	u, err := url.Parse(c.Correlator.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid correlator endpoint %q: must be an absolute URL", c.Correlator.Endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid correlator endpoint %q: scheme must be http or https", c.Correlator.Endpoint)
	}

	if c.OpenLineage.Namespace == "" {
		return fmt.Errorf("openlineage namespace must not be empty")
	}

	return nil
}
