package constructorio

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by Config.
const (
	DefaultServiceURL        = "ac.cnstrc.com"
	DefaultServiceScheme     = "https"
	DefaultItemSection       = "Products"
	DefaultTimeout           = 30 * time.Second
	SearchSuggestionsSection = "Search Suggestions"
	unknownTerm              = "TERM_UNKNOWN"
	notAvailable             = "Not Available"
)

// TestCell is an A/B test assignment sent with every request as
// ef-<Key>=<Value>.
type TestCell struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Config holds the client settings. Only APIKey is required.
type Config struct {
	APIKey        string
	ServiceURL    string
	ServiceScheme string
	// ServicePort is appended to the host when non-zero.
	ServicePort int
	// DefaultItemSection is used by tracking events that take an optional
	// section.
	DefaultItemSection string
	TestCells          []TestCell
	Segments           []string
	// AutocompleteResultCount is the default num_results_<Section> set for
	// autocomplete calls.
	AutocompleteResultCount map[string]int
	// Timeout is the transport timeout of the default HTTP client.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if c.ServiceScheme == "" {
		c.ServiceScheme = DefaultServiceScheme
	}
	if c.DefaultItemSection == "" {
		c.DefaultItemSection = DefaultItemSection
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if c.ServiceScheme != "http" && c.ServiceScheme != "https" {
		errs = append(errs, fmt.Errorf("service scheme must be http or https, got %q", c.ServiceScheme))
	}
	if strings.Contains(c.ServiceURL, "/") {
		errs = append(errs, fmt.Errorf("service url must be a host name without scheme or path, got %q", c.ServiceURL))
	}
	if c.ServicePort < 0 || c.ServicePort > 65535 {
		errs = append(errs, fmt.Errorf("service port must be between 0 and 65535, got %d", c.ServicePort))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	for i, cell := range c.TestCells {
		if cell.Key == "" || cell.Value == "" {
			errs = append(errs, fmt.Errorf("test cell %d: key and value are required", i))
		}
	}
	for section, n := range c.AutocompleteResultCount {
		if n < 0 {
			errs = append(errs, fmt.Errorf("autocomplete result count for %q must not be negative", section))
		}
	}

	return errors.Join(errs...)
}

// BaseURL returns scheme://host[:port].
func (c *Config) BaseURL() string {
	host := c.ServiceURL
	if c.ServicePort > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(c.ServicePort))
	}
	return c.ServiceScheme + "://" + host
}
