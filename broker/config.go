package broker

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultScheme  = "https"
	DefaultRegion  = "us-east-1"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	Scheme             string        `yaml:"scheme"`
	AccessKeyID        string        `yaml:"access_key_id"`
	SecretAccessKey    string        `yaml:"secret_access_key"`
	Region             string        `yaml:"region"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
	Catalog            Catalog       `yaml:"catalog"`
}

// FillDefaults sets the optional fields left empty in the config file.
func (c *Config) FillDefaults() {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if len(c.Catalog.Services) == 0 {
		c.Catalog = DefaultCatalog()
	}
}

func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("Must provide a non-empty Host")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("Must provide a valid Port (%d)", c.Port)
	}

	if c.Scheme != "" && c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("Must provide a Scheme of http or https (%s)", c.Scheme)
	}

	if c.AccessKeyID == "" {
		return errors.New("Must provide a non-empty AccessKeyID")
	}

	if c.SecretAccessKey == "" {
		return errors.New("Must provide a non-empty SecretAccessKey")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("Must provide a non-negative Timeout (%s)", c.Timeout)
	}

	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("Validating Catalog configuration: %s", err)
	}

	return nil
}

// HTTPClient builds the client shared by the S3 session and the admin API.
func (c Config) HTTPClient() *http.Client {
	client := &http.Client{Timeout: c.Timeout}
	if c.InsecureSkipVerify {
		fmt.Printf("Setting connection to insecure (do not validate certificates)\n")
		customTransport := http.DefaultTransport.(*http.Transport).Clone()
		customTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client.Transport = customTransport
	}
	return client
}
