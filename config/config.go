package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/cloud-gov/riak-cs-broker/broker"
)

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	RiakCS   broker.Config `yaml:"riak_cs"`
}

// LoadConfig reads configFile, expanding $VAR and ${VAR} references from the
// environment before parsing it.
func LoadConfig(configFile string) (config *Config, err error) {
	if configFile == "" {
		return config, errors.New("Must provide a config file")
	}

	bytes, err := os.ReadFile(configFile)
	if err != nil {
		return config, err
	}

	return ParseConfig(bytes)
}

func ParseConfig(contents []byte) (config *Config, err error) {
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(contents))), &config); err != nil {
		return config, err
	}
	if config == nil {
		return config, errors.New("Must provide a non-empty config file")
	}

	config.RiakCS.FillDefaults()

	if err = config.Validate(); err != nil {
		return config, fmt.Errorf("Validating config contents: %s", err)
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.LogLevel == "" {
		return errors.New("Must provide a non-empty LogLevel")
	}

	if c.Username == "" {
		return errors.New("Must provide a non-empty Username")
	}

	if c.Password == "" {
		return errors.New("Must provide a non-empty Password")
	}

	if err := c.RiakCS.Validate(); err != nil {
		return fmt.Errorf("Validating Riak CS configuration: %s", err)
	}

	return nil
}
