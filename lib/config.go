package awsivy

import (
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Name          string `yaml:"name"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PathStyle     bool   `yaml:"path_style"`
	DisableSSL    bool   `yaml:"disable_ssl"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	ACL           string `yaml:"acl"`
	Logging       string `yaml:"logging"`
	LogOutputPath string `yaml:"log_output_path"`
	AWSLogLevel   string `yaml:"aws_log_level"`
	MetricsFile   string `yaml:"metrics_file"`
}

var awsLogLevels = map[string]aws.LogLevelType{
	"":                     aws.LogOff,
	"off":                  aws.LogOff,
	"debug":                aws.LogDebug,
	"debug_with_http_body": aws.LogDebugWithHTTPBody,
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "s3",
		Region:      "us-east-1",
		ACL:         "PUBLIC_READ",
		Logging:     "production",
		AWSLogLevel: "off",
	}
}

func LoadConfig(path string) (*Config, error) {
	configYAML, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	config := DefaultConfig()
	err = yaml.Unmarshal(configYAML, config)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Save(path string) error {
	if err := c.validate(); err != nil {
		return err
	}
	configYAML, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return errors.Wrapf(ioutil.WriteFile(path, configYAML, 0600), "write config %s", path)
}

// Debug reports whether development logging was requested.
func (c *Config) Debug() bool {
	return c.Logging == "development"
}

func (c *Config) awsLogLevel() aws.LogLevelType {
	return awsLogLevels[c.AWSLogLevel]
}

func (c *Config) validate() error {
	if c.ACL != "" {
		if _, err := ParseACL(c.ACL); err != nil {
			return err
		}
	}
	switch c.Logging {
	case "", "production", "development":
	default:
		return newErrorConfiguration("unknown logging mode " + c.Logging)
	}
	if _, ok := awsLogLevels[c.AWSLogLevel]; !ok {
		return newErrorConfiguration("unknown aws log level " + c.AWSLogLevel)
	}
	return nil
}
