package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
	"time"

	yaml "gopkg.in/yaml.v3"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	BuildConfig struct {
		// Input is the stylesheet compiled by default, empty means the
		// embedded `@import "tailwindcss";` entry point.
		Input     string `yaml:"input" sanitize:"assure_file_access"`
		Banner    string `yaml:"banner"`
		Important bool   `yaml:"important"`
		Sort      string `yaml:"sort" validate:"oneof=source natural"`
	}

	ScanConfig struct {
		Charset    string   `yaml:"charset"`
		Extensions []string `yaml:"extensions" validate:"dive,startswith=."`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Build     BuildConfig    `yaml:"build"`
		Scan      ScanConfig     `yaml:"scan"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// BannerFieldName must match the yaml name of BuildConfig.Banner: the banner
// is a template of its own and is expanded at build time.
const BannerFieldName = "banner"

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(BannerFieldName),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the expanded configuration template and
// performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// BannerValues are available to the banner template.
type BannerValues struct {
	App        string
	Version    string
	Input      string
	Candidates int
	Rules      int
	Generated  time.Time
}

// RenderBanner expands the banner template. Slim-sprig functions are
// available, an empty template renders nothing.
func (conf *BuildConfig) RenderBanner(values BannerValues) (string, error) {
	if conf.Banner == "" {
		return "", nil
	}
	tmpl, err := template.New(BannerFieldName).Funcs(sprig.FuncMap()).Parse(conf.Banner)
	if err != nil {
		return "", fmt.Errorf("unable to parse banner template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("unable to expand banner template: %w", err)
	}
	return buf.String(), nil
}
