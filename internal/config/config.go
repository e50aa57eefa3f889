package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".tabviz"

// Global configuration structure.
type Global struct {
	// Distinguished columns used by the date and category filters.
	DateColumn     string `mapstructure:"date_column" yaml:"date_column"`
	CategoryColumn string `mapstructure:"category_column" yaml:"category_column"`

	// Loading
	PreviewRows      int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	MaxRows          int    `mapstructure:"max_rows" yaml:"max_rows"`
	Delimiter        string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	Sheet            string `mapstructure:"sheet" yaml:"sheet"`

	// Output
	ExportFilename string `mapstructure:"export_filename" yaml:"export_filename"`
	ExportBOM      bool   `mapstructure:"export_bom" yaml:"export_bom"`
	ChartFormat    string `mapstructure:"chart_format" yaml:"chart_format"`
	ChartWidth     int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight    int    `mapstructure:"chart_height" yaml:"chart_height"`

	// HTTP server
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SessionIdleMin int    `mapstructure:"session_idle_min" yaml:"session_idle_min"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		DateColumn:     "Date",
		CategoryColumn: "Produit",
		PreviewRows:    5,
		ExportFilename: "donnees_filtrees.csv",
		ChartFormat:    "png",
		ChartWidth:     1024,
		ChartHeight:    576,
		ListenAddr:     "127.0.0.1:8501",
		MaxUploadMB:    50,
		SessionIdleMin: 60,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Path returns the config file path: cfgFile if set, else ~/.tabviz/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabviz/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags override on top.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABVIZ")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("date_column", d.DateColumn)
	v.SetDefault("category_column", d.CategoryColumn)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("sheet", "")
	v.SetDefault("export_filename", d.ExportFilename)
	v.SetDefault("export_bom", false)
	v.SetDefault("chart_format", d.ChartFormat)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("session_idle_min", d.SessionIdleMin)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// DelimiterRune returns the configured CSV delimiter, or 0 to auto-detect.
// "tab" and `\t` both mean a tab.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case "tab", `\t`:
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

// DecimalRune returns the configured decimal separator, or 0 to auto-detect.
func (c *Global) DecimalRune() rune {
	if c.DecimalSeparator == "" {
		return 0
	}
	return []rune(c.DecimalSeparator)[0]
}
