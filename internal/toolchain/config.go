package toolchain

import (
	"github.com/spf13/viper"
)

// Config carries the devctl settings, read from .devctl.yaml and the
// environment (DEVCTL_ prefix). REPORT_HOST and REPORT_PORT are also bound
// bare because they predate the prefix.
type Config struct {
	ReportHost        string  `mapstructure:"report_host"`
	ReportPort        string  `mapstructure:"report_port"`
	ResultsDir        string  `mapstructure:"results_dir"`
	ReportDir         string  `mapstructure:"report_dir"`
	CoverageThreshold float64 `mapstructure:"coverage_threshold"`
}

// LoadConfig reads devctl configuration for dir. A missing config file is
// fine; defaults apply.
func LoadConfig(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName(".devctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("report_host", "127.0.0.1")
	v.SetDefault("report_port", "8090")
	v.SetDefault("results_dir", ".devctl/results")
	v.SetDefault("report_dir", ".devctl/report")
	v.SetDefault("coverage_threshold", 80.0)

	v.SetEnvPrefix("DEVCTL")
	v.AutomaticEnv()
	_ = v.BindEnv("report_host", "REPORT_HOST", "DEVCTL_REPORT_HOST")
	_ = v.BindEnv("report_port", "REPORT_PORT", "DEVCTL_REPORT_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
