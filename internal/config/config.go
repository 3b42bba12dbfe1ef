package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     Logger
	Downloader DownloaderConfig
	Worker     WorkerConfig
	Retention  RetentionConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type DownloaderConfig struct {
	BinaryPath     string
	WorkingDir     string
	ProbeTimeout   int
	ConvertTimeout int
}

type WorkerConfig struct {
	SoftJobLimit int
	MaxCPUUsage  float64
}

type RetentionConfig struct {
	MaxAgeMinutes        int
	SweepIntervalMinutes int
	DeliveryGraceSeconds int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func (d DownloaderConfig) ProbeTimeoutDuration() time.Duration {
	return time.Duration(d.ProbeTimeout) * time.Second
}

func (d DownloaderConfig) ConvertTimeoutDuration() time.Duration {
	return time.Duration(d.ConvertTimeout) * time.Second
}

func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeMinutes) * time.Minute
}

func (r RetentionConfig) DeliveryGrace() time.Duration {
	return time.Duration(r.DeliveryGraceSeconds) * time.Second
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
