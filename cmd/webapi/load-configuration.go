package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// WebAPIConfiguration describes the web API configuration. This structure is automatically parsed by
// loadConfiguration and values from flags, environment variables or configuration file will be loaded.
type WebAPIConfiguration struct {
	Config struct {
		Path string `conf:"default:/conf/config.yml"`
	}
	Web struct {
		APIHost         string        `conf:"default:0.0.0.0:5000"`
		ReadTimeout     time.Duration `conf:"default:10s"`
		WriteTimeout    time.Duration `conf:"default:15s"`
		ShutdownTimeout time.Duration `conf:"default:5s"`
		MaxUploadSize   int64         `conf:"default:16777216"`
		StaticDir       string        `conf:"default:static"`
		SecureCookies   bool          `conf:"default:false"`
		BehindProxy     bool          `conf:"default:false"`
	}
	DB struct {
		Filename string `conf:"default:poems.db"`
	}
	Admin struct {
		Password string `conf:"default:admin123,noprint"`
	}
	Session struct {
		Secret string `conf:"default:change-me,noprint"`
	}
	Debug bool
}

// loadConfiguration creates a WebAPIConfiguration starting from flags, environment variables and configuration file.
// It works in this way:
//
//   - a `.env` file in the working directory, if any, seeds environment variables not set already
//   - flags, then environment variables prefixed by CFG_, override default values
//   - the configuration file at Config.Path, if it exists, overrides everything
//
// If the "--help" flag is passed, the usage is printed and conf.ErrHelpWanted is returned.
func loadConfiguration() (WebAPIConfiguration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return WebAPIConfiguration{}, fmt.Errorf("loading .env file: %w", err)
	}
	return parseConfiguration(os.Args[1:])
}

func parseConfiguration(args []string) (cfg WebAPIConfiguration, err error) {
	if err = conf.Parse(args, "CFG", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage("CFG", &cfg)
			if err != nil {
				return cfg, fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Override values from YAML if specified and if it exists (useful in k8s/compose)
	fp, err := os.Open(cfg.Config.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("can't read the config file, while it exists: %w", err)
	} else if err == nil {
		yamlFile, err := io.ReadAll(fp)
		_ = fp.Close()
		if err != nil {
			return cfg, fmt.Errorf("can't read config file: %w", err)
		}
		if err = yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return cfg, fmt.Errorf("can't unmarshal config file: %w", err)
		}
	}

	return cfg, nil
}
