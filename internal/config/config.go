package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host         string       `koanf:"host"`
	Listen       string       `koanf:"listen"`
	Google       Google       `koanf:"google"`
	Database     Database     `koanf:"db"`
	Availability Availability `koanf:"availability"`
	Sync         Sync         `koanf:"sync"`
	Log          Log          `koanf:"log"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Availability holds the defaults applied when a group has no preferences of its own.
type Availability struct {
	Timezone       string `koanf:"timezone"`
	HideHolidays   bool   `koanf:"hideholidays"`
	DedupAllDay    bool   `koanf:"dedupallday"`
	HorizonDays    int    `koanf:"horizondays"`
	HighlightLimit int    `koanf:"highlightlimit"`
}

type Sync struct {
	Enabled      bool          `koanf:"enabled"`
	Cron         string        `koanf:"cron"`
	Workers      int           `koanf:"workers"`
	FetchTimeout time.Duration `koanf:"fetchtimeout"`
	Retries      uint          `koanf:"retries"`
	// HorizonDays is how far ahead feeds are expanded and stored.
	HorizonDays int `koanf:"horizondays"`
}

type Log struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"maxsizemb"`
	MaxBackups int    `koanf:"maxbackups"`
	MaxAgeDays int    `koanf:"maxagedays"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:3000",
		Listen: ":8181",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "gatherly",
			Pass:   "",
			Name:   "gatherly",
			Schema: "gatherly",
		},
		Availability: Availability{
			Timezone:       "UTC",
			HideHolidays:   true,
			DedupAllDay:    true,
			HorizonDays:    7,
			HighlightLimit: 3,
		},
		Sync: Sync{
			Enabled:      true,
			Cron:         "*/15 * * * *",
			Workers:      4,
			FetchTimeout: 15 * time.Second,
			Retries:      3,
			HorizonDays:  30,
		},
		Log: Log{
			Level:      "",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "GATHERLY_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "GATHERLY_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (a Availability) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Warnf("unknown timezone %q, falling back to UTC: %v", a.Timezone, err)
		return time.UTC
	}
	return loc
}
