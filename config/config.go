package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"battlecar/world"
)

// Config is the server configuration, read from BATTLECAR_* variables.
type Config struct {
	Addr          string        `env:"BATTLECAR_ADDR"          envDefault:":8080"`
	TickHz        int           `env:"BATTLECAR_TICK_HZ"       envDefault:"60"`
	DBPath        string        `env:"BATTLECAR_DB_PATH"       envDefault:"battlecar.db"`
	LogLevel      string        `env:"BATTLECAR_LOG_LEVEL"     envDefault:"info"`
	Obstacles     int           `env:"BATTLECAR_OBSTACLES"     envDefault:"15"`
	MaxTicks      int           `env:"BATTLECAR_MAX_TICKS"     envDefault:"0"`
	LayoutPath    string        `env:"BATTLECAR_LAYOUT"`
	AllowOrigins  []string      `env:"BATTLECAR_ALLOW_ORIGINS" envSeparator:","`
	RoomCreateRPM int           `env:"BATTLECAR_ROOM_CREATE_RPM" envDefault:"30"`
	SimulateRPM   int           `env:"BATTLECAR_SIMULATE_RPM"  envDefault:"10"`
	ShutdownGrace time.Duration `env:"BATTLECAR_SHUTDOWN_GRACE" envDefault:"10s"`
}

// InitConfig loads the given .env files (default ".env") into the process
// environment. Missing files are not an error.
func InitConfig(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads .env files and then the environment.
func Load(files ...string) (Config, error) {
	if err := InitConfig(files...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("BATTLECAR_ADDR must not be empty")
	}
	if c.TickHz <= 0 {
		return fmt.Errorf("BATTLECAR_TICK_HZ must be > 0, got %d", c.TickHz)
	}
	if c.Obstacles < 0 || c.Obstacles > world.MaxObstacles {
		return fmt.Errorf("BATTLECAR_OBSTACLES must be in [0, %d], got %d", world.MaxObstacles, c.Obstacles)
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("BATTLECAR_MAX_TICKS must be >= 0, got %d", c.MaxTicks)
	}
	if c.RoomCreateRPM <= 0 {
		return fmt.Errorf("BATTLECAR_ROOM_CREATE_RPM must be > 0, got %d", c.RoomCreateRPM)
	}
	if c.SimulateRPM <= 0 {
		return fmt.Errorf("BATTLECAR_SIMULATE_RPM must be > 0, got %d", c.SimulateRPM)
	}
	return nil
}
