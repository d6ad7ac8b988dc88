package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

type Config struct {
	Addr string `yaml:"addr"`
	// Root est le dossier du cours ("." = dossier courant).
	Root         string `yaml:"root"`
	CourseName   string `yaml:"courseName"`
	Store        string `yaml:"store"`
	ProgressFile string `yaml:"progressFile"`
	DBPath       string `yaml:"dbPath"`
	CacheDir     string `yaml:"cacheDir"`
}

// Default lit .env (s'il existe) puis les variables CP_*.
// Les chemins laissés vides sont dérivés de Root par Resolve.
func Default() Config {
	_ = godotenv.Load()
	return Config{
		Addr:         envOr("CP_ADDR", "127.0.0.1:8000"),
		Root:         envOr("CP_ROOT", "."),
		CourseName:   os.Getenv("CP_COURSE_NAME"),
		Store:        envOr("CP_STORE", StoreJSON),
		ProgressFile: os.Getenv("CP_PROGRESS_FILE"),
		DBPath:       os.Getenv("CP_DB_PATH"),
		CacheDir:     os.Getenv("CP_CACHE_DIR"),
	}
}

// LoadFile applique un fichier YAML par-dessus cfg. Seules les clés présentes sont modifiées.
func LoadFile(cfg Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve valide cfg et complète les valeurs dérivées de Root.
func (c Config) Resolve() (Config, error) {
	if c.Root == "" {
		return c, errors.New("root is required")
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return c, fmt.Errorf("root: %w", err)
	}
	c.Root = root
	if c.CourseName == "" {
		c.CourseName = filepath.Base(root)
	}
	switch c.Store {
	case "":
		c.Store = StoreJSON
	case StoreJSON, StoreSQLite:
	default:
		return c, fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreJSON, StoreSQLite)
	}
	if c.ProgressFile == "" {
		c.ProgressFile = filepath.Join(root, "progress.json")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(root, ".course-player.db")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(root, ".course-cache")
	}
	return c, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
