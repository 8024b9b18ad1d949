package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lapcounterbot/pkg/race"
)

type Config struct {
	RaceName         string        `env:"RACE_NAME" envDefault:"Race"`
	CategoriesFile   string        `env:"RACE_CATEGORIES_FILE"`
	DBPath           string        `env:"DB_PATH" envDefault:"./lapcounter-bot.db"`
	JournalPath      string        `env:"JOURNAL_PATH" envDefault:"./binaries/badgerdb"`
	WebserverAddress string        `env:"WEBSERVER_ADDRESS" envDefault:":8080"`
	RFIDAddress      string        `env:"RFID_ADDRESS"`
	RFIDMinLapGap    time.Duration `env:"RFID_MIN_LAP_GAP" envDefault:"10s"`
	TelegramToken    string        `env:"TELEGRAM_TOKEN"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1m"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty        bool          `env:"LOG_PRETTY" envDefault:"false"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse env")
	}
	if cfg.SnapshotInterval <= 0 {
		return cfg, errors.Errorf("parse env: SNAPSHOT_INTERVAL must be positive, got %s", cfg.SnapshotInterval)
	}
	return cfg, nil
}

type categoriesFile struct {
	Categories []race.CategoryInput `yaml:"categories"`
}

// LoadCategories reads the initial categories of a race. An empty path yields
// no categories. Entries are not validated here.
func LoadCategories(path string) ([]race.CategoryInput, error) {
	if path == "" {
		return []race.CategoryInput{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParseCategories(data)
}

func ParseCategories(data []byte) ([]race.CategoryInput, error) {
	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse categories")
	}
	if f.Categories == nil {
		f.Categories = []race.CategoryInput{}
	}
	return f.Categories, nil
}
