package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Default questionnaire layout: six parts of four questions each.
var DefaultSections = []string{
	"Part A: Mood and Energy",
	"Part B: Anxiety and Worry",
	"Part C: Sleep Patterns",
	"Part D: Social Interactions",
	"Part E: Physical Symptoms",
	"Part F: Daily Functioning",
}

const (
	DefaultQuestionnaireType   = "MENTAL_HEALTH_SCREENER"
	DefaultQuestionsPerSection = 4
)

// QuestionnaireConfig describes the schema of the questionnaire served by this instance.
type QuestionnaireConfig struct {
	Type                string   `mapstructure:"type" json:"type"`                                   // Tag written to every persisted response
	QuestionsPerSection int      `mapstructure:"questions_per_section" json:"questions_per_section"` // Question id / this = section index
	Sections            []string `mapstructure:"sections" json:"sections"`                           // Ordered section titles
	Questions           []string `mapstructure:"questions" json:"questions"`                         // Optional; index is the question id
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		Driver string // "sqlite" (default), "postgres" or "memory"
		DSN    string // SQLite file path / "memory", or a postgres URL
	}
	Questionnaire QuestionnaireConfig `mapstructure:"questionnaire"`
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from file and environment variables.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // For running from locations like tests

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	applyEnvOverrides(&AppConfig)
	normalize(&AppConfig)
	log.Printf("INFO: [Config] Configuration loading complete. Questionnaire '%s' with %d sections of %d questions.",
		AppConfig.Questionnaire.Type, len(AppConfig.Questionnaire.Sections), AppConfig.Questionnaire.QuestionsPerSection)
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "memory")
	viper.SetDefault("questionnaire.type", DefaultQuestionnaireType)
	viper.SetDefault("questionnaire.questions_per_section", DefaultQuestionsPerSection)
	viper.SetDefault("questionnaire.sections", DefaultSections)
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
		log.Printf("INFO: [Config] Database driver overridden by environment variable DATABASE_DRIVER: %s", driver)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
		log.Println("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}
	if qps := os.Getenv("QUESTIONS_PER_SECTION"); qps != "" {
		n, err := strconv.Atoi(qps)
		if err != nil || n <= 0 {
			log.Printf("WARN: [Config] Ignoring invalid QUESTIONS_PER_SECTION value '%s'.", qps)
		} else {
			cfg.Questionnaire.QuestionsPerSection = n
		}
	}
}

// normalize fills in anything a partial config file left empty.
func normalize(cfg *Config) {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Questionnaire.Type == "" {
		cfg.Questionnaire.Type = DefaultQuestionnaireType
	}
	if cfg.Questionnaire.QuestionsPerSection <= 0 {
		log.Printf("WARN: [Config] questions_per_section must be positive, falling back to %d.", DefaultQuestionsPerSection)
		cfg.Questionnaire.QuestionsPerSection = DefaultQuestionsPerSection
	}
	if len(cfg.Questionnaire.Sections) == 0 {
		cfg.Questionnaire.Sections = append([]string(nil), DefaultSections...)
	}
}
