package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hh-interviewer"
)

type Config struct {
	Listen         string           `mapstructure:"listen"`
	UsersFile      string           `mapstructure:"users-file"`
	MaxUploadBytes int64            `mapstructure:"max-upload-bytes"`
	CORS           *CORSConfig      `mapstructure:"cors"`
	AI             *AIConfig        `mapstructure:"ai"`
	Interview      *InterviewConfig `mapstructure:"interview"`
	Session        *SessionConfig   `mapstructure:"session"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow-origins"`
}

type AIConfig struct {
	Provider     string           `mapstructure:"provider"`
	Timeout      time.Duration    `mapstructure:"timeout"`
	MaxLogLength int              `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig    `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig    `mapstructure:"openai"`
	Anthropic    *AnthropicConfig `mapstructure:"anthropic"`
	Ollama       *OllamaConfig    `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

type AnthropicConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxTokens  int    `mapstructure:"max-tokens"`
	BaseURL    string `mapstructure:"base-url"`
}

type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

type InterviewConfig struct {
	QuestionsPerSkill int `mapstructure:"questions-per-skill"`
	// Seed fixes the simulated metrics and tips. Zero means a time-based seed.
	Seed int64 `mapstructure:"seed"`
}

type SessionConfig struct {
	TokenTTL time.Duration `mapstructure:"token-ttl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer runs mock job interviews built from your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("listen", ":5000")
	viper.SetDefault("users-file", "users.json")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", "60s")
	viper.SetDefault("interview.questions-per-skill", 1)
	viper.SetDefault("session.token-ttl", "24h")
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit --config the defaults and env-provided keys are enough.
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.Session == nil {
		config.Session = &SessionConfig{}
	}
	if config.CORS == nil {
		config.CORS = &CORSConfig{}
	}

	return config, nil
}
