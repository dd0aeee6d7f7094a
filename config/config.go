package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "SHOP_CONFIG_FILE"

type consumers struct {
	ProductsGroup      string `mapstructure:"products_group" validate:"required"`
	ProductFilterGroup string `mapstructure:"product_filter_group" validate:"required"`
}

type topics struct {
	Products      string `mapstructure:"products" validate:"required"`
	ProductFilter string `mapstructure:"product_filter" validate:"required"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers" validate:"required,min=1"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls" validate:"required,min=1"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type ranker struct {
	SearchCmd      []string      `mapstructure:"search_cmd" validate:"required,min=1"`
	UserCmd        []string      `mapstructure:"user_cmd" validate:"required,min=1"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes" validate:"gte=0"`
}

// An empty llm url disables generation, chat replies use the template.
type llm struct {
	URL         string        `mapstructure:"url" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0"`
}

type Config struct {
	LogLevel           slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr     string        `mapstructure:"http_server_addr" validate:"required"`
	HTTPRequestTimeout time.Duration `mapstructure:"http_request_timeout" validate:"gte=0"`
	SQLDB              string        `mapstructure:"sql_db" validate:"required"`
	JWTSecret          string        `mapstructure:"jwt_secret" validate:"required"`
	Ranker             ranker        `mapstructure:"ranker"`
	LLM                llm           `mapstructure:"llm"`
	Broker             broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads, decodes and validates the config file.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) != 0 {
			fe := verrs[0]
			return Config{}, fmt.Errorf(
				"invalid %s: failed on %q", fe.Namespace(), fe.Tag(),
			)
		}
		return Config{}, err
	}
	return cfg, nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPRequestTimeout=%s
	SQLDB=%q
	JWTSecret=%q

	Ranker:
	SearchCmd=%q
	UserCmd=%q
	Timeout=%s
	MaxOutputBytes=%d

	LLM:
	URL=%q
	APIKey=%q
	Model=%q
	Timeout=%s
	Temperature=%v
	MaxTokens=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		Products=%q
		ProductFilter=%q
	Consumers:
		ProductsGroup=%q
		ProductFilterGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPRequestTimeout,
		redactDSN(c.SQLDB),
		mask(c.JWTSecret),
		c.Ranker.SearchCmd,
		c.Ranker.UserCmd,
		c.Ranker.Timeout,
		c.Ranker.MaxOutputBytes,
		c.LLM.URL,
		mask(c.LLM.APIKey),
		c.LLM.Model,
		c.LLM.Timeout,
		c.LLM.Temperature,
		c.LLM.MaxTokens,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.Products,
		c.Broker.Topics.ProductFilter,
		c.Broker.Consumers.ProductsGroup,
		c.Broker.Consumers.ProductFilterGroup,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// redactDSN hides the password of a URL style dsn.
// Other dsn forms are masked entirely.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return mask(dsn)
	}
	return u.Redacted()
}
