package settings

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// consts
const (
	Name = "Tutoria"
)

// Config ...
type Config struct {
	Name         string   `ignored:"true"`
	Version      string   `ignored:"true"`
	InDev        bool     `envconfig:"in_dev"`
	PgStoreDSN   string   `envconfig:"PG_STORE_DSN"`
	PgTSConfig   string   `envconfig:"PG_TS_CONFIG"`
	PgQueryDebug bool     `envconfig:"PG_QUERY_DEBUG"`
	DbAutoInit   bool     `envconfig:"DB_AUTO_INIT"`
	HTTPListen   string   `envconfig:"HTTP_LISTEN" default:":8000"`
	RedisURI     string   `envconfig:"redis_uri"`
	AllowOrigins []string `envconfig:"allow_origins" default:"*"`

	OpenAIAPIKey string `envconfig:"openAi_Api_Key"`
	ChatModel    string `envconfig:"chat_model" default:"gpt-4o"`
	CorpusID     string `envconfig:"corpus_id" default:"isst"`
	PresetFile   string `envconfig:"preset_file"`
}

var (
	// Current 当前配置
	Current = new(Config)
)

func init() {
	if err := envconfig.Process(Name, Current); err != nil {
		log.Printf("envconfig process fail: %s", err)
	}

	Current.Name = Name
	Current.Version = version
}

// Usage 打印配置帮助
func Usage() error {
	log.Printf("ver: %s", Current.Version)
	return envconfig.Usage(Current.Name, Current)
}

// InDevelop 是否开发模式
func InDevelop() bool {
	return Current.InDev
}

// AllowAllOrigins ...
func AllowAllOrigins() bool {
	return 0 == len(Current.AllowOrigins) ||
		1 == len(Current.AllowOrigins) && Current.AllowOrigins[0] == "*"
}
