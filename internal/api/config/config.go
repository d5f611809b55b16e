package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg = Default()

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.SetEnvPrefix("PARLOR")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// Default 返回缺省配置，未加载配置文件时使用
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		DB: DBConfig{
			Driver:      "mysql",
			MaxIdle:     10,
			MaxOpen:     100,
			MaxLifetime: 60,
		},
		Logstash: LogstashConfig{Index: "logstash-parlor"},
		JWT: JWTConfig{
			Secret:      "Parlor",
			Issuer:      "Parlor",
			ExpireHours: 24,
		},
		Chat: ChatConfig{
			InvitationTTLHours:   24 * 7,
			MessageRecallMinutes: 15,
			RelabelBatchSize:     1000,
		},
	}
}

func setDefaults() {
	d := Default()
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("database.driver", d.DB.Driver)
	viper.SetDefault("database.max_idle", d.DB.MaxIdle)
	viper.SetDefault("database.max_open", d.DB.MaxOpen)
	viper.SetDefault("database.max_lifetime", d.DB.MaxLifetime)
	viper.SetDefault("logstash.index", d.Logstash.Index)
	viper.SetDefault("jwt.secret", d.JWT.Secret)
	viper.SetDefault("jwt.issuer", d.JWT.Issuer)
	viper.SetDefault("jwt.expire_hours", d.JWT.ExpireHours)
	viper.SetDefault("chat.invitation_ttl_hours", d.Chat.InvitationTTLHours)
	viper.SetDefault("chat.message_recall_minutes", d.Chat.MessageRecallMinutes)
	viper.SetDefault("chat.relabel_batch_size", d.Chat.RelabelBatchSize)
}
