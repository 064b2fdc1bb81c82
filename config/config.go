package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// AIConfig holds the generation parameters shared by every model call.
type AIConfig struct {
	APIKey          string  `mapstructure:"apiKey"`
	Model           string  `mapstructure:"model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"maxOutputTokens"`
	IncludeThoughts bool    `mapstructure:"includeThoughts"`
	ThinkingBudget  int32   `mapstructure:"thinkingBudget"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"clientID"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topicPrefix"`
	QoS         byte   `mapstructure:"qos"`
}

type NotificationsConfig struct {
	Project            string        `mapstructure:"project"`
	Location           string        `mapstructure:"location"`
	CallbackURL        string        `mapstructure:"callbackURL"`
	TrialReminderHours int           `mapstructure:"trialReminderHours"`
	PollInterval       time.Duration `mapstructure:"pollInterval"`
	MaxPollInterval    time.Duration `mapstructure:"maxPollInterval"`
	BatchSize          int           `mapstructure:"batchSize"`
	MaxAttempts        int           `mapstructure:"maxAttempts"`
	MQTT               MQTTConfig    `mapstructure:"mqtt"`
}

type PromptLogConfig struct {
	Store        string        `mapstructure:"store"`
	WaitBudget   time.Duration `mapstructure:"waitBudget"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type RevenueCatConfig struct {
	BaseURL   string        `mapstructure:"baseURL"`
	SecretKey string        `mapstructure:"secretKey"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PromoConfig struct {
	DefaultEntitlement  string   `mapstructure:"defaultEntitlement"`
	DefaultDurationDays int      `mapstructure:"defaultDurationDays"`
	AdminEmails         []string `mapstructure:"adminEmails"`
	RedeemPerMinute     int      `mapstructure:"redeemPerMinute"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Mongo struct {
			URI      string `mapstructure:"uri"`
			Database string `mapstructure:"database"`
		} `mapstructure:"mongo"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	App struct {
		ShareBaseURL  string        `mapstructure:"shareBaseURL"`
		ImageRoot     string        `mapstructure:"imageRoot"`
		TripCacheTTL  time.Duration `mapstructure:"tripCacheTTL"`
		AIPerMinute   int           `mapstructure:"aiPerMinute"`
		AllowedOrigin []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"app"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	AI            AIConfig            `mapstructure:"ai"`
	PromptLog     PromptLogConfig     `mapstructure:"promptLog"`
	RevenueCat    RevenueCatConfig    `mapstructure:"revenueCat"`
	Promo         PromoConfig         `mapstructure:"promo"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// environment overrides; secrets are only ever read from here
var envBindings = map[string]string{
	"ai.apiKey":                        "GEMINI_API_KEY",
	"revenueCat.secretKey":             "REVENUECAT_SECRET_KEY",
	"jwt.secretKey":                    "JWT_SECRET_KEY",
	"repositories.postgres.password":   "POSTGRES_PASSWORD",
	"repositories.postgres.host":       "POSTGRES_HOST",
	"repositories.mongo.uri":           "MONGO_URI",
	"notifications.mqtt.password":      "MQTT_PASSWORD",
	"notifications.project":            "GCP_PROJECT",
	"notifications.callbackURL":        "NOTIFICATION_CALLBACK_URL",
	"app.shareBaseURL":                 "NEXT_PUBLIC_APP_URL",
	"promptLog.store":                  "PROMPT_LOG_STORE",
	"repositories.postgres.username":   "POSTGRES_USER",
	"repositories.postgres.db":         "POSTGRES_DB",
	"notifications.mqtt.broker":        "MQTT_BROKER",
	"handlers.prometheus.port":         "PROMETHEUS_PORT",
	"server.HTTPPort":                  "HTTP_PORT",
	"repositories.mongo.database":      "MONGO_DATABASE",
	"notifications.trialReminderHours": "TRIAL_REMINDER_HOURS",
	"promo.adminEmails":                "ADMIN_EMAILS",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	for i, email := range config.Promo.AdminEmails {
		config.Promo.AdminEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// NotificationTargetURL is the endpoint scheduled notification tasks are delivered to.
func (c NotificationsConfig) NotificationTargetURL() string {
	if c.CallbackURL != "" {
		return c.CallbackURL
	}
	return fmt.Sprintf("https://%s-%s.cloudfunctions.net/sendScheduledNotification", c.Location, c.Project)
}
