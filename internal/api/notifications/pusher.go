package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

var ErrPusherDisconnected = errors.New("push broker not connected")

// Pusher delivers a notification to one device and returns the message id.
type Pusher interface {
	Push(ctx context.Context, msg types.PushMessage) (string, error)
}

var _ Pusher = (*MQTTPusher)(nil)

// MQTTPusher publishes each message to {topicPrefix}/{token}; the device
// gateway subscribed there hands it to the platform push service.
type MQTTPusher struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *slog.Logger
}

// NewMQTTPusher connects in the background and keeps retrying; Push fails
// with ErrPusherDisconnected until the broker is reachable.
func NewMQTTPusher(cfg config.MQTTConfig, logger *slog.Logger) *MQTTPusher {
	uniqueID := fmt.Sprintf("%s_%s", cfg.ClientID, uuid.New().String())
	l := logger.With(slog.String("component", "mqtt"), slog.String("broker", cfg.Broker))

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(uniqueID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			l.Info("Connected to MQTT broker", slog.String("client_id", uniqueID))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			l.Error("MQTT connection lost", slog.Any("error", err))
		})

	client := mqtt.NewClient(opts)
	client.Connect()
	return newMQTTPusher(client, cfg, logger)
}

func newMQTTPusher(client mqtt.Client, cfg config.MQTTConfig, logger *slog.Logger) *MQTTPusher {
	return &MQTTPusher{
		client: client,
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:    cfg.QoS,
		logger: logger,
	}
}

func (p *MQTTPusher) topic(token string) string {
	return p.prefix + "/" + token
}

func (p *MQTTPusher) Push(ctx context.Context, msg types.PushMessage) (string, error) {
	if !p.client.IsConnectionOpen() {
		return "", ErrPusherDisconnected
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push message: %w", err)
	}

	token := p.client.Publish(p.topic(msg.Token), p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := token.Error(); err != nil {
		return "", fmt.Errorf("failed to publish push message: %w", err)
	}
	return msg.MessageID, nil
}

// Close disconnects, waiting up to 250ms for in-flight publishes.
func (p *MQTTPusher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.logger.Info("MQTT connection closed")
	}
}
