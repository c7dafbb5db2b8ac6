package sink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/n5dxb/iridium-ground/internal/pipectx"
	"github.com/n5dxb/iridium-ground/internal/symbol"
)

// MQTTAlert publishes a small retained JSON message per accepted frame,
// adapted from the teacher's mqtt_publisher.go spot-publishing pattern
// (SPEC_FULL.md §6).
type MQTTAlert struct {
	client mqtt.Client
	topic  string
	ctx    *pipectx.Context
}

// alertPayload is the retained MQTT message body for one decoded frame.
type alertPayload struct {
	ID            int64   `json:"id"`
	TimestampNs   int64   `json:"timestamp_ns"`
	Direction     string  `json:"direction"`
	ConfidencePct int     `json:"confidence_pct"`
	CenterFreqHz  float64 `json:"center_freq_hz"`
}

func generateClientID() string {
	return "iridium-ground_" + uuid.NewString()
}

// NewMQTTAlert connects to broker and returns a ready-to-use MQTTAlert
// publishing to topic. ctx is used only for logging.
func NewMQTTAlert(ctx *pipectx.Context, broker, topic, username, password string) (*MQTTAlert, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(generateClientID())
	if username != "" {
		opts.SetUsername(username)
	}
	if password != "" {
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectionLostHandler(func(mqtt.Client, error) {
		ctx.Logf("sink/mqtt", "connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, token.Error())
	}
	ctx.Logf("sink/mqtt", "connected to %s", broker)

	return &MQTTAlert{client: client, topic: topic, ctx: ctx}, nil
}

// Frame implements FrameSink.
func (m *MQTTAlert) Frame(f symbol.DemodFrame) {
	payload := alertPayload{
		ID:            f.ID,
		TimestampNs:   f.TimestampNs,
		Direction:     f.Direction.String(),
		ConfidencePct: f.ConfidencePct,
		CenterFreqHz:  f.CenterFreqHz,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		m.ctx.Logf("sink/mqtt", "marshal: %v", err)
		return
	}
	token := m.client.Publish(m.topic, 0, true, body)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		m.ctx.Logf("sink/mqtt", "publish: %v", token.Error())
	}
}

// Close disconnects the MQTT client.
func (m *MQTTAlert) Close() {
	m.client.Disconnect(250)
}
