package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ngantchou/warap-ai-sub004/core/gateway"
	"github.com/ngantchou/warap-ai-sub004/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT bridge to
// the messaging gateway.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	OutboundTopic string          `json:"outbound_topic"` // prefix, address appended
	InboundTopic  string          `json:"inbound_topic"`  // wildcard subscription, last level is the address
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	AuthMethod    string          `json:"auth_method"`
	QoS           map[string]byte `json:"qos"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// SetDefaults applies the default gateway topics.
func (c *Config) SetDefaults() {
	if c.OutboundTopic == "" {
		c.OutboundTopic = "warap/gateway/out"
	}
	if c.InboundTopic == "" {
		c.InboundTopic = "warap/gateway/in/+"
	}
}

// Validate checks mandatory connection fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoGateway implements gateway.Gateway over MQTT: outbound texts are
// published per-address, inbound replies arrive on the wildcard topic
// and are routed to the configured handler.
type PahoGateway struct {
	cli           pahoClient
	outboundTopic string
	inboundTopic  string
	qos           map[string]byte

	mu         sync.Mutex
	handler    gateway.InboundHandler
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoGateway connects to the MQTT broker and subscribes to the
// inbound reply topic.
func NewPahoGateway(cfg Config) (*PahoGateway, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_gateway")
	g := &PahoGateway{
		outboundTopic: strings.TrimSuffix(cfg.OutboundTopic, "/"),
		inboundTopic:  cfg.InboundTopic,
		qos:           cfg.QoS,
		logger:        log,
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := g.qos["inbound"]; ok {
			qos = q
		}
		if token := c.Subscribe(g.inboundTopic, qos, g.onInbound); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	g.cli = c
	return g, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// SetInboundHandler registers the handler for provider replies. Replies
// arriving before a handler is set are dropped with a warning.
func (g *PahoGateway) SetInboundHandler(h gateway.InboundHandler) {
	g.mu.Lock()
	g.handler = h
	g.mu.Unlock()
}

func (g *PahoGateway) onInbound(_ paho.Client, msg paho.Message) {
	var m struct {
		Address    string `json:"address"`
		Text       string `json:"text"`
		ReceivedAt int64  `json:"received_at"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		g.logger.Errorf("failed to decode inbound message: %v", err)
		return
	}
	if m.Address == "" {
		// Fall back to the topic's last level.
		parts := strings.Split(msg.Topic(), "/")
		m.Address = parts[len(parts)-1]
	}
	receivedAt := time.Now()
	if m.ReceivedAt > 0 {
		receivedAt = time.UnixMilli(m.ReceivedAt)
	}

	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	if h == nil {
		g.logger.Warnf("inbound message from %s dropped: no handler", m.Address)
		return
	}
	h(gateway.InboundMessage{Address: m.Address, Text: m.Text, ReceivedAt: receivedAt})
}

// SendText publishes the text to the address-specific outbound topic.
// Publishing is retried with exponential backoff before reporting a
// delivery failure.
func (g *PahoGateway) SendText(ctx context.Context, address, text string) error {
	msg := struct {
		MessageID string `json:"message_id"`
		Address   string `json:"address"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	}{
		MessageID: uuid.NewString(),
		Address:   address,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s/%s", g.outboundTopic, address)
	qos := byte(0)
	if q, ok := g.qos["outbound"]; ok {
		qos = q
	}
	if g.maxRetries <= 0 {
		g.maxRetries = 3
	}
	if g.backoff <= 0 {
		g.backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := g.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			g.logger.Infof("sent message %s to %s", msg.MessageID, topic)
			return nil
		}
		g.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(g.backoff * time.Duration(1<<attempt))
	}
	return fmt.Errorf("%w: %v", gateway.ErrDeliveryFailed, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (g *PahoGateway) Disconnect() {
	if g.cli != nil && g.cli.IsConnected() {
		g.cli.Disconnect(250)
	}
}
