package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-registry/internal/models"
	"github.com/ukydev/vehicle-registry/internal/sweeper"
)

const connectTimeout = 10 * time.Second

// Publisher broadcasts registry events over MQTT so dashboards and
// downstream consumers see renewals and sweeps as they happen. Publish
// failures are logged and dropped; the write path never depends on the
// broker.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// Connect dials the MQTT broker and returns a publisher.
func Connect(brokerURL, clientID, topicPrefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s failed: %w", brokerURL, err)
	}
	return &Publisher{client: client, topicPrefix: topicPrefix}, nil
}

// PublishRenewal publishes a processed renewal event.
func (p *Publisher) PublishRenewal(event *models.RenewalEvent) {
	p.publish(p.topicPrefix+"/renewals", event)
}

// PublishSweep publishes the summary of a completed sweep run.
func (p *Publisher) PublishSweep(result sweeper.Result) {
	p.publish(p.topicPrefix+"/sweeps", result)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("topic", topic).Error("Failed to marshal event")
		return
	}
	token := p.client.Publish(topic, 0, false, data)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("topic", topic).Error("Failed to publish event")
		}
	}()
}
