package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionExpired is returned when the push service no longer knows the endpoint.
var ErrSubscriptionExpired = errors.New("push subscription expired")

type PushDeliveryError struct {
	StatusCode int
	Body       string
}

func (e PushDeliveryError) Error() string {
	return fmt.Sprintf("push service responded with %d: %s", e.StatusCode, e.Body)
}

type PushMessage struct {
	Endpoint string
	P256dh   string
	Auth     string

	Payload []byte
	Topic   string
	Urgency webpush.Urgency
}

type PushConfiguration struct {
	Subject    string
	PublicKey  string
	PrivateKey string
	TTL        time.Duration
	HTTPClient *http.Client
}

type PushClient struct {
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
	httpClient webpush.HTTPClient
}

func NewPushClient(config PushConfiguration) (*PushClient, error) {
	if config.PublicKey == "" || config.PrivateKey == "" {
		return nil, errors.New("vapid key pair is required")
	}

	var httpClient webpush.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	if config.HTTPClient != nil {
		httpClient = config.HTTPClient
	}

	return &PushClient{
		// webpush adds the scheme itself unless the subject is an https URL.
		subscriber: strings.TrimPrefix(config.Subject, "mailto:"),
		publicKey:  config.PublicKey,
		privateKey: config.PrivateKey,
		ttl:        int(config.TTL.Seconds()),
		httpClient: httpClient,
	}, nil
}

func (c *PushClient) PublicKey() string {
	return c.publicKey
}

func (c *PushClient) Send(ctx context.Context, m PushMessage) error {
	subscription := webpush.Subscription{
		Endpoint: m.Endpoint,
		Keys: webpush.Keys{
			Auth:   m.Auth,
			P256dh: m.P256dh,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, m.Payload, &subscription, &webpush.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      c.subscriber,
		Topic:           m.Topic,
		TTL:             c.ttl,
		Urgency:         m.Urgency,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionExpired
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return PushDeliveryError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}

// GenerateVAPIDKeys returns a fresh (publicKey, privateKey) pair.
func GenerateVAPIDKeys() (string, string, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
