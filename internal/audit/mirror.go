// Package audit optionally mirrors meeting lifecycle events onto a durable
// NATS JetStream log, grounded on the teacher's internal/nats package
// (Connect, StreamManager, EnsureStream, subject naming) repointed at
// meeting/event subjects instead of tenant/conversation ones. Nothing in the
// core depends on this package directly; meetingsvc.AuditSink is satisfied
// structurally so the core runs unchanged with no NATS configured.
package audit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/PabloGalante/meeting-engine/pkg/logger"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
)

// StreamName is the JetStream stream events are mirrored into.
const StreamName = "MEETING_AUDIT"

// SubjectPrefix roots every audit subject: "meeting.<meeting_id>.<event>".
const SubjectPrefix = "meeting"

// Config holds the NATS connection settings an audit mirror needs.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// Mirror publishes meeting lifecycle events to a durable JetStream stream.
// It satisfies meetingsvc.AuditSink structurally.
type Mirror struct {
	conn *nats.Conn
	js   jetstream.JetStream
	log  *logger.Logger
}

// event is the JSON shape persisted for one audit record.
type event struct {
	MeetingID string            `json:"meeting_id"`
	Event     string            `json:"event"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Connect dials NATS, opens a JetStream context, and ensures StreamName
// exists. Callers that don't want a durable audit trail should simply not
// call Connect and pass a nil AuditSink to meetingsvc.New instead.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Mirror, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("audit: NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("audit: NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Warn("audit: NATS error")
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := loadTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to build TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("audit: failed to create JetStream context: %w", err)
	}

	m := &Mirror{conn: nc, js: js, log: log}
	if err := m.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mirror) ensureStream(ctx context.Context) error {
	if _, err := m.js.Stream(ctx, StreamName); err == nil {
		return nil
	}
	_, err := m.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Meeting lifecycle and agenda/minutes/mind-map audit events",
	})
	if err != nil {
		return fmt.Errorf("audit: failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject a meetingID/eventName pair publishes to.
func Subject(meetingID, eventName string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, meetingID, eventName)
}

// Record publishes one audit event. It is fire-and-forget: a publish
// failure is logged, not returned, since a lost audit record must never
// fail the meeting operation that triggered it.
func (m *Mirror) Record(ctx context.Context, meetingID, eventName string, detail map[string]string) {
	rec := event{MeetingID: meetingID, Event: eventName, Detail: detail, Timestamp: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		m.log.Sugar().Warnw("audit: failed to marshal event", "meeting_id", meetingID, "event", eventName, "error", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := m.js.Publish(publishCtx, Subject(meetingID, eventName), data); err != nil {
		m.log.Sugar().Warnw("audit: failed to publish event", "meeting_id", meetingID, "event", eventName, "error", err)
		return
	}
	metrics.RecordAuditEvent(eventName)
}

// Close releases the underlying NATS connection.
func (m *Mirror) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

func loadTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}
	return &tls.Config{RootCAs: pool, Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}
