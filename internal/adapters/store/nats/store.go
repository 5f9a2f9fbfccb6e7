// Package nats keeps the record log in a JetStream stream. Every record
// is one CBOR message on a single subject.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/dindex-chat/internal/codec"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/viper"
)

const (
	URLKey            = "store.nats.url"
	UserKey           = "store.nats.user"
	PasswordKey       = "store.nats.password"
	StreamKey         = "store.nats.stream"
	SubjectKey        = "store.nats.subject"
	ConnectTimeoutKey = "store.nats.connect_timeout"

	defaultStream         = "DINDEX_RECORDS"
	defaultSubject        = "dindex.records"
	defaultConnectTimeout = 5 * time.Second

	fetchBatch     = 256
	queryFetchWait = 2 * time.Second
	reconnectWait  = 2 * time.Second
)

type Config struct {
	URL            string
	User           string
	Password       string
	Stream         string
	Subject        string
	ConnectTimeout time.Duration
}

func ConfigFromViper(cfg *viper.Viper) Config {
	if cfg == nil {
		cfg = viper.New()
	}

	return Config{
		URL:            cfg.GetString(URLKey),
		User:           cfg.GetString(UserKey),
		Password:       cfg.GetString(PasswordKey),
		Stream:         cfg.GetString(StreamKey),
		Subject:        cfg.GetString(SubjectKey),
		ConnectTimeout: cfg.GetDuration(ConnectTimeoutKey),
	}
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Stream == "" {
		c.Stream = defaultStream
	}
	if c.Subject == "" {
		c.Subject = defaultSubject
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
}

type Store struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	stream  jetstream.Stream
	subject string
	logger  *slog.Logger
}

var _ ports.RecordStore = (*Store)(nil)

// Connect dials the server and makes sure the record stream exists.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("dchat-" + uuid.NewString()),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", domain.ErrStoreUnavailable, cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: create jetstream context: %w", domain.ErrStoreUnavailable, err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: ensure stream %s: %w", domain.ErrStoreUnavailable, cfg.Stream, err)
	}

	logger.Debug("connected to record stream", "url", nc.ConnectedUrl(), "stream", cfg.Stream, "subject", cfg.Subject)

	return &Store{nc: nc, js: js, stream: stream, subject: cfg.Subject, logger: logger}, nil
}

func (s *Store) Publish(ctx context.Context, rec domain.Record) error {
	body, err := codec.EncodeFields(rec.Fields())
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if _, err := s.js.Publish(ctx, s.subject, body); err != nil {
		return fmt.Errorf("%w: publish record: %w", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Query replays the stream from its first message up to the last
// sequence present when the query started.
func (s *Store) Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error) {
	matcher, err := pattern.Compile()
	if err != nil {
		return nil, err
	}

	info, err := s.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stream info: %w", domain.ErrStoreUnavailable, err)
	}
	if info.State.Msgs == 0 {
		return []domain.Record{}, nil
	}
	lastSeq := info.State.LastSeq

	cons, err := s.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{s.subject},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create query consumer: %w", domain.ErrStoreUnavailable, err)
	}

	var records []domain.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := cons.Fetch(fetchBatch, jetstream.FetchMaxWait(queryFetchWait))
		if err != nil {
			return nil, fmt.Errorf("%w: fetch records: %w", domain.ErrStoreUnavailable, err)
		}

		received := 0
		reachedEnd := false
		for msg := range batch.Messages() {
			received++
			if rec, ok := s.decode(msg); ok {
				records = append(records, rec)
			}
			if meta, err := msg.Metadata(); err == nil && meta.Sequence.Stream >= lastSeq {
				reachedEnd = true
			}
		}
		if err := batchError(batch); err != nil {
			return nil, err
		}
		if reachedEnd || received == 0 {
			break
		}
	}

	return matcher.Filter(records), nil
}

func (s *Store) Listen(ctx context.Context, pattern domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
	matcher, err := pattern.Compile()
	if err != nil {
		return err
	}

	cons, err := s.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{s.subject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("%w: create listen consumer: %w", domain.ErrStoreUnavailable, err)
	}

	if opts.Timed() {
		return s.listenTimed(ctx, cons, matcher, opts.PollInterval, handler)
	}

	return s.listenPush(ctx, cons, matcher, handler)
}

func (s *Store) listenPush(ctx context.Context, cons jetstream.Consumer, matcher *domain.Matcher, handler ports.ListenHandler) error {
	it, err := cons.Messages()
	if err != nil {
		return fmt.Errorf("%w: subscribe: %w", domain.ErrStoreUnavailable, err)
	}
	defer it.Stop()

	stop := context.AfterFunc(ctx, it.Stop)
	defer stop()

	for {
		msg, err := it.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: next record: %w", domain.ErrStoreUnavailable, err)
		}

		rec, ok := s.decode(msg)
		if !ok || !matcher.Match(rec) {
			continue
		}
		if end, err := handler.Deliver(rec); end || err != nil {
			return err
		}
	}
}

func (s *Store) listenTimed(ctx context.Context, cons jetstream.Consumer, matcher *domain.Matcher, interval time.Duration, handler ports.ListenHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := cons.Fetch(fetchBatch, jetstream.FetchMaxWait(interval))
		if err != nil {
			return fmt.Errorf("%w: fetch records: %w", domain.ErrStoreUnavailable, err)
		}

		matched := 0
		for msg := range batch.Messages() {
			rec, ok := s.decode(msg)
			if !ok || !matcher.Match(rec) {
				continue
			}
			matched++
			if end, err := handler.Deliver(rec); end || err != nil {
				drain(batch)
				return err
			}
		}
		if err := batchError(batch); err != nil {
			return err
		}

		if matched == 0 {
			if end, err := handler.Deliver(domain.Record{}); end || err != nil {
				return err
			}
		}
	}
}

func (s *Store) decode(msg jetstream.Msg) (domain.Record, bool) {
	fields, err := codec.DecodeFields(msg.Data())
	if err != nil {
		s.logger.Warn("skipping undecodable record", "subject", msg.Subject(), "error", err)
		return domain.Record{}, false
	}

	return domain.NewRecord(fields), true
}

func (s *Store) Close() error {
	if err := s.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}

	return nil
}

func batchError(batch jetstream.MessageBatch) error {
	err := batch.Error()
	if err == nil || errors.Is(err, nats.ErrTimeout) {
		return nil
	}

	return fmt.Errorf("%w: fetch records: %w", domain.ErrStoreUnavailable, err)
}

// drain empties the batch channel so the fetch request can finish.
func drain(batch jetstream.MessageBatch) {
	for range batch.Messages() {
	}
}
