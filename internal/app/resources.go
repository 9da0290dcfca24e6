package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/datasprint/internal/migrations"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/idempotency"
	"github.com/shandysiswandi/datasprint/internal/pkg/mail"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
)

const pingTimeout = 5 * time.Second

func (a *App) initDatabase() error {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		return err
	}
	a.dbConn = pool
	a.onClose("database", func(context.Context) error {
		pool.Close()
		return nil
	})

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if a.config.GetBool("database.auto_migrate") {
		if err := migrations.Up(a.ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		slog.Info("database migrated")
	}

	return nil
}

func (a *App) initCache() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.cacheConn = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	a.idemp = idempotency.New(rdb)
	return nil
}

func (a *App) initMail() error {
	client, err := mail.New(mailConfig(a.config))
	if err != nil {
		return err
	}

	a.mail = client
	a.onClose("mail", func(context.Context) error { return client.Close() })
	return nil
}

func (a *App) initStorage() error {
	client, err := storage.New(a.ctx, storageConfig(a.config))
	if err != nil {
		return err
	}

	a.storage = client
	a.onClose("storage", func(context.Context) error { return client.Close() })
	return nil
}

func (a *App) initMessaging() error {
	client, err := messaging.New(a.ctx, messagingConfig(a.config))
	if err != nil {
		return err
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
	return nil
}

// initCasbin loads the RBAC policy from postgres and keeps every replica in
// sync through LISTEN/NOTIFY on the watcher channel.
func (a *App) initCasbin() error {
	m, err := pgxcasbin.NewRBACModel()
	if err != nil {
		return err
	}

	adapter, err := pgxcasbin.NewAdapter(a.ctx, a.dbConn, pgxcasbin.WithTableName("casbin_rules"))
	if err != nil {
		return err
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return err
	}

	watcher, err := pgxcasbin.NewWatcherWithPool(a.ctx, a.dbConn, pgxcasbin.OptionWatcher{
		NotifySelf: true,
		Channel:    a.config.GetString("casbin.watcher_channel"),
		LocalID:    a.uuid.Generate(),
	})
	if err != nil {
		return err
	}
	a.onClose("casbin watcher", func(context.Context) error {
		watcher.Close()
		return nil
	})

	if err := watcher.SetUpdateCallback(pgxcasbin.DefaultCallback(e)); err != nil {
		return err
	}
	if err := e.SetWatcher(watcher); err != nil {
		return err
	}
	e.EnableAutoSave(true)
	e.EnableAutoNotifyWatcher(true)

	a.enforcer = e
	return nil
}

func mailConfig(cfg config.Config) mail.Config {
	return mail.Config{
		Driver: cfg.GetString("mail.driver"),
		SMTP: mail.SMTPConfig{
			Host:     cfg.GetString("mail.smtp.host"),
			Port:     cfg.GetInt("mail.smtp.port"),
			Username: cfg.GetString("mail.smtp.username"),
			Password: cfg.GetString("mail.smtp.password"),
			From:     sender(cfg),
			Timeout:  cfg.GetSecond("mail.smtp.timeout_seconds"),
		},
		Brevo: mail.BrevoConfig{
			APIKey:      cfg.GetString("mail.brevo.api_key"),
			Endpoint:    cfg.GetString("mail.brevo.endpoint"),
			SenderName:  cfg.GetString("mail.sender_name"),
			SenderEmail: cfg.GetString("mail.from"),
			Timeout:     cfg.GetSecond("mail.brevo.timeout_seconds"),
		},
	}
}

// sender renders mail.from with mail.sender_name as its display name.
func sender(cfg config.Config) string {
	from := cfg.GetString("mail.from")
	if name := cfg.GetString("mail.sender_name"); name != "" && from != "" {
		return fmt.Sprintf("%s <%s>", name, from)
	}
	return from
}

func storageConfig(cfg config.Config) storage.Config {
	str := func(key string) string { return strings.TrimSpace(cfg.GetString(key)) }

	return storage.Config{
		Driver: str("storage.driver"),
		S3: storage.S3Config{
			Region:       str("storage.s3.region"),
			Endpoint:     str("storage.s3.endpoint"),
			AccessKey:    str("storage.s3.access_key"),
			SecretKey:    str("storage.s3.secret_key"),
			SessionToken: str("storage.s3.session_token"),
			UsePathStyle: cfg.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:     str("storage.minio.endpoint"),
			Region:       str("storage.minio.region"),
			AccessKey:    str("storage.minio.access_key"),
			SecretKey:    str("storage.minio.secret_key"),
			SessionToken: str("storage.minio.session_token"),
			UseSSL:       cfg.GetBool("storage.minio.use_ssl"),
		},
		GCS: storage.GCSConfig{
			CredentialsFile: str("storage.gcs.credentials_file"),
			CredentialsJSON: cfg.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        str("storage.gcs.endpoint"),
			UserAgent:       str("storage.gcs.user_agent"),
			WithoutAuth:     cfg.GetBool("storage.gcs.without_auth"),
		},
	}
}

func messagingConfig(cfg config.Config) messaging.Config {
	return messaging.Config{
		Driver: cfg.GetString("messaging.driver"),
		NSQ: messaging.NSQConfig{
			ProducerAddr:        cfg.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:           cfg.GetArray("messaging.nsq.nsqd_addrs"),
			LookupdAddrs:        cfg.GetArray("messaging.nsq.lookupd_addrs"),
			DialTimeout:         cfg.GetSecond("messaging.nsq.dial_timeout_seconds"),
			ReadTimeout:         cfg.GetSecond("messaging.nsq.read_timeout_seconds"),
			WriteTimeout:        cfg.GetSecond("messaging.nsq.write_timeout_seconds"),
			LookupdPollInterval: cfg.GetSecond("messaging.nsq.lookupd_poll_interval_seconds"),
			DefaultRequeueDelay: cfg.GetSecond("messaging.nsq.default_requeue_delay_seconds"),
			MaxRequeueDelay:     cfg.GetSecond("messaging.nsq.max_requeue_delay_seconds"),
			MaxAttempts:         cfg.GetUint16("messaging.nsq.max_attempts"),
		},
		NATS: messaging.NATSConfig{
			URL:                  cfg.GetString("messaging.nats.url"),
			Name:                 cfg.GetString("messaging.nats.name"),
			Timeout:              cfg.GetSecond("messaging.nats.timeout_seconds"),
			MaxReconnects:        cfg.GetInt("messaging.nats.max_reconnects"),
			ReconnectWait:        cfg.GetSecond("messaging.nats.reconnect_wait_seconds"),
			PingInterval:         cfg.GetSecond("messaging.nats.ping_interval_seconds"),
			MaxPingsOutstanding:  cfg.GetInt("messaging.nats.max_pings_outstanding"),
			RetryOnFailedConnect: cfg.GetBool("messaging.nats.retry_on_failed_connect"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:     cfg.GetArray("messaging.kafka.brokers"),
			ClientID:    cfg.GetString("messaging.kafka.client_id"),
			DialTimeout: cfg.GetSecond("messaging.kafka.dial_timeout_seconds"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: cfg.GetString("messaging.pubsub.project_id"),
			Endpoint:  strings.TrimSpace(cfg.GetString("messaging.pubsub.endpoint")),
		},
	}
}
