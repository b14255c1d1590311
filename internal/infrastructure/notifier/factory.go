package notifier

import (
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/email"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/pubsub"
	"github.com/mateatletas/tutorbilling/internal/shared/config"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// Build creates a dispatcher for the sinks named in cfg. The returned closers release
// broker connections and must be closed after the dispatcher is drained.
func Build(cfg config.NotifierConfig, redisClient *redis.Client, log logger.Interface) (*Dispatcher, []io.Closer, error) {
	var (
		sinks   []Sink
		closers []io.Closer
	)

	for _, name := range cfg.Sinks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "log":
			sinks = append(sinks, NewLogSink(log.Named("notifier.log")))
		case "redis":
			if redisClient == nil {
				return nil, closers, fmt.Errorf("redis sink requires a redis client")
			}
			bus := pubsub.NewRedisTransitionEventBus(redisClient, cfg.RedisChannel, log.Named("pubsub"))
			sinks = append(sinks, NewRedisSink(bus))
		case "rabbitmq":
			sink, err := NewRabbitMQSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log.Named("notifier.rabbitmq"))
			if err != nil {
				return nil, closers, err
			}
			sinks = append(sinks, sink)
			closers = append(closers, sink)
		case "email":
			if len(cfg.Email.Recipients) == 0 {
				return nil, closers, fmt.Errorf("email sink requires at least one recipient")
			}
			mailer := email.NewSMTPEmailService(email.SMTPConfig{
				Host:        cfg.Email.SMTPHost,
				Port:        cfg.Email.SMTPPort,
				Username:    cfg.Email.SMTPUser,
				Password:    cfg.Email.SMTPPassword,
				FromAddress: cfg.Email.FromAddress,
				FromName:    cfg.Email.FromName,
			})
			sinks = append(sinks, NewEmailSink(mailer, cfg.Email.Recipients))
		case "":
		default:
			return nil, closers, fmt.Errorf("unknown notification sink %q", name)
		}
	}

	dispatcher := NewDispatcher(sinks, cfg.Timeout, BreakerSettings{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, log.Named("notifier"))
	return dispatcher, closers, nil
}
