package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/inkfinity/backend/common/logger"
	"github.com/inkfinity/backend/config"
	"github.com/inkfinity/backend/consumer"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/sender"
	"go.uber.org/zap"
)

const serviceName = "inkfinity-notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWSOptions())
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}
	metrics := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatch.Namespace, cfg.CloudWatch.Enabled)

	email, err := sender.NewSMTPSender(cfg.Notify)
	if err != nil {
		log.Fatal("Failed to initialize e-mail sender", zap.Error(err))
	}

	var sms sender.SMSSender
	if cfg.Notify.TwilioSID != "" {
		t, err := sender.NewTwilioSender(cfg.Notify)
		if err != nil {
			log.Fatal("Failed to initialize SMS sender", zap.Error(err))
		}
		sms = t
	} else {
		log.Info("Twilio not configured, SMS notifications disabled")
	}

	dispatcher, err := consumer.NewDispatcher(consumer.DispatcherConfig{
		Email:   email,
		SMS:     sms,
		EmailTo: cfg.Notify.EmailTo,
		SMSTo:   cfg.Notify.SMSTo,
		Metrics: metrics,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("Failed to initialize dispatcher", zap.Error(err))
	}

	switch {
	case cfg.Events.SQSQueueURL != "":
		err = awspkg.NewSQSConsumer(awsCfg, cfg.Events.SQSQueueURL, log).
			StartPolling(ctx, consumer.SQSHandler(dispatcher))
	case cfg.Events.Backend == config.EventsKafka:
		err = consumer.NewKafkaSource(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, serviceName, log).
			Run(ctx, dispatcher)
	default:
		log.Fatal("No event source configured; set SQS_QUEUE_URL or EVENTS_BACKEND=kafka")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Event consumer stopped", zap.Error(err))
	}
	log.Info(serviceName + " stopped gracefully")
}
