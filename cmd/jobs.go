package cmd

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ragcompare/src/core/evaluation"
	"ragcompare/src/infrastructure/job"
	"ragcompare/src/log"
)

// jobRuntime is the evaluation job service with whatever it needs to close on shutdown.
// subscriber is nil when this process only publishes.
type jobRuntime struct {
	service    *job.JobService
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	closers    []func() error
}

func (j *jobRuntime) Close() {
	for i := len(j.closers) - 1; i >= 0; i-- {
		if err := j.closers[i](); err != nil {
			log.Error(err, "failed to close job runtime")
		}
	}
}

// router returns the message router consuming the jobs topic.
func (j *jobRuntime) router() (*message.Router, error) {
	if j.subscriber == nil {
		return nil, fmt.Errorf("job runtime has no subscriber")
	}
	return job.NewRouter(j.subscriber, j.service, j.logger)
}

// newJobRuntime wires the job repository and transport. With the gochannel transport the
// process always consumes its own jobs. With AMQP it consumes only when consume is set.
func newJobRuntime(answerer evaluation.Answerer, consume bool) (*jobRuntime, error) {
	transport := viper.GetString("jobs.transport")
	store := viper.GetString("jobs.store")
	if transport == "amqp" && store != "postgres" {
		return nil, configError("jobs.transport amqp needs jobs.store postgres so workers see the same jobs")
	}

	rt := &jobRuntime{logger: log.NewWatermillAdapter()}

	repo, err := newJobRepository(rt, store)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var publisher message.Publisher
	switch transport {
	case "gochannel":
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, rt.logger)
		rt.closers = append(rt.closers, pubSub.Close)
		publisher = pubSub
		rt.subscriber = pubSub
	case "amqp":
		amqpPublisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(viper.GetString("amqp.url")), rt.logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create amqp publisher: %w", err)
		}
		rt.closers = append(rt.closers, amqpPublisher.Close)
		publisher = amqpPublisher

		if consume {
			subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
			subscriberConfig.Consume.NoRequeueOnNack = true
			amqpSubscriber, err := amqp.NewSubscriber(subscriberConfig, rt.logger)
			if err != nil {
				rt.Close()
				return nil, fmt.Errorf("failed to create amqp subscriber: %w", err)
			}
			rt.closers = append(rt.closers, amqpSubscriber.Close)
			rt.subscriber = amqpSubscriber
		}
	default:
		rt.Close()
		return nil, configError("unknown jobs.transport %q", transport)
	}

	rt.service = job.NewJobService(publisher, repo, rt.logger)
	rt.service.RegisterTask(job.TaskTypeEvaluation, job.NewEvaluationTask(answerer))
	return rt, nil
}

func newJobRepository(rt *jobRuntime, store string) (job.JobRepository, error) {
	switch store {
	case "memory":
		return job.NewMemoryJobRepository()
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			viper.GetString("postgres.host"),
			viper.GetString("postgres.user"),
			viper.GetString("postgres.password"),
			viper.GetString("postgres.db"),
			viper.GetString("postgres.port"))
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
		}
		rt.closers = append(rt.closers, sqlDB.Close)
		return job.NewPostgresJobRepository(db)
	default:
		return nil, configError("unknown jobs.store %q", store)
	}
}
