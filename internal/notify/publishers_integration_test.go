//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"deck-server/internal/notify"
	"deck-server/internal/store"
)

// PublishersTestSuite поднимает Redis и RabbitMQ в контейнерах.
type PublishersTestSuite struct {
	suite.Suite
	ctx    context.Context
	logger *zap.Logger

	redisContainer  *tcredis.RedisContainer
	rabbitContainer *tcrabbit.RabbitMQContainer
	redisURL        string
	amqpURL         string
}

func (s *PublishersTestSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.redisContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	s.redisURL, err = s.redisContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.rabbitContainer, err = tcrabbit.Run(s.ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(s.T(), err, "Failed to start rabbitmq container")
	s.amqpURL, err = s.rabbitContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
}

func (s *PublishersTestSuite) TearDownSuite() {
	if s.redisContainer != nil {
		_ = s.redisContainer.Terminate(s.ctx)
	}
	if s.rabbitContainer != nil {
		_ = s.rabbitContainer.Terminate(s.ctx)
	}
}

func (s *PublishersTestSuite) TestRedisPublisher() {
	pub, err := notify.NewRedisPublisher(s.ctx, s.redisURL, "deck:status", s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	opts, err := redis.ParseURL(s.redisURL)
	s.Require().NoError(err)
	sub := redis.NewClient(opts).Subscribe(s.ctx, "deck:status")
	defer sub.Close()
	_, err = sub.Receive(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(pub.Publish(s.ctx, deckEvent()))

	msg, err := sub.ReceiveMessage(s.ctx)
	s.Require().NoError(err)
	var env notify.Envelope
	s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &env))
	s.Equal(store.EventPresentation, env.Kind)
	s.Require().NotNil(env.Summary)
	s.Equal(3, env.Summary.Slides)
	s.Nil(env.Presentation)
}

func (s *PublishersTestSuite) TestRabbitPublisher() {
	pub, err := notify.NewRabbitPublisher(s.amqpURL, "deck_events_test", s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	conn, err := amqp091.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()
	ch, err := conn.Channel()
	s.Require().NoError(err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	s.Require().NoError(err)
	s.Require().NoError(ch.QueueBind(q.Name, "", "deck_events_test", false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	s.Require().NoError(err)

	s.Require().NoError(pub.Publish(s.ctx, deckEvent()))

	select {
	case d := <-deliveries:
		s.Equal("application/json", d.ContentType)
		s.Equal(string(store.EventPresentation), d.Type)
		var env notify.Envelope
		s.Require().NoError(json.Unmarshal(d.Body, &env))
		s.Equal(uint64(3), env.Version)
	case <-time.After(10 * time.Second):
		s.Fail("no message delivered")
	}
}

func TestPublishersSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	suite.Run(t, new(PublishersTestSuite))
}
