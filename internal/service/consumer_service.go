package service

import (
	"context"
	"encoding/json"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// consumerService persists completed research reports off the request path.
// The HTTP response already carries the full result; this consumer only
// writes history.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishResearchReportMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal report message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	if payload.Report == nil {
		cs.logger.Error("ConsumerService", "Report message carried no report", nil)
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("ConsumerService", "Failed to begin transaction", map[string]interface{}{
			"report_id": payload.Report.Id,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ResearchReportRepository().Create(ctx, payload.Report); err != nil {
		cs.logger.Error("ConsumerService", "Failed to persist research report", map[string]interface{}{
			"report_id": payload.Report.Id,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("ConsumerService", "Failed to commit report transaction", map[string]interface{}{
			"report_id": payload.Report.Id,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", "Research report persisted", map[string]interface{}{
		"report_id":   payload.Report.Id,
		"total_nodes": payload.Report.TotalNodes,
	})
	msg.Ack()
}
