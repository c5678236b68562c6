package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/notify/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSQSNotifier(t *testing.T) {
	queueURL := "https://sqs.example.com/notifications"

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		var sent models.Notification
		mockClient.On("SendMessage", mock.Anything, mock.AnythingOfType("*sqs.SendMessageInput")).
			Run(func(args mock.Arguments) {
				input := args.Get(1).(*sqs.SendMessageInput)
				assert.Equal(t, queueURL, *input.QueueUrl)
				assert.NoError(t, json.Unmarshal([]byte(*input.MessageBody), &sent))
			}).
			Return(&sqs.SendMessageOutput{}, nil).Once()

		notifier := NewSQSNotifier(mockClient, queueURL)
		err := notifier.Notify(context.Background(), "user1", "Order shipped", "On the way.")

		assert.NoError(t, err)
		assert.NotEmpty(t, sent.Id)
		assert.Equal(t, "user1", sent.UserId)
		assert.Equal(t, "Order shipped", sent.Title)
		assert.Equal(t, models.NotificationUnread, sent.Status)
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("queue unreachable")).Once()

		notifier := NewSQSNotifier(mockClient, queueURL)
		err := notifier.Notify(context.Background(), "user1", "Order shipped", "On the way.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send notification to SQS")
		mockClient.AssertExpectations(t)
	})
}
