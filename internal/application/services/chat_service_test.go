package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

func TestChatService_Send(t *testing.T) {
	t.Run("starts with the greeting", func(t *testing.T) {
		svc := services.NewChatService(new(MockConversationalBackend))
		assert.Equal(t, []entities.ChatMessage{{Text: services.ChatGreeting, Sender: entities.SenderBot}}, svc.Transcript())
	})

	t.Run("appends the exchange", func(t *testing.T) {
		backend := new(MockConversationalBackend)
		backend.On("Chat", mock.Anything, "I have a headache").Return("How long has it lasted?", nil)
		svc := services.NewChatService(backend)

		added, err := svc.Send(context.Background(), "  I have a headache ")
		require.NoError(t, err)
		assert.Equal(t, []entities.ChatMessage{
			{Text: "I have a headache", Sender: entities.SenderUser},
			{Text: "How long has it lasted?", Sender: entities.SenderBot},
		}, added)
		assert.Len(t, svc.Transcript(), 3)
		assert.False(t, svc.Busy())
	})

	t.Run("blank input is ignored", func(t *testing.T) {
		backend := new(MockConversationalBackend)
		svc := services.NewChatService(backend)

		added, err := svc.Send(context.Background(), "   ")
		require.NoError(t, err)
		assert.Nil(t, added)
		assert.Len(t, svc.Transcript(), 1)
		backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	})

	t.Run("backend failure becomes the fallback reply", func(t *testing.T) {
		backend := new(MockConversationalBackend)
		backend.On("Chat", mock.Anything, "hello").Return("", errors.New("connection refused"))
		svc := services.NewChatService(backend)

		added, err := svc.Send(context.Background(), "hello")
		require.NoError(t, err)
		require.Len(t, added, 2)
		assert.Equal(t, services.ChatFallback, added[1].Text)
		assert.Equal(t, entities.SenderBot, added[1].Sender)
	})

	t.Run("second send while one is pending is refused", func(t *testing.T) {
		release := make(chan struct{})
		backend := new(MockConversationalBackend)
		backend.On("Chat", mock.Anything, "first").
			Run(func(mock.Arguments) { <-release }).
			Return("ok", nil)
		svc := services.NewChatService(backend)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = svc.Send(context.Background(), "first")
		}()
		require.Eventually(t, svc.Busy, time.Second, time.Millisecond)

		_, err := svc.Send(context.Background(), "second")
		assert.ErrorIs(t, err, services.ErrBusy)

		close(release)
		<-done
		assert.Len(t, svc.Transcript(), 3)
	})

	t.Run("request outlives the caller's context", func(t *testing.T) {
		backend := new(MockConversationalBackend)
		backend.On("Chat", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), "hi").Return("hello", nil)
		svc := services.NewChatService(backend)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		added, err := svc.Send(ctx, "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", added[1].Text)
	})
}
