package subscribe

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ai-stock-advisor/internal/infra/memory"
)

type recordingMailer struct {
	sent []string
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("relay down")
	}
	m.sent = append(m.sent, to+" "+subject)
	return nil
}

func TestSubscribe_Success(t *testing.T) {
	store := memory.NewStore()
	mailer := &recordingMailer{}
	uc := NewUseCase(store, mailer, "05:00", zerolog.Nop())

	res := uc.Subscribe(context.Background(), Input{
		Email:           "User@Example.com",
		Ticker:          "aapl",
		TradingStrategy: "long-term",
	})

	require.True(t, res.Success)
	require.Contains(t, res.Message, "AAPL")
	require.Contains(t, res.Message, "05:00")
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0], "user@example.com")

	subs, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "long-term", subs[0].TradingStrategy)
}

func TestSubscribe_ValidationFailureDoesNotTouchStore(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, &recordingMailer{}, "05:00", zerolog.Nop())

	res := uc.Subscribe(context.Background(), Input{Email: "not-an-email", Ticker: "AAPL"})
	require.False(t, res.Success)
	require.Contains(t, res.Message, "email")

	subs, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Empty(t, subs, "validation failure must not mutate the store")
}

func TestSubscribe_ResubscribeUpdatesStrategy(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, nil, "05:00", zerolog.Nop())

	first := uc.Subscribe(context.Background(), Input{Email: "a@example.com", Ticker: "AAPL", TradingStrategy: "long-term"})
	require.True(t, first.Success)
	require.Contains(t, first.Message, "Subscribed")

	second := uc.Subscribe(context.Background(), Input{Email: "a@example.com", Ticker: "AAPL", TradingStrategy: "swing"})
	require.True(t, second.Success)
	require.Contains(t, second.Message, "updated")

	subs, _ := store.ListActive(context.Background())
	require.Len(t, subs, 1)
	require.Equal(t, "swing", subs[0].TradingStrategy)
}

func TestSubscribe_WelcomeMailFailureIsNonFatal(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, &recordingMailer{fail: true}, "05:00", zerolog.Nop())

	res := uc.Subscribe(context.Background(), Input{Email: "a@example.com", Ticker: "AAPL"})
	require.True(t, res.Success, "a lost welcome mail must not roll back the subscription")

	subs, _ := store.ListActive(context.Background())
	require.Len(t, subs, 1)
}

func TestUnsubscribe(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, nil, "05:00", zerolog.Nop())

	uc.Subscribe(context.Background(), Input{Email: "a@example.com", Ticker: "AAPL"})

	res := uc.Unsubscribe(context.Background(), "A@example.com", "aapl")
	require.True(t, res.Success)

	subs, _ := store.ListActive(context.Background())
	require.Empty(t, subs)

	// unknown key still succeeds
	res = uc.Unsubscribe(context.Background(), "ghost@example.com", "NVDA")
	require.True(t, res.Success)
}

func TestUnsubscribe_InvalidInput(t *testing.T) {
	uc := NewUseCase(memory.NewStore(), nil, "05:00", zerolog.Nop())
	res := uc.Unsubscribe(context.Background(), "bad", "AAPL")
	require.False(t, res.Success)
}
