package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAddRejectsInvalidExpression(t *testing.T) {
	s := New(time.UTC, discard)

	err := s.Add("daily_summary", "not a schedule", func(context.Context) {})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestAddRejectsSecondsField(t *testing.T) {
	s := New(time.UTC, discard)

	err := s.Add("daily_summary", "0 5 0 * * *", func(context.Context) {})
	assert.Error(t, err)
}

func TestAddAndNext(t *testing.T) {
	loc := time.FixedZone("UTC+07:00", 7*60*60)
	s := New(loc, discard)

	require.NoError(t, s.Add("daily_summary", "5 0 * * *", func(context.Context) {}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	local := next.In(loc)
	assert.Equal(t, 0, local.Hour())
	assert.Equal(t, 5, local.Minute())
}

func TestJobRuns(t *testing.T) {
	s := New(time.UTC, discard)
	ran := make(chan struct{}, 1)

	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(time.UTC, discard)
	s.Start()
	s.Stop()

	assert.Error(t, s.ctx.Err())
}
