package dispatch_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-toolchat/internal/dispatch"
)

// gatedTurner blocks every turn until release is closed.
type gatedTurner struct {
	started chan string
	release chan struct{}
}

func newGatedTurner() *gatedTurner {
	return &gatedTurner{started: make(chan string, 4), release: make(chan struct{})}
}

func (g *gatedTurner) Send(_ context.Context, text string) string {
	g.started <- text
	<-g.release
	return "echo: " + text
}

type panicTurner struct{}

func (panicTurner) Send(context.Context, string) string { panic("boom") }

func waitResult(t *testing.T, d *dispatch.Dispatcher) dispatch.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := d.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestSubmit_RejectsEmptyInput(t *testing.T) {
	d := dispatch.New(newGatedTurner())
	assert.ErrorIs(t, d.Submit(""), dispatch.ErrEmptyInput)
	assert.ErrorIs(t, d.Submit("  \t"), dispatch.ErrEmptyInput)
	assert.False(t, d.InFlight())
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	turner := newGatedTurner()
	d := dispatch.New(turner)

	require.NoError(t, d.Submit("first"))
	assert.Equal(t, "first", <-turner.started)
	assert.True(t, d.InFlight())

	assert.ErrorIs(t, d.Submit("second"), dispatch.ErrTurnInFlight)

	close(turner.release)
	res := waitResult(t, d)
	assert.Equal(t, "first", res.Prompt)
	assert.Equal(t, "echo: first", res.Reply)
	assert.False(t, d.InFlight())

	require.NoError(t, d.Submit("third"))
	assert.Equal(t, "echo: third", waitResult(t, d).Reply)
}

func TestResults_StayInFlightUntilSettled(t *testing.T) {
	turner := newGatedTurner()
	close(turner.release)
	d := dispatch.New(turner)

	require.NoError(t, d.Submit("hello"))
	select {
	case res := <-d.Results():
		assert.Equal(t, "echo: hello", res.Reply)
		assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}

	assert.True(t, d.InFlight())
	assert.ErrorIs(t, d.Submit("again"), dispatch.ErrTurnInFlight)
	d.Settle()
	assert.False(t, d.InFlight())
}

func TestSubmit_PassesInputUntrimmed(t *testing.T) {
	turner := newGatedTurner()
	close(turner.release)
	d := dispatch.New(turner)

	require.NoError(t, d.Submit("  hi \n"))
	assert.Equal(t, "  hi \n", <-turner.started)
	res := waitResult(t, d)
	assert.Equal(t, "  hi \n", res.Prompt)
	assert.Equal(t, "echo:   hi \n", res.Reply)
}

func TestRun_RecoversPanic(t *testing.T) {
	d := dispatch.New(panicTurner{})

	require.NoError(t, d.Submit("x"))
	res := waitResult(t, d)
	assert.True(t, strings.HasPrefix(res.Reply, "An error occurred: "))
	assert.Contains(t, res.Reply, "boom")
	assert.False(t, d.InFlight())
}

func TestWait_ContextCancelled(t *testing.T) {
	d := dispatch.New(newGatedTurner())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
