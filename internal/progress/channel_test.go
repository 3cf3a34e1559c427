package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/podcast"
	"episodic/internal/progress"
)

func TestChannelDeliversInOrder(t *testing.T) {
	ch := progress.New(nil)
	var first, second []podcast.Stage
	ch.Subscribe(progress.ListenerFunc(func(p podcast.Progress) { first = append(first, p.Stage) }))
	ch.Subscribe(progress.ListenerFunc(func(p podcast.Progress) { second = append(second, p.Stage) }))

	ch.Emit(podcast.Progress{Stage: podcast.StageSearching, Fraction: 0.1})
	ch.Emit(podcast.Progress{Stage: podcast.StageGenerating, Fraction: 0.45})
	ch.Emit(podcast.Progress{Stage: podcast.StageDone})

	want := []podcast.Stage{podcast.StageSearching, podcast.StageGenerating, podcast.StageDone}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestChannelClampsFractions(t *testing.T) {
	ch := progress.New(nil)
	rec := &progress.Recorder{}
	ch.Subscribe(rec)

	ch.Emit(podcast.Progress{Stage: podcast.StageGenerating, Fraction: 0.5})
	ch.Emit(podcast.Progress{Stage: podcast.StageSearching, Fraction: 0.2})
	ch.Emit(podcast.Progress{Stage: podcast.StageCreatingAudio, Fraction: 1.0})
	ch.Emit(podcast.Progress{Stage: podcast.StageDone, Fraction: 0.3})

	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, 0.5, events[1].Fraction, "backwards fraction is raised to the previous value")
	assert.Less(t, events[2].Fraction, 1.0, "interim events never reach 1.0")
	assert.Equal(t, 1.0, events[3].Fraction)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Fraction, events[i-1].Fraction)
	}
}

func TestChannelSingleTerminalEvent(t *testing.T) {
	ch := progress.New(nil)
	rec := &progress.Recorder{}
	ch.Subscribe(rec)

	assert.True(t, ch.Emit(podcast.Progress{Stage: podcast.StageSearching, Fraction: 0.1}))
	assert.True(t, ch.Emit(podcast.Progress{Stage: podcast.StageCancelled, Message: "Generation cancelled"}))
	assert.False(t, ch.Emit(podcast.Progress{Stage: podcast.StageDone}))
	assert.False(t, ch.Emit(podcast.Progress{Stage: podcast.StageGenerating, Fraction: 0.5}))

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, podcast.StageCancelled, events[1].Stage)
	assert.Equal(t, 0.1, events[1].Fraction)
	assert.True(t, ch.Finished())
}

func TestChannelUnsubscribe(t *testing.T) {
	ch := progress.New(nil)
	var count int
	var unsubscribe func()
	unsubscribe = ch.Subscribe(progress.ListenerFunc(func(podcast.Progress) {
		count++
		unsubscribe()
	}))

	ch.Emit(podcast.Progress{Stage: podcast.StageSearching, Fraction: 0.1})
	ch.Emit(podcast.Progress{Stage: podcast.StageAnalyzing, Fraction: 0.3})
	unsubscribe()

	assert.Equal(t, 1, count, "listener removed itself after the first event")
}

func TestChannelNilListener(t *testing.T) {
	ch := progress.New(nil)
	unsubscribe := ch.Subscribe(nil)
	unsubscribe()
	assert.True(t, ch.Emit(podcast.Progress{Stage: podcast.StageDone}))
}
