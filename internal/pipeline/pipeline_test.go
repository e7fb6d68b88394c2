package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shahar-caura/deskpilot/internal/executor"
	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/provider"
	"github.com/shahar-caura/deskpilot/internal/slots"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedClassifier struct {
	category intent.Category
}

func (f fixedClassifier) Classify(text string) (*intent.Result, error) {
	return &intent.Result{Input: text, Category: f.category, Confidence: 0.9}, nil
}

type recordingExecutor struct {
	mu      sync.Mutex
	plans   []plan.Plan
	slots   []slots.Map
	fail    bool
	block   chan struct{}
	started chan struct{}
}

func (r *recordingExecutor) Execute(_ context.Context, _ intent.Category, p plan.Plan, m slots.Map, _ string, _ *intent.Result) executor.Result {
	if r.started != nil {
		close(r.started)
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, p)
	r.slots = append(r.slots, m.Clone())
	if r.fail || len(p) == 0 {
		return executor.Result{Success: false, Error: "failed"}
	}
	return executor.Result{Success: true}
}

type scriptedVoice struct {
	text  string
	err   error
	calls int
}

func (s *scriptedVoice) Listen(context.Context, time.Duration, time.Duration) (string, error) {
	s.calls++
	return s.text, s.err
}

func newPipeline(cls Classifier, exec Executor, voice provider.Voice) *Pipeline {
	return New(Components{
		Classifier: cls,
		Templates:  plan.Default(),
		Executor:   exec,
		Voice:      voice,
	}, Options{}, testLogger())
}

func TestRun_OpenApp(t *testing.T) {
	exec := &recordingExecutor{}
	p := newPipeline(fixedClassifier{intent.OpenApp}, exec, nil)

	inv, err := p.Run(context.Background(), "open chrome")
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.True(t, inv.Result.Success)
	assert.Equal(t, "chrome", inv.Slots.String(slots.AppName))
	require.Len(t, exec.plans, 1)
	assert.Len(t, exec.plans[0], 7)
	assert.Empty(t, inv.Messaging)
}

func TestRun_ClassificationFailure(t *testing.T) {
	classifier, err := intent.New(intent.DefaultExamples(), intent.Options{}, testLogger())
	require.NoError(t, err)
	exec := &recordingExecutor{}
	p := newPipeline(classifier, exec, nil)

	inv, err := p.Run(context.Background(), "   ")
	require.ErrorIs(t, err, intent.ErrClassificationFailed)
	require.NotNil(t, inv)
	assert.False(t, inv.Result.Success)
	assert.Empty(t, exec.plans, "nothing executes after a classification failure")
}

func TestRun_MessageKnownExecutesOnce(t *testing.T) {
	classifier, err := intent.New(intent.DefaultExamples(), intent.Options{}, testLogger())
	require.NoError(t, err)
	exec := &recordingExecutor{}
	voice := &scriptedVoice{text: "unused"}
	p := newPipeline(classifier, exec, voice)

	inv, err := p.Run(context.Background(), "send hello there to mom")
	require.NoError(t, err)

	assert.Equal(t, intent.SendMessage, inv.Classification.Category)
	assert.Equal(t, "hello there", inv.Slots.String(slots.MessageContent))
	assert.Equal(t, "mom", inv.Slots.String(slots.Recipient))

	require.Len(t, exec.plans, 1, "phase one and two run as a single plan")
	assert.Len(t, exec.plans[0], 17)
	assert.Equal(t, 0, voice.calls)
	assert.Equal(t, MessageSent, inv.Messaging)
	assert.Len(t, inv.Steps(), 17)
}

func TestRun_MessageCapturedByVoice(t *testing.T) {
	exec := &recordingExecutor{}
	voice := &scriptedVoice{text: "running late"}
	p := newPipeline(fixedClassifier{intent.SendMessage}, exec, voice)

	inv, err := p.Run(context.Background(), "message mom on whatsapp")
	require.NoError(t, err)

	assert.Equal(t, 1, voice.calls)
	require.Len(t, exec.plans, 2)
	assert.Len(t, exec.plans[1], 3)
	assert.False(t, exec.slots[0].Present(slots.MessageContent), "phase one runs before the message is known")
	assert.Equal(t, "running late", exec.slots[1].String(slots.MessageContent))
	assert.True(t, exec.slots[1].Flag(slots.HasMessageContent))
	assert.Equal(t, "running late", exec.plans[1][1].Params["text"])
	assert.Equal(t, MessageSent, inv.Messaging)
	assert.True(t, inv.Result.Success)
}

func TestRun_MessageVoiceFailureCancels(t *testing.T) {
	for _, voiceErr := range []error{provider.ErrNoSpeech, provider.ErrVoiceUnavailable} {
		t.Run(voiceErr.Error(), func(t *testing.T) {
			exec := &recordingExecutor{}
			p := newPipeline(fixedClassifier{intent.SendMessage}, exec, &scriptedVoice{err: voiceErr})

			inv, err := p.Run(context.Background(), "message mom on whatsapp")
			require.NoError(t, err)

			assert.Equal(t, Cancelled, inv.Messaging)
			assert.Len(t, exec.plans, 1, "no phase two")
			assert.False(t, inv.Result.Success)
			assert.Contains(t, inv.Result.Error, voiceErr.Error())
		})
	}
}

func TestRun_MessageWithoutVoiceCancels(t *testing.T) {
	exec := &recordingExecutor{}
	p := newPipeline(fixedClassifier{intent.SendMessage}, exec, nil)

	inv, err := p.Run(context.Background(), "message mom")
	require.NoError(t, err)
	assert.Equal(t, Cancelled, inv.Messaging)
	assert.Len(t, exec.plans, 1)
}

func TestRun_MessagePhaseOneFailureSkipsVoice(t *testing.T) {
	exec := &recordingExecutor{fail: true}
	voice := &scriptedVoice{text: "hi"}
	p := newPipeline(fixedClassifier{intent.SendMessage}, exec, voice)

	inv, err := p.Run(context.Background(), "message mom")
	require.NoError(t, err)
	assert.Equal(t, Cancelled, inv.Messaging)
	assert.Equal(t, 0, voice.calls)
}

func TestRun_BusyRejectsSecondInvocation(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{}), started: make(chan struct{})}
	p := newPipeline(fixedClassifier{intent.OpenApp}, exec, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), "open chrome")
		done <- err
	}()
	<-exec.started

	_, err := p.Run(context.Background(), "open notepad")
	require.ErrorIs(t, err, ErrBusy)

	close(exec.block)
	require.NoError(t, <-done)

	exec.block, exec.started = nil, nil
	_, err = p.Run(context.Background(), "open notepad")
	require.NoError(t, err, "pipeline accepts work again once idle")
}

func TestPlan_DoesNotExecute(t *testing.T) {
	exec := &recordingExecutor{}
	p := newPipeline(fixedClassifier{intent.SendMessage}, exec, nil)

	inv, err := p.Plan(context.Background(), "send hello there to mom")
	require.NoError(t, err)
	assert.Empty(t, exec.plans)
	assert.Len(t, inv.Steps(), 17)

	inv, err = p.Plan(context.Background(), "message mom")
	require.NoError(t, err)
	assert.Len(t, inv.Steps(), 14)
}

func TestListen_RunsSpokenCommand(t *testing.T) {
	exec := &recordingExecutor{}
	p := newPipeline(fixedClassifier{intent.OpenApp}, exec, &scriptedVoice{text: "open spotify"})

	inv, err := p.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "spotify", inv.Slots.String(slots.AppName))
}

func TestListen_NoSpeech(t *testing.T) {
	p := newPipeline(fixedClassifier{intent.OpenApp}, &recordingExecutor{}, &scriptedVoice{err: provider.ErrNoSpeech})
	_, err := p.Listen(context.Background())
	require.ErrorIs(t, err, provider.ErrNoSpeech)
}

func TestMessagingTransitions(t *testing.T) {
	assert.True(t, AwaitingRecipient.CanTransition(ChatOpened))
	assert.True(t, AwaitingRecipient.CanTransition(MessageSent))
	assert.True(t, ChatOpened.CanTransition(AwaitingMessage))
	assert.True(t, AwaitingMessage.CanTransition(MessageSent))
	assert.False(t, ChatOpened.CanTransition(MessageSent))
	assert.False(t, MessageSent.CanTransition(Cancelled))
	assert.True(t, MessageSent.Terminal())
	assert.True(t, Cancelled.Terminal())
	assert.False(t, AwaitingMessage.Terminal())

	_, err := ChatOpened.next(MessageSent)
	require.Error(t, err)
}
