package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickSoothingVoice(t *testing.T) {
	cases := []struct {
		name   string
		voices []Voice
		want   string
		ok     bool
	}{
		{"empty", nil, "", false},
		{"priority order", []Voice{{"Samantha", "en-US"}, {"Microsoft Zira", "en-US"}}, "Microsoft Zira", true},
		{"uk english female", []Voice{{"Alex", "en-US"}, {"Google UK English Female", "en-GB"}}, "Google UK English Female", true},
		{"fallback prefers british", []Voice{{"Alex", "en-US"}, {"Daniel", "en-GB"}}, "Daniel", true},
		{"fallback skips harsh names", []Voice{{"David", "en-GB"}, {"Alex", "en-US"}}, "Alex", true},
		{"any english", []Voice{{"Thomas", "fr-FR"}, {"Microsoft Mark", "en-US"}}, "Microsoft Mark", true},
		{"first voice", []Voice{{"Thomas", "fr-FR"}, {"Anna", "de-DE"}}, "Thomas", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := PickSoothingVoice(tc.voices)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, v.Name)
		})
	}
}

func TestSoothingUtterance(t *testing.T) {
	u := SoothingUtterance("hi", []Voice{{"Hazel", "en-GB"}})
	assert.Equal(t, "en-GB", u.Lang)
	assert.Equal(t, 0.82, u.Rate)
	assert.Equal(t, 0.88, u.Pitch)
	assert.Equal(t, 0.88, u.Volume)

	u = SoothingUtterance("hi", nil)
	assert.Equal(t, "en-US", u.Lang)
	assert.Empty(t, u.Voice.Name)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello! 👋\n\nI am your AI helper.", StripHTML("Hello! 👋<br><br>I am your AI helper."))
	assert.Equal(t, "Hi there", StripHTML("<p>Hi <strong>there</strong></p>"))
	assert.Equal(t, "", StripHTML("<p>  </p>"))
	assert.Equal(t, "a < b", StripHTML("a &lt; b"))
}

func TestToMarkdown(t *testing.T) {
	md := ToMarkdown(`<p>Hi <strong>Sam</strong>.</p><ul><li>One</li><li>Two</li></ul><p>See <a href="https://x.test">https://x.test</a></p>`)
	assert.Contains(t, md, "Hi **Sam**.")
	assert.Contains(t, md, "- One\n- Two")
	assert.Contains(t, md, "[https://x.test](https://x.test)")

	assert.Contains(t, ToMarkdown("<ol><li>a</li><li>b</li></ol>"), "1. a\n2. b")
}

type fakeSynth struct {
	mu     sync.Mutex
	spoken []Utterance
	active int
	block  bool
	err    error
}

func (f *fakeSynth) Voices(context.Context) ([]Voice, error) {
	return []Voice{{"Karen", "en-AU"}}, nil
}

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	f.active++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeSynth) inFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSynth) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

func TestPlayerUnsupported(t *testing.T) {
	p := NewPlayer(nil, nil)
	assert.False(t, p.Supported())
	assert.ErrorIs(t, p.Speak("<p>hi</p>"), ErrPlatformCapabilityUnavailable)
}

func TestPlayerSpeaksPlainText(t *testing.T) {
	synth := &fakeSynth{}
	p := NewPlayer(synth, nil)

	require.NoError(t, p.Speak("<p>Hello <em>you</em></p>"))
	p.Wait()

	got := synth.utterances()
	require.Len(t, got, 1)
	assert.Equal(t, "Hello you", got[0].Text)
	assert.Equal(t, "Karen", got[0].Voice.Name)
	assert.Equal(t, "en-US", got[0].Lang)
	assert.False(t, p.Speaking())
}

func TestPlayerSkipsBlankText(t *testing.T) {
	synth := &fakeSynth{}
	p := NewPlayer(synth, nil)

	require.NoError(t, p.Speak("<p> </p>"))
	assert.False(t, p.Speaking())
	assert.Empty(t, synth.utterances())
}

func TestPlayerCancelsInFlight(t *testing.T) {
	synth := &fakeSynth{block: true}
	p := NewPlayer(synth, nil)

	require.NoError(t, p.Speak("first"))
	assert.True(t, p.Speaking())

	require.NoError(t, p.Speak("second"))
	assert.True(t, p.Speaking())
	assert.Eventually(t, func() bool { return len(synth.utterances()) == 2 }, time.Second, 10*time.Millisecond)

	p.Stop()
	assert.False(t, p.Speaking())
}

func TestPlayerConcurrentSpeakLeavesOneUtterance(t *testing.T) {
	synth := &fakeSynth{block: true}
	p := NewPlayer(synth, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Speak("hello"))
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return synth.inFlight() == 1 }, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return synth.inFlight() > 1 }, 50*time.Millisecond, 10*time.Millisecond)

	p.Stop()
	assert.Eventually(t, func() bool { return synth.inFlight() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, p.Speaking())
}

func TestPlayerClearsHandleOnError(t *testing.T) {
	synth := &fakeSynth{err: errors.New("audio device busy")}
	p := NewPlayer(synth, nil)

	require.NoError(t, p.Speak("hello"))
	p.Wait()
	assert.False(t, p.Speaking())
}

type fakeRecognizer struct {
	text string
	err  error
	wait bool
}

func (f *fakeRecognizer) Listen(ctx context.Context) (string, error) {
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func TestRecorderUnsupported(t *testing.T) {
	r := NewRecorder(nil, nil, nil)
	assert.False(t, r.Supported())
	assert.ErrorIs(t, r.Toggle(), ErrPlatformCapabilityUnavailable)
	assert.Equal(t, RecorderIdle, r.State())
}

func TestRecorderResult(t *testing.T) {
	results := make(chan string, 1)
	r := NewRecorder(&fakeRecognizer{text: "what is rain"}, func(s string) { results <- s }, nil)

	require.NoError(t, r.Toggle())
	select {
	case got := <-results:
		assert.Equal(t, "what is rain", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript delivered")
	}
	assert.Eventually(t, func() bool { return r.State() == RecorderIdle }, time.Second, 10*time.Millisecond)
}

func TestRecorderError(t *testing.T) {
	errs := make(chan error, 1)
	r := NewRecorder(&fakeRecognizer{err: errors.New("no-speech")}, nil, func(err error) { errs <- err })

	require.NoError(t, r.Toggle())
	select {
	case err := <-errs:
		assert.EqualError(t, err, "no-speech")
	case <-time.After(2 * time.Second):
		t.Fatal("no error delivered")
	}
	assert.Eventually(t, func() bool { return r.State() == RecorderIdle }, time.Second, 10*time.Millisecond)
}

func TestRecorderToggleStops(t *testing.T) {
	errs := make(chan error, 1)
	r := NewRecorder(&fakeRecognizer{wait: true}, nil, func(err error) { errs <- err })

	require.NoError(t, r.Toggle())
	assert.Equal(t, RecorderRecording, r.State())

	require.NoError(t, r.Toggle())
	assert.Equal(t, RecorderIdle, r.State())

	select {
	case err := <-errs:
		t.Fatalf("stop reported as error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
