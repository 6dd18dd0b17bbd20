package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/voxchat/voxchat/internal/client"
	"github.com/voxchat/voxchat/internal/pubsub"
	"github.com/voxchat/voxchat/internal/transcript"
)

type fakeSession struct {
	log         *transcript.Log
	activateErr error

	mutex       sync.Mutex
	active      bool
	muted       bool
	clips       [][]byte
	deactivates int
}

func newFakeSession() *fakeSession {
	return &fakeSession{log: transcript.New()}
}

func (s *fakeSession) Activate(context.Context) error {
	if s.activateErr != nil {
		return s.activateErr
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.active = true

	return nil
}

func (s *fakeSession) Deactivate() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.active = false
	s.deactivates++

	return nil
}

func (s *fakeSession) SetMuted(muted bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.muted = muted
}

func (s *fakeSession) State() client.State {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return client.State{Active: s.active, Muted: s.muted}
}

func (s *fakeSession) Transcript() *transcript.Log { return s.log }

func (s *fakeSession) EnqueueClip(wavData []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.clips = append(s.clips, wavData)
}

func (s *fakeSession) isActive() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

func (s *fakeSession) isMuted() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.muted
}

func (s *fakeSession) enqueuedClips() [][]byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([][]byte(nil), s.clips...)
}

func (s *fakeSession) deactivateCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.deactivates
}

func newTestModel(t *testing.T, sess *fakeSession) Model {
	t.Helper()

	events := pubsub.New[client.Event]()
	t.Cleanup(events.Stop)

	m := NewModel(context.Background(), Config{
		Session:           sess,
		Events:            events,
		Logs:              make(chan string, 10),
		AssistantName:     "Vox",
		ActivationChime:   []byte("ding"),
		DeactivationChime: []byte("dong"),
	})

	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()

	updated, _ := m.Update(msg)
	require.IsType(t, Model{}, updated)

	return updated.(Model)
}

func TestModelRendersTranscript(t *testing.T) {
	sess := newFakeSession()
	sess.log.AddUserFinal("hello")
	sess.log.AppendAssistant("Hi there")

	m := newTestModel(t, sess)

	view := m.View()
	require.Contains(t, view, "you")
	require.Contains(t, view, "hello")
	require.Contains(t, view, "Vox")
	require.Contains(t, view, "Hi there")
}

func TestModelMuteKey(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	require.True(t, sess.isMuted())
	require.Contains(t, m.View(), "muted")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	require.False(t, sess.isMuted())
	require.NotContains(t, m.View(), "muted")
}

func TestModelSpaceTogglesCapture(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)
	require.NotNil(t, cmd, "space should trigger an asynchronous activation")
	require.Contains(t, m.View(), "connecting")

	msg := cmd()
	require.True(t, sess.isActive())

	m = update(t, m, msg)
	require.Contains(t, m.View(), "recording")

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	require.False(t, sess.isActive())
	require.NotContains(t, m.View(), "recording")
}

func TestModelShowsActivationError(t *testing.T) {
	sess := newFakeSession()
	sess.activateErr = errors.New("no input device")
	m := newTestModel(t, sess)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)
	m = update(t, m, cmd())

	require.Contains(t, m.View(), "no input device")
	require.NotContains(t, m.View(), "recording", "capture should stay off")
}

func TestModelPlaysChimeOnCaptureStateChange(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m = update(t, m, sessionEventMsg(client.Event{Kind: client.EventState, State: client.State{Active: true}}))
	m = update(t, m, sessionEventMsg(client.Event{Kind: client.EventState, State: client.State{Active: true}}))
	m = update(t, m, sessionEventMsg(client.Event{Kind: client.EventState, State: client.State{Active: false}}))

	require.Equal(t, [][]byte{[]byte("ding"), []byte("dong")}, sess.enqueuedClips(),
		"a chime should play per capture state flip, not per event")
}

func TestModelLogPane(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m = update(t, m, logLineMsg("WARN  something happened"))
	require.NotContains(t, m.View(), "something happened", "the log pane is hidden by default")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Contains(t, m.View(), "something happened")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.NotContains(t, m.View(), "something happened")
}

func TestModelLogPaneIsBounded(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	for i := 0; i < maxLogLines+10; i++ {
		m = update(t, m, logLineMsg("line"))
	}

	require.Len(t, m.logLines, maxLogLines)
}

func TestModelClearTranscript(t *testing.T) {
	sess := newFakeSession()
	sess.log.AddUserFinal("wipe me")
	m := newTestModel(t, sess)
	require.Contains(t, m.View(), "wipe me")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotContains(t, m.View(), "wipe me")
	require.Empty(t, sess.log.Entries())
}

func TestModelHelpOverlay(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	require.Contains(t, m.View(), "mute/unmute")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotContains(t, m.View(), "mute/unmute")
	require.Zero(t, sess.deactivateCalls(), "esc should close the help, not stop capture")
}

func TestModelQuitKey(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(Model)
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
	require.Equal(t, "bye\n", m.View())
}
