package ioruntime

import (
	"testing"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/config"
	"github.com/carun/eipsession/internal/plcclient"
	"github.com/carun/eipsession/internal/session"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errShutdown = errors.New("session closed")

func intp(n int) *int { return &n }

func testConfig() config.DeviceConfiguration {
	return config.DeviceConfiguration{
		Assemblies: []config.AssemblyDefinition{
			{
				Alias: "Input1", ClassID: 0x64, InstanceID: 100,
				Direction: config.DirectionInput, Size: intp(4),
			},
			{
				Alias: "Output1", ClassID: 0x64, InstanceID: 150,
				Direction: config.DirectionOutput, Size: intp(2),
				Members: []config.AssemblyMember{
					{Name: "speed", Offset: intp(0), Size: intp(2)},
				},
			},
		},
	}
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	client, err := plcclient.NewClient("", 0, plcclient.WithOffline())
	require.NoError(t, err)
	sess, err := session.New(client)
	require.NoError(t, err)
	return sess
}

func TestLoadRegistersAssembliesByNormalisedAlias(t *testing.T) {
	rt := New()
	require.False(t, rt.Configured())
	rt.Load(testConfig())
	require.True(t, rt.Configured())

	view, err := rt.GetView("input1")
	require.NoError(t, err)
	require.Equal(t, "Input1", view.Alias)
}

func TestGetViewUnregisteredAliasErrors(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	_, err := rt.GetView("missing")
	require.Error(t, err)
}

func TestQueueOutputOnInputAssemblyIsDirectionError(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	_, err := rt.QueueOutput("Input1", []byte{1, 2})
	require.Error(t, err)
}

func TestQueueOutputRejectsWrongSize(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	_, err := rt.QueueOutput("Output1", []byte{1, 2, 3})
	require.Error(t, err)
}

func TestQueueAndSendOutputCompletesRequest(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	sess := newTestSession(t)

	queued, err := rt.QueueOutput("Output1", []byte{0x34, 0x12})
	require.NoError(t, err)
	require.False(t, queued.Done())

	dequeued, err := rt.AwaitOutput("Output1", time.Second)
	require.NoError(t, err)
	require.Same(t, queued, dequeued)

	status, err := rt.SendOutput(sess, "Output1", dequeued)
	require.NoError(t, err)
	require.True(t, status.OK())

	gotStatus, gotErr, completed := queued.Wait(time.Second)
	require.True(t, completed)
	require.NoError(t, gotErr)
	require.True(t, gotStatus.OK())

	view, err := rt.GetView("Output1")
	require.NoError(t, err)
	require.True(t, view.Status.OK())
}

func TestAwaitOutputTimesOutWithNoQueuedWrite(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	req, err := rt.AwaitOutput("Output1", 10*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, req)
}

func TestAwaitOutputUnregisteredAliasErrors(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	_, err := rt.AwaitOutput("never-queued", 10*time.Millisecond)
	require.Error(t, err)
}

func TestFailPendingCompletesQueuedRequestsWithError(t *testing.T) {
	rt := New()
	rt.Load(testConfig())

	queued, err := rt.QueueOutput("Output1", []byte{0x01, 0x02})
	require.NoError(t, err)

	rt.FailPending(errShutdown)

	status, gotErr, completed := queued.Wait(time.Second)
	require.True(t, completed)
	require.Equal(t, errShutdown, gotErr)
	require.Equal(t, cip.Status{}, status)
}

func TestFetchWithoutSizeIsRuntimeError(t *testing.T) {
	rt := New()
	rt.Load(config.DeviceConfiguration{
		Assemblies: []config.AssemblyDefinition{
			{Alias: "Sizeless", ClassID: 0x64, InstanceID: 101, Direction: config.DirectionInput},
		},
	})
	sess := newTestSession(t)
	_, err := rt.Fetch(sess, "Sizeless")
	require.Error(t, err)
}

func TestFetchOnOutputAssemblyIsDirectionError(t *testing.T) {
	rt := New()
	rt.Load(testConfig())
	sess := newTestSession(t)
	_, err := rt.Fetch(sess, "Output1")
	require.Error(t, err)
}

func TestDecodeWordsAndMembers(t *testing.T) {
	payload := []byte{0x34, 0x12, 0xFF}
	words := decodeWords(payload)
	require.Equal(t, []uint16{0x1234}, words)

	def := config.AssemblyDefinition{
		Members: []config.AssemblyMember{
			{Name: "speed", Offset: intp(0), Size: intp(2)},
			{Name: "out-of-range", Offset: intp(5), Size: intp(2)},
			{Name: "odd-sized", Offset: intp(0), Size: intp(3)},
		},
	}
	members := decodeMembers(def, payload)
	require.Len(t, members, 2)
	require.Equal(t, "speed", members[0].Name)
	require.Equal(t, []byte{0x34, 0x12}, members[0].Value)
	require.Equal(t, "3412", members[0].RawHex)
	require.NotNil(t, members[0].IntValue)
	require.Equal(t, uint32(0x1234), *members[0].IntValue)

	require.Equal(t, "odd-sized", members[1].Name)
	require.Nil(t, members[1].IntValue)
}
