package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/taskbg/internal/daemon"
	"github.com/1broseidon/taskbg/internal/ipc"
)

type fakeDaemon struct {
	err      error
	reloads  int
	reapply  ipc.ReapplyData
	surfaces []daemon.SurfaceStatus
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{Active: true, SettingsVersion: 2, Surfaces: f.surfaces}, nil
}

func (f *fakeDaemon) Reload() (*ipc.ReloadData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reloads++
	return &ipc.ReloadData{SettingsVersion: uint64(2 + f.reloads)}, nil
}

func (f *fakeDaemon) Reapply() (*ipc.ReapplyData, error) {
	if f.err != nil {
		return nil, f.err
	}
	data := f.reapply
	return &data, nil
}

func newTestServer(d Daemon) *Server {
	return NewServer(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleGetStatus(t *testing.T) {
	d := &fakeDaemon{surfaces: []daemon.SurfaceStatus{{Window: "0x10", Primary: true}}}
	s := newTestServer(d)

	_, out, err := s.handleGetStatus(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.True(t, out.Status.Active)
	assert.Equal(t, uint64(2), out.Status.SettingsVersion)
	require.Len(t, out.Status.Surfaces, 1)
	assert.True(t, out.Status.Surfaces[0].Primary)
}

func TestHandleReload(t *testing.T) {
	d := &fakeDaemon{}
	s := newTestServer(d)

	_, out, err := s.handleReload(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), out.SettingsVersion)
	assert.Equal(t, 1, d.reloads)
}

func TestHandleReapply(t *testing.T) {
	d := &fakeDaemon{reapply: ipc.ReapplyData{Surfaces: 2, Error: "surface 0x20: bad window"}}
	s := newTestServer(d)

	_, out, err := s.handleReapply(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Surfaces)
	assert.Equal(t, "surface 0x20: bad window", out.Warning)
}

func TestHandlersWrapDaemonErrors(t *testing.T) {
	d := &fakeDaemon{err: errors.New("failed to connect to daemon")}
	s := newTestServer(d)
	ctx := context.Background()

	_, _, err := s.handleGetStatus(ctx, nil, EmptyInput{})
	assert.ErrorIs(t, err, d.err)
	_, _, err = s.handleReload(ctx, nil, EmptyInput{})
	assert.ErrorIs(t, err, d.err)
	_, _, err = s.handleReapply(ctx, nil, EmptyInput{})
	assert.ErrorIs(t, err, d.err)
}

func TestRegisteredTools(t *testing.T) {
	s := newTestServer(&fakeDaemon{})
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"get_status", "reapply", "reload"}, names)
}
