package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/protocol"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/models"
)

type fakeViewer struct {
	view session.View
	err  error
}

func (f fakeViewer) View(context.Context) (session.View, error) {
	return f.view, f.err
}

func newView(t *testing.T) (session.View, models.Team) {
	t.Helper()
	settings := models.AuctionSetting{MaxPlayersPerTeam: 5, ReservePlayersPerTeam: 0, StartBid: 2, BidIncrement: 1, TotalPurse: 50}
	team := models.Team{ID: uuid.New(), Name: "Strikers"}
	sold := models.Player{ID: uuid.New(), Number: 1, Type: models.PlayerTypePlayer}.SellTo(team.ID, 10)
	players := []models.Player{sold, {ID: uuid.New(), Number: 2, Type: models.PlayerTypePlayer}}

	state := auction.NewState(players, []models.Team{team}, settings, nil)
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	return session.View{Version: 7, State: state, Snapshot: protocol.NewSnapshot(state, 7, now)}, team
}

func newTestServer(t *testing.T, v Viewer) *httptest.Server {
	t.Helper()
	path, handler := NewHandler(NewService(v))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSnapshot(t *testing.T) {
	view, _ := newView(t)
	srv := newTestServer(t, fakeViewer{view: view})

	client := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+GetSnapshotProcedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)

	fields := resp.Msg.GetFields()
	assert.Equal(t, float64(7), fields["version"].GetNumberValue())
	assert.Equal(t, float64(1), fields["remaining"].GetNumberValue())
	assert.Len(t, fields["players"].GetListValue().GetValues(), 2)
}

func TestGetTeamPurse(t *testing.T) {
	view, team := newView(t)
	srv := newTestServer(t, fakeViewer{view: view})
	client := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+GetTeamPurseProcedure)

	req, err := structpb.NewStruct(map[string]any{"teamId": team.ID.String()})
	require.NoError(t, err)

	resp, err := client.CallUnary(context.Background(), connect.NewRequest(req))
	require.NoError(t, err)

	fields := resp.Msg.GetFields()
	assert.Equal(t, "Strikers", fields["name"].GetStringValue())
	purse := fields["purse"].GetStructValue().GetFields()
	assert.Equal(t, float64(10), purse["totalSpend"].GetNumberValue())
	// 5 max, 1 bought: 4 still needed at 2 each
	assert.Equal(t, float64(8), purse["reserveBalance"].GetNumberValue())
	assert.Equal(t, float64(32), purse["availableBalance"].GetNumberValue())
}

func TestGetTeamPurse_Errors(t *testing.T) {
	view, _ := newView(t)

	tests := []struct {
		name   string
		viewer Viewer
		fields map[string]any
		code   connect.Code
	}{
		{"missing team", fakeViewer{view: view}, map[string]any{}, connect.CodeInvalidArgument},
		{"malformed team", fakeViewer{view: view}, map[string]any{"teamId": "abc"}, connect.CodeInvalidArgument},
		{"unknown team", fakeViewer{view: view}, map[string]any{"teamId": uuid.NewString()}, connect.CodeNotFound},
		{"session stopped", fakeViewer{err: session.ErrClosed}, map[string]any{"teamId": uuid.NewString()}, connect.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.viewer)
			client := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+GetTeamPurseProcedure)

			req, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			_, err = client.CallUnary(context.Background(), connect.NewRequest(req))
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}
