// Package rpc exposes read-only auction queries over Connect. Messages are
// the protobuf well-known Struct and Empty types, so any Connect, gRPC or
// gRPC-Web client can call it without generated stubs.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/playerauction/go/internal/auction"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
)

const ServiceName = "playerauction.v1.AuctionQueryService"

const (
	GetSnapshotProcedure  = "/" + ServiceName + "/GetSnapshot"
	GetTeamPurseProcedure = "/" + ServiceName + "/GetTeamPurse"
)

// Viewer reads a consistent view of the auction
type Viewer interface {
	View(ctx context.Context) (session.View, error)
}

// Service implements AuctionQueryService
type Service struct {
	viewer Viewer
}

func NewService(viewer Viewer) *Service {
	return &Service{viewer: viewer}
}

// GetSnapshot returns the same snapshot websocket clients receive
func (s *Service) GetSnapshot(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	v, err := s.viewer.View(ctx)
	if err != nil {
		return nil, viewError(err)
	}

	msg, err := toStruct(v.Snapshot)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// GetTeamPurse returns one team's purse and eligibility. The request is
// {"teamId": "<uuid>"}.
func (s *Service) GetTeamPurse(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	raw, ok := req.Msg.GetFields()["teamId"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("teamId is required"))
	}
	teamID, err := uuid.Parse(raw.GetStringValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid teamId: %w", err))
	}

	v, err := s.viewer.View(ctx)
	if err != nil {
		return nil, viewError(err)
	}

	for _, tv := range v.State.TeamViews() {
		if tv.ID != teamID {
			continue
		}
		msg, err := toStruct(teamPurseResponse{TeamView: tv, Version: v.Version})
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return connect.NewResponse(msg), nil
	}
	return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("team %s not found", teamID))
}

type teamPurseResponse struct {
	auction.TeamView
	Version int64 `json:"version"`
}

// NewHandler builds the HTTP handler for the service and returns the path
// prefix to mount it on.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetSnapshotProcedure, connect.NewUnaryHandler(GetSnapshotProcedure, svc.GetSnapshot, opts...))
	mux.Handle(GetTeamPurseProcedure, connect.NewUnaryHandler(GetTeamPurseProcedure, svc.GetTeamPurse, opts...))
	return "/" + ServiceName + "/", mux
}

func viewError(err error) error {
	switch {
	case errors.Is(err, session.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// toStruct converts v through its JSON form so field names match the
// websocket payloads.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}
