package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/rpc"
	"github.com/mmynk/esplit/internal/storage"
)

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService: groups and their rosters.
type GroupService struct {
	deps
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...Option) *GroupService {
	return &GroupService{deps: newDeps(store, opts)}
}

// CreateGroup creates a new, empty group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("CreateGroup request received", "name", name)

	if name == "" {
		return nil, invalidArgument("group name is required")
	}

	group := &models.Group{Name: name, Participants: []models.Participant{}}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&rpc.CreateGroupResponse{Group: group}), nil
}

// GetGroup retrieves a group and its roster.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[rpc.GetGroupRequest]) (*connect.Response[rpc.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if req.Msg.GroupID == "" {
		return nil, invalidArgument("group_id required")
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "participants", len(group.Participants))

	return connect.NewResponse(&rpc.GetGroupResponse{Group: group}), nil
}

// ListGroups retrieves all groups, newest first.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[rpc.ListGroupsRequest]) (*connect.Response[rpc.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}
	if groups == nil {
		groups = []*models.Group{}
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&rpc.ListGroupsResponse{Groups: groups}), nil
}

// UpdateGroup renames a group.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[rpc.UpdateGroupRequest]) (*connect.Response[rpc.UpdateGroupResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("UpdateGroup request received", "group_id", req.Msg.GroupID, "name", name)

	if name == "" {
		return nil, invalidArgument("group name is required")
	}

	if err := s.store.UpdateGroup(ctx, &models.Group{ID: req.Msg.GroupID, Name: name}); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	// Fetch updated group to get CreatedAt and the roster
	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("Failed to fetch updated group", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)

	return connect.NewResponse(&rpc.UpdateGroupResponse{Group: group}), nil
}

// DeleteGroup removes a group and its whole ledger.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[rpc.DeleteGroupRequest]) (*connect.Response[rpc.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&rpc.DeleteGroupResponse{}), nil
}

// AddParticipant appends a participant to a group's roster. Without an
// explicit color the participant gets the palette color for their position.
func (s *GroupService) AddParticipant(ctx context.Context, req *connect.Request[rpc.AddParticipantRequest]) (*connect.Response[rpc.AddParticipantResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("AddParticipant request received", "group_id", req.Msg.GroupID, "name", name)

	if name == "" {
		return nil, invalidArgument("participant name is required")
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("AddParticipant failed - group not found", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	p := &models.Participant{
		GroupID: group.ID,
		Name:    name,
		Color:   req.Msg.Color,
		Email:   strings.TrimSpace(req.Msg.Email),
	}
	if p.Color == "" {
		p.Color = models.PaletteColor(len(group.Participants))
	}

	if err := s.store.AddParticipant(ctx, p); err != nil {
		slog.Error("AddParticipant failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.recordActivity(ctx, &models.Activity{
		GroupID:     group.ID,
		Action:      models.ActionAdded,
		TargetType:  models.TargetParticipant,
		TargetID:    string(p.ID),
		Description: calculator.DescribeParticipant(models.ActionAdded, *p),
	})

	slog.Info("Participant added", "group_id", group.ID, "participant_id", p.ID)

	return connect.NewResponse(&rpc.AddParticipantResponse{Participant: p}), nil
}

// RemoveParticipant deletes a roster entry. Participants whose balance is not
// settled cannot be removed.
func (s *GroupService) RemoveParticipant(ctx context.Context, req *connect.Request[rpc.RemoveParticipantRequest]) (*connect.Response[rpc.RemoveParticipantResponse], error) {
	groupID, participantID := req.Msg.GroupID, req.Msg.ParticipantID
	slog.Info("RemoveParticipant request received", "group_id", groupID, "participant_id", participantID)

	group, txns, err := s.loadLedger(ctx, groupID)
	if err != nil {
		slog.Error("RemoveParticipant failed - could not load ledger", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	p, ok := rosterIndex(group.Participants)[participantID]
	if !ok {
		return nil, toConnectError(fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound))
	}

	balance := calculator.CalculateBalances(txns, group.Participants).Balances[participantID]
	if math.Abs(balance) > calculator.Epsilon {
		slog.Warn("RemoveParticipant refused - unsettled balance",
			"group_id", groupID,
			"participant_id", participantID,
			"balance", balance,
		)
		if balance > 0 {
			return nil, failedPrecondition("cannot remove %s: they are still owed $%.2f, settle up first", p.Name, balance)
		}
		return nil, failedPrecondition("cannot remove %s: they still owe $%.2f, settle up first", p.Name, -balance)
	}

	if err := s.store.RemoveParticipant(ctx, groupID, participantID); err != nil {
		slog.Error("RemoveParticipant failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	s.recordActivity(ctx, &models.Activity{
		GroupID:     groupID,
		Action:      models.ActionDeleted,
		TargetType:  models.TargetParticipant,
		TargetID:    string(participantID),
		Description: calculator.DescribeParticipant(models.ActionDeleted, p),
	})

	slog.Info("Participant removed", "group_id", groupID, "participant_id", participantID)

	return connect.NewResponse(&rpc.RemoveParticipantResponse{}), nil
}
