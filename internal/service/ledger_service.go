package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/rpc"
	"github.com/mmynk/esplit/internal/storage"
)

var _ rpc.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService: expenses, payments,
// balances, analytics and the activity log of a group.
type LedgerService struct {
	deps
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	return &LedgerService{deps: newDeps(store, opts)}
}

// buildExpense validates input against the roster and computes its shares.
func (s *LedgerService) buildExpense(in rpc.ExpenseInput, roster map[models.ParticipantID]models.Participant) (models.Transaction, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return models.Transaction{}, invalidArgument("description is required")
	}
	if in.PaidBy == "" {
		return models.Transaction{}, invalidArgument("paid_by is required")
	}
	if _, ok := roster[in.PaidBy]; !ok {
		return models.Transaction{}, invalidArgument("payer '%s' is not a participant of this group", in.PaidBy)
	}
	for _, id := range in.SplitAmong {
		if _, ok := roster[id]; !ok {
			return models.Transaction{}, invalidArgument("'%s' is not a participant of this group", id)
		}
	}

	// Shares are whole cents, so the stored amount must be too.
	amount := calculator.RoundCents(in.Amount)
	shares, err := calculator.CalculateShares(in.SplitType, amount, in.SplitAmong, in.ExactShares)
	if err != nil {
		return models.Transaction{}, toConnectError(err)
	}

	date := in.Date
	if date == "" {
		date = s.today()
	}

	return models.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    models.CategoryByID(in.Category).ID,
		PaidBy:      in.PaidBy,
		Shares:      shares,
	}, nil
}

// AddExpense records a new expense split among some of the group's participants.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[rpc.AddExpenseRequest]) (*connect.Response[rpc.AddExpenseResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("AddExpense request received",
		"group_id", groupID,
		"description", req.Msg.Expense.Description,
		"amount", req.Msg.Expense.Amount,
		"split_type", req.Msg.Expense.SplitType,
	)

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("AddExpense failed - group not found", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	txn, err := s.buildExpense(req.Msg.Expense, rosterIndex(group.Participants))
	if err != nil {
		slog.Warn("AddExpense validation failed", "group_id", groupID, "error", err)
		return nil, err
	}
	txn.GroupID = groupID

	if err := s.store.CreateTransaction(ctx, &txn); err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.RecordTransaction(txn.Kind())

	s.recordActivity(ctx, &models.Activity{
		GroupID:     groupID,
		Action:      models.ActionAdded,
		TargetType:  models.TargetExpense,
		TargetID:    string(txn.ID),
		Description: calculator.DescribeExpense(models.ActionAdded, txn),
	})

	slog.Info("Expense added", "group_id", groupID, "transaction_id", txn.ID)

	return connect.NewResponse(&rpc.AddExpenseResponse{Transaction: &txn}), nil
}

// EditExpense replaces an expense with a new description, amount and split.
// Settlements cannot be edited; delete and record them again instead.
func (s *LedgerService) EditExpense(ctx context.Context, req *connect.Request[rpc.EditExpenseRequest]) (*connect.Response[rpc.EditExpenseResponse], error) {
	txnID := req.Msg.TransactionID
	slog.Info("EditExpense request received", "transaction_id", txnID)

	previous, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		slog.Error("EditExpense failed - transaction not found", "transaction_id", txnID, "error", err)
		return nil, toConnectError(err)
	}
	if previous.IsSettlement {
		return nil, failedPrecondition("settlements cannot be edited")
	}

	participants, err := s.store.ListParticipants(ctx, previous.GroupID)
	if err != nil {
		slog.Error("EditExpense failed - could not load roster", "group_id", previous.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	txn, err := s.buildExpense(req.Msg.Expense, rosterIndex(participants))
	if err != nil {
		slog.Warn("EditExpense validation failed", "transaction_id", txnID, "error", err)
		return nil, err
	}
	txn.ID = previous.ID
	txn.GroupID = previous.GroupID
	txn.CreatedAt = previous.CreatedAt

	if err := s.store.UpdateTransaction(ctx, &txn); err != nil {
		slog.Error("EditExpense failed", "transaction_id", txnID, "error", err)
		return nil, toConnectError(err)
	}

	s.recordActivity(ctx, &models.Activity{
		GroupID:     txn.GroupID,
		Action:      models.ActionEdited,
		TargetType:  models.TargetExpense,
		TargetID:    string(txn.ID),
		Description: calculator.DescribeExpense(models.ActionEdited, txn),
		Previous:    previous,
	})

	slog.Info("Expense edited", "group_id", txn.GroupID, "transaction_id", txn.ID)

	return connect.NewResponse(&rpc.EditExpenseResponse{
		Transaction: &txn,
		SplitType:   calculator.DetectSplitType(txn.Shares),
	}), nil
}

// DeleteExpense removes an expense or a settlement.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[rpc.DeleteExpenseRequest]) (*connect.Response[rpc.DeleteExpenseResponse], error) {
	txnID := req.Msg.TransactionID
	slog.Info("DeleteExpense request received", "transaction_id", txnID)

	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		slog.Error("DeleteExpense failed - transaction not found", "transaction_id", txnID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteTransaction(ctx, txnID); err != nil {
		slog.Error("DeleteExpense failed", "transaction_id", txnID, "error", err)
		return nil, toConnectError(err)
	}

	activity := &models.Activity{
		GroupID:     txn.GroupID,
		Action:      models.ActionDeleted,
		TargetType:  models.TargetExpense,
		TargetID:    string(txn.ID),
		Description: calculator.DescribeExpense(models.ActionDeleted, *txn),
		Previous:    txn,
	}
	if txn.IsSettlement {
		activity.TargetType = models.TargetSettlement
		activity.Description = s.describeDeletedPayment(ctx, *txn)
	}
	s.recordActivity(ctx, activity)

	slog.Info("Transaction deleted", "group_id", txn.GroupID, "transaction_id", txnID, "kind", txn.Kind())

	return connect.NewResponse(&rpc.DeleteExpenseResponse{}), nil
}

func (s *LedgerService) describeDeletedPayment(ctx context.Context, txn models.Transaction) string {
	participants, err := s.store.ListParticipants(ctx, txn.GroupID)
	if err != nil {
		slog.Warn("Could not load roster for activity description", "group_id", txn.GroupID, "error", err)
	}
	roster := rosterIndex(participants)
	return calculator.DescribeDeletedPayment(lookup(roster, txn.PaidBy), lookup(roster, txn.PaidTo), txn.Amount)
}

// RecordPayment records that one participant paid another directly.
func (s *LedgerService) RecordPayment(ctx context.Context, req *connect.Request[rpc.RecordPaymentRequest]) (*connect.Response[rpc.RecordPaymentResponse], error) {
	msg := req.Msg
	slog.Info("RecordPayment request received",
		"group_id", msg.GroupID,
		"from", msg.From,
		"to", msg.To,
		"amount", msg.Amount,
	)

	if msg.From == msg.To {
		return nil, invalidArgument("payer and receiver must be different participants")
	}
	amount := calculator.RoundCents(msg.Amount)
	if amount <= 0 {
		return nil, toConnectError(calculator.ErrInvalidAmount)
	}

	group, err := s.store.GetGroup(ctx, msg.GroupID)
	if err != nil {
		slog.Error("RecordPayment failed - group not found", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	roster := rosterIndex(group.Participants)
	from, ok := roster[msg.From]
	if !ok {
		return nil, invalidArgument("payer '%s' is not a participant of this group", msg.From)
	}
	to, ok := roster[msg.To]
	if !ok {
		return nil, invalidArgument("receiver '%s' is not a participant of this group", msg.To)
	}

	date := msg.Date
	if date == "" {
		date = s.today()
	}
	txn := models.NewSettlement(group.ID, from, to, amount, date, strings.TrimSpace(msg.Note))

	if err := s.store.CreateTransaction(ctx, &txn); err != nil {
		slog.Error("RecordPayment failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.RecordTransaction(txn.Kind())

	s.recordActivity(ctx, &models.Activity{
		GroupID:     group.ID,
		Action:      models.ActionAdded,
		TargetType:  models.TargetSettlement,
		TargetID:    string(txn.ID),
		Description: calculator.DescribePayment(from, to, amount),
	})

	slog.Info("Payment recorded", "group_id", group.ID, "transaction_id", txn.ID)

	return connect.NewResponse(&rpc.RecordPaymentResponse{Transaction: &txn}), nil
}

// ListTransactions returns a group's expenses and settlements, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[rpc.ListTransactionsRequest]) (*connect.Response[rpc.ListTransactionsResponse], error) {
	slog.Info("ListTransactions request received", "group_id", req.Msg.GroupID)

	_, txns, err := s.loadLedger(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListTransactions failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	entries := make([]rpc.LedgerEntry, len(txns))
	for i, txn := range txns {
		entries[i] = rpc.LedgerEntry{Transaction: txn}
		if !txn.IsSettlement {
			entries[i].SplitType = calculator.DetectSplitType(txn.Shares)
		}
	}

	slog.Info("ListTransactions successful", "group_id", req.Msg.GroupID, "count", len(entries))

	return connect.NewResponse(&rpc.ListTransactionsResponse{Transactions: entries}), nil
}

// GetBalances calculates who owes what across all transactions in a group,
// and proposes the transfers that would settle everyone up.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[rpc.GetBalancesRequest]) (*connect.Response[rpc.GetBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetBalances request received", "group_id", groupID)

	group, txns, err := s.loadLedger(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed - could not load ledger", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	balances := calculator.CalculateBalances(txns, group.Participants)
	plan := calculator.CalculateSettlements(balances.Balances, group.Participants)
	s.metrics.ObservePlan(len(plan))

	resp := &rpc.GetBalancesResponse{
		Balances:         balanceRows(balances, group.Participants),
		Settlements:      plan,
		TotalExpenses:    calculator.RoundCents(calculator.TotalExpenses(txns)),
		ActiveCount:      len(calculator.ActiveParticipants(txns, group.Participants)),
		AveragePerActive: calculator.RoundCents(calculator.AveragePerActive(txns, group.Participants)),
		Settled:          balances.IsSettled(),
	}

	slog.Info("GetBalances successful",
		"group_id", groupID,
		"transactions", len(txns),
		"transfers", len(plan),
	)

	return connect.NewResponse(resp), nil
}

// balanceRows lists the roster in order, then any ids that appear in
// transactions but are no longer on the roster.
func balanceRows(b calculator.Balances, participants []models.Participant) []rpc.ParticipantBalance {
	roster := rosterIndex(participants)
	ids := b.IDs(participants)

	rows := make([]rpc.ParticipantBalance, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, rpc.ParticipantBalance{
			Participant: lookup(roster, id),
			Paid:        calculator.RoundCents(b.TotalPaid[id]),
			Share:       calculator.RoundCents(b.TotalShare[id]),
			Balance:     calculator.RoundCents(b.Balances[id]),
		})
	}
	return rows
}

// GetAnalytics summarizes a group's spending.
func (s *LedgerService) GetAnalytics(ctx context.Context, req *connect.Request[rpc.GetAnalyticsRequest]) (*connect.Response[rpc.GetAnalyticsResponse], error) {
	slog.Info("GetAnalytics request received", "group_id", req.Msg.GroupID)

	group, txns, err := s.loadLedger(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetAnalytics failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	summary := calculator.Summarize(txns, group.Participants, s.now())

	return connect.NewResponse(&rpc.GetAnalyticsResponse{Summary: summary}), nil
}

// ListActivity returns a group's activity log, newest first.
func (s *LedgerService) ListActivity(ctx context.Context, req *connect.Request[rpc.ListActivityRequest]) (*connect.Response[rpc.ListActivityResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("ListActivity request received", "group_id", groupID, "limit", req.Msg.Limit)

	if req.Msg.Limit < 0 {
		return nil, invalidArgument("limit cannot be negative")
	}

	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		slog.Error("ListActivity failed - group not found", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	activities, err := s.store.ListActivities(ctx, groupID)
	if err != nil {
		slog.Error("ListActivity failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	if req.Msg.Limit > 0 && len(activities) > req.Msg.Limit {
		activities = activities[:req.Msg.Limit]
	}

	return connect.NewResponse(&rpc.ListActivityResponse{Activities: activities}), nil
}

// UndoActivity reverts an expense or settlement change and removes it from
// the log. Undo does not record an activity of its own.
func (s *LedgerService) UndoActivity(ctx context.Context, req *connect.Request[rpc.UndoActivityRequest]) (*connect.Response[rpc.UndoActivityResponse], error) {
	activityID := req.Msg.ActivityID
	slog.Info("UndoActivity request received", "activity_id", activityID)

	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		slog.Error("UndoActivity failed - activity not found", "activity_id", activityID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.revert(ctx, activity); err != nil {
		slog.Error("UndoActivity failed", "activity_id", activityID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteActivity(ctx, activity.ID); err != nil {
		slog.Error("UndoActivity failed - could not remove activity", "activity_id", activityID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Activity undone",
		"activity_id", activity.ID,
		"group_id", activity.GroupID,
		"action", activity.Action,
		"target_id", activity.TargetID,
	)

	return connect.NewResponse(&rpc.UndoActivityResponse{Undone: activity}), nil
}

// revert applies the inverse of an activity to the ledger.
func (s *LedgerService) revert(ctx context.Context, activity *models.Activity) error {
	if activity.TargetType == models.TargetParticipant {
		return failedPrecondition("participant changes cannot be undone")
	}

	switch activity.Action {
	case models.ActionAdded:
		return s.store.DeleteTransaction(ctx, models.TransactionID(activity.TargetID))
	case models.ActionEdited:
		if activity.Previous == nil {
			return failedPrecondition("activity has no previous state to restore")
		}
		return s.store.UpdateTransaction(ctx, activity.Previous)
	case models.ActionDeleted:
		if activity.Previous == nil {
			return failedPrecondition("activity has no previous state to restore")
		}
		return s.store.CreateTransaction(ctx, activity.Previous)
	default:
		return failedPrecondition("unknown action '%s'", activity.Action)
	}
}
