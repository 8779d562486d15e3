package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// GroupServiceHandler is implemented by the esplit.v1.GroupService server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
	AddParticipant(context.Context, *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[RemoveParticipantRequest]) (*connect.Response[RemoveParticipantResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for every GroupService
// procedure. It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	createGroup := connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...)
	getGroup := connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...)
	listGroups := connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...)
	updateGroup := connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...)
	deleteGroup := connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...)
	addParticipant := connect.NewUnaryHandler(GroupServiceAddParticipantProcedure, svc.AddParticipant, opts...)
	removeParticipant := connect.NewUnaryHandler(GroupServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...)

	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			createGroup.ServeHTTP(w, r)
		case GroupServiceGetGroupProcedure:
			getGroup.ServeHTTP(w, r)
		case GroupServiceListGroupsProcedure:
			listGroups.ServeHTTP(w, r)
		case GroupServiceUpdateGroupProcedure:
			updateGroup.ServeHTTP(w, r)
		case GroupServiceDeleteGroupProcedure:
			deleteGroup.ServeHTTP(w, r)
		case GroupServiceAddParticipantProcedure:
			addParticipant.ServeHTTP(w, r)
		case GroupServiceRemoveParticipantProcedure:
			removeParticipant.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LedgerServiceHandler is implemented by the esplit.v1.LedgerService server.
type LedgerServiceHandler interface {
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	EditExpense(context.Context, *connect.Request[EditExpenseRequest]) (*connect.Response[EditExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error)
	ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
	GetAnalytics(context.Context, *connect.Request[GetAnalyticsRequest]) (*connect.Response[GetAnalyticsResponse], error)
	ListActivity(context.Context, *connect.Request[ListActivityRequest]) (*connect.Response[ListActivityResponse], error)
	UndoActivity(context.Context, *connect.Request[UndoActivityRequest]) (*connect.Response[UndoActivityResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for every LedgerService
// procedure. It returns the path prefix to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	addExpense := connect.NewUnaryHandler(LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...)
	editExpense := connect.NewUnaryHandler(LedgerServiceEditExpenseProcedure, svc.EditExpense, opts...)
	deleteExpense := connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	recordPayment := connect.NewUnaryHandler(LedgerServiceRecordPaymentProcedure, svc.RecordPayment, opts...)
	listTransactions := connect.NewUnaryHandler(LedgerServiceListTransactionsProcedure, svc.ListTransactions, opts...)
	getBalances := connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...)
	getAnalytics := connect.NewUnaryHandler(LedgerServiceGetAnalyticsProcedure, svc.GetAnalytics, opts...)
	listActivity := connect.NewUnaryHandler(LedgerServiceListActivityProcedure, svc.ListActivity, opts...)
	undoActivity := connect.NewUnaryHandler(LedgerServiceUndoActivityProcedure, svc.UndoActivity, opts...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceAddExpenseProcedure:
			addExpense.ServeHTTP(w, r)
		case LedgerServiceEditExpenseProcedure:
			editExpense.ServeHTTP(w, r)
		case LedgerServiceDeleteExpenseProcedure:
			deleteExpense.ServeHTTP(w, r)
		case LedgerServiceRecordPaymentProcedure:
			recordPayment.ServeHTTP(w, r)
		case LedgerServiceListTransactionsProcedure:
			listTransactions.ServeHTTP(w, r)
		case LedgerServiceGetBalancesProcedure:
			getBalances.ServeHTTP(w, r)
		case LedgerServiceGetAnalyticsProcedure:
			getAnalytics.ServeHTTP(w, r)
		case LedgerServiceListActivityProcedure:
			listActivity.ServeHTTP(w, r)
		case LedgerServiceUndoActivityProcedure:
			undoActivity.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
