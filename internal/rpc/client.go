package rpc

import (
	"context"

	"connectrpc.com/connect"
)

// GroupServiceClient is a client for the esplit.v1.GroupService.
type GroupServiceClient struct {
	createGroup       *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup          *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups        *connect.Client[ListGroupsRequest, ListGroupsResponse]
	updateGroup       *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	deleteGroup       *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	addParticipant    *connect.Client[AddParticipantRequest, AddParticipantResponse]
	removeParticipant *connect.Client[RemoveParticipantRequest, RemoveParticipantResponse]
}

// NewGroupServiceClient constructs a client for the esplit.v1.GroupService.
// The JSON codec is always applied.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &GroupServiceClient{
		createGroup:       connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:          connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:        connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		updateGroup:       connect.NewClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:       connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addParticipant:    connect.NewClient[AddParticipantRequest, AddParticipantResponse](httpClient, baseURL+GroupServiceAddParticipantProcedure, opts...),
		removeParticipant: connect.NewClient[RemoveParticipantRequest, RemoveParticipantResponse](httpClient, baseURL+GroupServiceRemoveParticipantProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[RemoveParticipantRequest]) (*connect.Response[RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

// LedgerServiceClient is a client for the esplit.v1.LedgerService.
type LedgerServiceClient struct {
	addExpense       *connect.Client[AddExpenseRequest, AddExpenseResponse]
	editExpense      *connect.Client[EditExpenseRequest, EditExpenseResponse]
	deleteExpense    *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	recordPayment    *connect.Client[RecordPaymentRequest, RecordPaymentResponse]
	listTransactions *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
	getBalances      *connect.Client[GetBalancesRequest, GetBalancesResponse]
	getAnalytics     *connect.Client[GetAnalyticsRequest, GetAnalyticsResponse]
	listActivity     *connect.Client[ListActivityRequest, ListActivityResponse]
	undoActivity     *connect.Client[UndoActivityRequest, UndoActivityResponse]
}

// NewLedgerServiceClient constructs a client for the esplit.v1.LedgerService.
// The JSON codec is always applied.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &LedgerServiceClient{
		addExpense:       connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		editExpense:      connect.NewClient[EditExpenseRequest, EditExpenseResponse](httpClient, baseURL+LedgerServiceEditExpenseProcedure, opts...),
		deleteExpense:    connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		recordPayment:    connect.NewClient[RecordPaymentRequest, RecordPaymentResponse](httpClient, baseURL+LedgerServiceRecordPaymentProcedure, opts...),
		listTransactions: connect.NewClient[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL+LedgerServiceListTransactionsProcedure, opts...),
		getBalances:      connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
		getAnalytics:     connect.NewClient[GetAnalyticsRequest, GetAnalyticsResponse](httpClient, baseURL+LedgerServiceGetAnalyticsProcedure, opts...),
		listActivity:     connect.NewClient[ListActivityRequest, ListActivityResponse](httpClient, baseURL+LedgerServiceListActivityProcedure, opts...),
		undoActivity:     connect.NewClient[UndoActivityRequest, UndoActivityResponse](httpClient, baseURL+LedgerServiceUndoActivityProcedure, opts...),
	}
}

func (c *LedgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) EditExpense(ctx context.Context, req *connect.Request[EditExpenseRequest]) (*connect.Response[EditExpenseResponse], error) {
	return c.editExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetAnalytics(ctx context.Context, req *connect.Request[GetAnalyticsRequest]) (*connect.Response[GetAnalyticsResponse], error) {
	return c.getAnalytics.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListActivity(ctx context.Context, req *connect.Request[ListActivityRequest]) (*connect.Response[ListActivityResponse], error) {
	return c.listActivity.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UndoActivity(ctx context.Context, req *connect.Request[UndoActivityRequest]) (*connect.Response[UndoActivityResponse], error) {
	return c.undoActivity.CallUnary(ctx, req)
}
