package rpc

const (
	// GroupServiceName is the fully-qualified name of the GroupService.
	GroupServiceName = "esplit.v1.GroupService"
	// LedgerServiceName is the fully-qualified name of the LedgerService.
	LedgerServiceName = "esplit.v1.LedgerService"
)

// Procedure paths, as mounted on the HTTP mux.
const (
	GroupServiceCreateGroupProcedure       = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure          = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure        = "/" + GroupServiceName + "/ListGroups"
	GroupServiceUpdateGroupProcedure       = "/" + GroupServiceName + "/UpdateGroup"
	GroupServiceDeleteGroupProcedure       = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceAddParticipantProcedure    = "/" + GroupServiceName + "/AddParticipant"
	GroupServiceRemoveParticipantProcedure = "/" + GroupServiceName + "/RemoveParticipant"

	LedgerServiceAddExpenseProcedure       = "/" + LedgerServiceName + "/AddExpense"
	LedgerServiceEditExpenseProcedure      = "/" + LedgerServiceName + "/EditExpense"
	LedgerServiceDeleteExpenseProcedure    = "/" + LedgerServiceName + "/DeleteExpense"
	LedgerServiceRecordPaymentProcedure    = "/" + LedgerServiceName + "/RecordPayment"
	LedgerServiceListTransactionsProcedure = "/" + LedgerServiceName + "/ListTransactions"
	LedgerServiceGetBalancesProcedure      = "/" + LedgerServiceName + "/GetBalances"
	LedgerServiceGetAnalyticsProcedure     = "/" + LedgerServiceName + "/GetAnalytics"
	LedgerServiceListActivityProcedure     = "/" + LedgerServiceName + "/ListActivity"
	LedgerServiceUndoActivityProcedure     = "/" + LedgerServiceName + "/UndoActivity"
)

// Headers read by the actor interceptor.
const (
	ActorNameHeader  = "X-Actor-Name"
	ActorEmailHeader = "X-Actor-Email"
)
