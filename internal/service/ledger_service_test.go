package service

import (
	"context"
	"math"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/rpc"
)

func TestAddExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob", "Charlie")
	alice, bob, charlie := people[0], people[1], people[2]

	tests := []struct {
		name         string
		expense      rpc.ExpenseInput
		wantCode     connect.Code
		validateFunc func(t *testing.T, txn *models.Transaction)
	}{
		{
			name: "equal split with defaults",
			expense: rpc.ExpenseInput{
				Description: "Groceries",
				Amount:      10,
				Category:    "not-a-category",
				PaidBy:      alice.ID,
				SplitAmong:  []models.ParticipantID{alice.ID, bob.ID, charlie.ID},
			},
			validateFunc: func(t *testing.T, txn *models.Transaction) {
				if txn.ID == "" || txn.GroupID != groupID {
					t.Errorf("expected stored transaction in group, got %+v", txn)
				}
				if txn.Date != "2024-03-15" {
					t.Errorf("expected default date 2024-03-15, got %s", txn.Date)
				}
				if txn.Category != "other" {
					t.Errorf("expected category fallback 'other', got %s", txn.Category)
				}
				if txn.Shares[alice.ID] != 3.34 || txn.Shares[bob.ID] != 3.33 || txn.Shares[charlie.ID] != 3.33 {
					t.Errorf("unexpected shares: %v", txn.Shares)
				}
			},
		},
		{
			name: "exact split",
			expense: rpc.ExpenseInput{
				Description: "Taxi",
				Amount:      25,
				Date:        "2024-03-01",
				Category:    "transport",
				PaidBy:      bob.ID,
				SplitType:   calculator.SplitExact,
				SplitAmong:  []models.ParticipantID{alice.ID, bob.ID},
				ExactShares: map[models.ParticipantID]float64{alice.ID: 20, bob.ID: 5},
			},
			validateFunc: func(t *testing.T, txn *models.Transaction) {
				if txn.Shares[alice.ID] != 20 || txn.Shares[bob.ID] != 5 {
					t.Errorf("unexpected shares: %v", txn.Shares)
				}
				if txn.Category != "transport" || txn.Date != "2024-03-01" {
					t.Errorf("unexpected category/date: %s %s", txn.Category, txn.Date)
				}
			},
		},
		{
			name:     "missing description",
			expense:  rpc.ExpenseInput{Amount: 10, PaidBy: alice.ID, SplitAmong: []models.ParticipantID{alice.ID}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "zero amount",
			expense:  rpc.ExpenseInput{Description: "Free", PaidBy: alice.ID, SplitAmong: []models.ParticipantID{alice.ID}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "missing payer",
			expense:  rpc.ExpenseInput{Description: "Lunch", Amount: 10, SplitAmong: []models.ParticipantID{alice.ID}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "payer not in group",
			expense:  rpc.ExpenseInput{Description: "Lunch", Amount: 10, PaidBy: "stranger", SplitAmong: []models.ParticipantID{alice.ID}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "nobody to split with",
			expense:  rpc.ExpenseInput{Description: "Lunch", Amount: 10, PaidBy: alice.ID},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name: "exact shares do not add up",
			expense: rpc.ExpenseInput{
				Description: "Lunch", Amount: 10, PaidBy: alice.ID, SplitType: calculator.SplitExact,
				SplitAmong:  []models.ParticipantID{alice.ID, bob.ID},
				ExactShares: map[models.ParticipantID]float64{alice.ID: 3, bob.ID: 3},
			},
			wantCode: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.ledger.AddExpense(ctx, connect.NewRequest(&rpc.AddExpenseRequest{
				GroupID: groupID,
				Expense: tt.expense,
			}))
			if tt.wantCode != 0 {
				expectCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("AddExpense failed: %v", err)
			}
			tt.validateFunc(t, resp.Msg.Transaction)
		})
	}

	if got := testutil.ToFloat64(env.metrics.TransactionsTotal.WithLabelValues("expense")); got != 2 {
		t.Errorf("expected 2 recorded expenses, got %v", got)
	}
}

func TestAddExpense_GroupNotFound(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.ledger.AddExpense(context.Background(), connect.NewRequest(&rpc.AddExpenseRequest{
		GroupID: "nonexistent-id",
		Expense: rpc.ExpenseInput{Description: "Lunch", Amount: 10, PaidBy: "a", SplitAmong: []models.ParticipantID{"a"}},
	}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestGetBalances(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob", "Charlie", "Diana")
	alice, bob, charlie := people[0], people[1], people[2]

	// Alice pays 30 for three; Bob pays 12 for Alice and himself.
	// Alice +14, Bob -4, Charlie -10, Diana untouched.
	env.addExpense(t, groupID, "Dinner", 30, alice, alice, bob, charlie)
	env.addExpense(t, groupID, "Coffee", 12, bob, alice, bob)

	getBalances := func(t *testing.T) *rpc.GetBalancesResponse {
		t.Helper()
		resp, err := env.ledger.GetBalances(ctx, connect.NewRequest(&rpc.GetBalancesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		return resp.Msg
	}

	t.Run("before settling", func(t *testing.T) {
		got := getBalances(t)

		if len(got.Balances) != 4 {
			t.Fatalf("expected a row per participant, got %d", len(got.Balances))
		}
		want := []struct {
			name               string
			paid, share, total float64
		}{
			{"Alice", 30, 16, 14},
			{"Bob", 12, 16, -4},
			{"Charlie", 0, 10, -10},
			{"Diana", 0, 0, 0},
		}
		for i, w := range want {
			row := got.Balances[i]
			if row.Participant.Name != w.name {
				t.Errorf("row %d: expected %s, got %s", i, w.name, row.Participant.Name)
			}
			if math.Abs(row.Paid-w.paid) > 0.01 || math.Abs(row.Share-w.share) > 0.01 || math.Abs(row.Balance-w.total) > 0.01 {
				t.Errorf("%s: expected paid %v share %v balance %v, got %+v", w.name, w.paid, w.share, w.total, row)
			}
		}

		if len(got.Settlements) != 2 {
			t.Fatalf("expected 2 transfers, got %+v", got.Settlements)
		}
		first, second := got.Settlements[0], got.Settlements[1]
		if first.From.ID != charlie.ID || first.To.ID != alice.ID || first.Amount != 10 {
			t.Errorf("unexpected first transfer: %+v", first)
		}
		if second.From.ID != bob.ID || second.To.ID != alice.ID || second.Amount != 4 {
			t.Errorf("unexpected second transfer: %+v", second)
		}

		if got.TotalExpenses != 42 {
			t.Errorf("expected total 42, got %v", got.TotalExpenses)
		}
		if got.ActiveCount != 3 {
			t.Errorf("expected 3 active participants, got %d", got.ActiveCount)
		}
		if got.AveragePerActive != 14 {
			t.Errorf("expected average 14, got %v", got.AveragePerActive)
		}
		if got.Settled {
			t.Error("expected ledger to be unsettled")
		}
	})

	t.Run("after recording the plan", func(t *testing.T) {
		for _, transfer := range getBalances(t).Settlements {
			_, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
				GroupID: groupID,
				From:    transfer.From.ID,
				To:      transfer.To.ID,
				Amount:  transfer.Amount,
			}))
			if err != nil {
				t.Fatalf("RecordPayment failed: %v", err)
			}
		}

		got := getBalances(t)
		if !got.Settled {
			t.Errorf("expected ledger to be settled, balances %+v", got.Balances)
		}
		if len(got.Settlements) != 0 {
			t.Errorf("expected no transfers, got %+v", got.Settlements)
		}
		if got.TotalExpenses != 42 {
			t.Errorf("settlements must not count as expenses, total %v", got.TotalExpenses)
		}
	})

	if got := testutil.ToFloat64(env.metrics.TransactionsTotal.WithLabelValues("settlement")); got != 2 {
		t.Errorf("expected 2 recorded settlements, got %v", got)
	}
	if got := testutil.CollectAndCount(env.metrics.SettlementTransfers); got != 1 {
		t.Errorf("expected settlement plan histogram to be collected, got %d", got)
	}
}

func TestGetBalances_RemovedParticipantStillCounted(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	env.addExpense(t, groupID, "Snacks", 10, bob, bob)
	_, err := env.groups.RemoveParticipant(ctx, connect.NewRequest(&rpc.RemoveParticipantRequest{
		GroupID: groupID, ParticipantID: bob.ID,
	}))
	if err != nil {
		t.Fatalf("RemoveParticipant failed: %v", err)
	}

	resp, err := env.ledger.GetBalances(ctx, connect.NewRequest(&rpc.GetBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}

	rows := resp.Msg.Balances
	if len(rows) != 2 {
		t.Fatalf("expected roster row plus removed payer, got %+v", rows)
	}
	if rows[0].Participant.ID != alice.ID {
		t.Errorf("expected roster first, got %+v", rows[0])
	}
	if rows[1].Participant.ID != bob.ID || rows[1].Participant.Name != "Unknown" {
		t.Errorf("expected removed participant as Unknown, got %+v", rows[1].Participant)
	}
	if resp.Msg.ActiveCount != 0 {
		t.Errorf("removed participants are not active, got %d", resp.Msg.ActiveCount)
	}
}

func TestRecordPayment(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	t.Run("creates settlement", func(t *testing.T) {
		req := connect.NewRequest(&rpc.RecordPaymentRequest{
			GroupID: groupID, From: bob.ID, To: alice.ID, Amount: 15.5, Date: "2024-03-10",
		})
		req.Header().Set(rpc.ActorNameHeader, "Bob")

		resp, err := env.ledger.RecordPayment(ctx, req)
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}

		txn := resp.Msg.Transaction
		if !txn.IsSettlement || txn.PaidBy != bob.ID || txn.PaidTo != alice.ID {
			t.Errorf("unexpected settlement: %+v", txn)
		}
		if txn.Description != "Settlement: Bob paid Alice" {
			t.Errorf("unexpected description: %s", txn.Description)
		}
		if txn.Category != models.SettlementCategory {
			t.Errorf("expected settlement category, got %s", txn.Category)
		}

		last := env.publisher.last()
		if last.Description != "Recorded payment: Bob paid Alice $15.50" {
			t.Errorf("unexpected activity description: %s", last.Description)
		}
		if last.ActorName != "Bob" || last.TargetType != models.TargetSettlement {
			t.Errorf("unexpected activity: %+v", last)
		}
	})

	tests := []struct {
		name     string
		req      *rpc.RecordPaymentRequest
		wantCode connect.Code
	}{
		{"same person", &rpc.RecordPaymentRequest{GroupID: groupID, From: bob.ID, To: bob.ID, Amount: 5}, connect.CodeInvalidArgument},
		{"zero amount", &rpc.RecordPaymentRequest{GroupID: groupID, From: bob.ID, To: alice.ID}, connect.CodeInvalidArgument},
		{"negative amount", &rpc.RecordPaymentRequest{GroupID: groupID, From: bob.ID, To: alice.ID, Amount: -1}, connect.CodeInvalidArgument},
		{"unknown receiver", &rpc.RecordPaymentRequest{GroupID: groupID, From: bob.ID, To: "nobody", Amount: 5}, connect.CodeInvalidArgument},
		{"unknown group", &rpc.RecordPaymentRequest{GroupID: "nonexistent-id", From: bob.ID, To: alice.ID, Amount: 5}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.RecordPayment(ctx, connect.NewRequest(tt.req))
			expectCode(t, err, tt.wantCode)
		})
	}
}

func TestEditExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	original := env.addExpense(t, groupID, "Dinner", 20, alice, alice, bob)

	resp, err := env.ledger.EditExpense(ctx, connect.NewRequest(&rpc.EditExpenseRequest{
		TransactionID: original.ID,
		Expense: rpc.ExpenseInput{
			Description: "Dinner and drinks",
			Amount:      30,
			Date:        original.Date,
			Category:    "food",
			PaidBy:      bob.ID,
			SplitAmong:  []models.ParticipantID{alice.ID, bob.ID},
		},
	}))
	if err != nil {
		t.Fatalf("EditExpense failed: %v", err)
	}

	edited := resp.Msg.Transaction
	if resp.Msg.SplitType != calculator.SplitEqual {
		t.Errorf("expected equal split type, got %q", resp.Msg.SplitType)
	}
	if edited.ID != original.ID || edited.CreatedAt != original.CreatedAt {
		t.Errorf("identity must survive an edit: %+v vs %+v", edited, original)
	}
	if edited.Amount != 30 || edited.PaidBy != bob.ID || edited.Shares[alice.ID] != 15 {
		t.Errorf("unexpected edited transaction: %+v", edited)
	}

	last := env.publisher.last()
	if last.Action != models.ActionEdited || last.Description != "Edited 'Dinner and drinks' expense" {
		t.Errorf("unexpected activity: %+v", last)
	}
	if last.Previous == nil || last.Previous.Amount != 20 {
		t.Errorf("expected previous state with amount 20, got %+v", last.Previous)
	}

	t.Run("settlement cannot be edited", func(t *testing.T) {
		payment, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
			GroupID: groupID, From: alice.ID, To: bob.ID, Amount: 5,
		}))
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		_, err = env.ledger.EditExpense(ctx, connect.NewRequest(&rpc.EditExpenseRequest{
			TransactionID: payment.Msg.Transaction.ID,
			Expense:       rpc.ExpenseInput{Description: "x", Amount: 5, PaidBy: alice.ID, SplitAmong: []models.ParticipantID{bob.ID}},
		}))
		expectCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := env.ledger.EditExpense(ctx, connect.NewRequest(&rpc.EditExpenseRequest{TransactionID: "missing"}))
		expectCode(t, err, connect.CodeNotFound)
	})
}

func TestDeleteExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	expense := env.addExpense(t, groupID, "Dinner", 20, alice, alice, bob)
	payment, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
		GroupID: groupID, From: bob.ID, To: alice.ID, Amount: 10,
	}))
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	tests := []struct {
		name            string
		id              models.TransactionID
		wantTargetType  string
		wantDescription string
	}{
		{"expense", expense.ID, models.TargetExpense, "Deleted 'Dinner' expense ($20.00)"},
		{"settlement", payment.Msg.Transaction.ID, models.TargetSettlement, "Deleted payment: Bob paid Alice $10.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.DeleteExpense(ctx, connect.NewRequest(&rpc.DeleteExpenseRequest{TransactionID: tt.id}))
			if err != nil {
				t.Fatalf("DeleteExpense failed: %v", err)
			}

			last := env.publisher.last()
			if last.TargetType != tt.wantTargetType || last.Description != tt.wantDescription {
				t.Errorf("unexpected activity: %+v", last)
			}
			if last.Previous == nil || last.Previous.ID != tt.id {
				t.Errorf("expected previous state of %s, got %+v", tt.id, last.Previous)
			}

			_, err = env.ledger.DeleteExpense(ctx, connect.NewRequest(&rpc.DeleteExpenseRequest{TransactionID: tt.id}))
			expectCode(t, err, connect.CodeNotFound)
		})
	}

	listResp, err := env.ledger.ListTransactions(ctx, connect.NewRequest(&rpc.ListTransactionsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(listResp.Msg.Transactions) != 0 {
		t.Errorf("expected empty ledger, got %d transactions", len(listResp.Msg.Transactions))
	}
}

func TestListTransactions(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	env.addExpense(t, groupID, "First", 10, alice, people...)
	if _, err := env.ledger.AddExpense(ctx, connect.NewRequest(&rpc.AddExpenseRequest{
		GroupID: groupID,
		Expense: rpc.ExpenseInput{
			Description: "Second",
			Amount:      10,
			PaidBy:      bob.ID,
			SplitType:   calculator.SplitExact,
			SplitAmong:  []models.ParticipantID{alice.ID, bob.ID},
			ExactShares: map[models.ParticipantID]float64{alice.ID: 8, bob.ID: 2},
		},
	})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if _, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
		GroupID: groupID, From: alice.ID, To: bob.ID, Amount: 3,
	})); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	resp, err := env.ledger.ListTransactions(ctx, connect.NewRequest(&rpc.ListTransactionsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	txns := resp.Msg.Transactions
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}

	tests := []struct {
		description   string
		wantSplitType calculator.SplitType
	}{
		{"Settlement: Alice paid Bob", ""},
		{"Second", calculator.SplitExact},
		{"First", calculator.SplitEqual},
	}
	for i, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			entry := txns[i]
			if entry.Description != tt.description {
				t.Fatalf("expected %q at position %d (newest first), got %q", tt.description, i, entry.Description)
			}
			if entry.SplitType != tt.wantSplitType {
				t.Errorf("expected split type %q, got %q", tt.wantSplitType, entry.SplitType)
			}
			if len(entry.Shares) == 0 {
				t.Errorf("expected shares to be loaded")
			}
		})
	}
}

func TestAddExpense_RoundsToCents(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob", "Charlie")
	alice, bob := people[0], people[1]

	// Below a cent rounds to zero and is refused, every time.
	for i := 0; i < 10; i++ {
		_, err := env.ledger.AddExpense(ctx, connect.NewRequest(&rpc.AddExpenseRequest{
			GroupID: groupID,
			Expense: rpc.ExpenseInput{Description: "Dust", Amount: 0.004, PaidBy: alice.ID, SplitAmong: []models.ParticipantID{alice.ID, bob.ID, people[2].ID}},
		}))
		expectCode(t, err, connect.CodeInvalidArgument)
	}

	for i := 0; i < 10; i++ {
		txn := env.addExpense(t, groupID, "Odd amount", 10.005, people[i%3], people...)
		if txn.Amount != 10.01 {
			t.Fatalf("expected amount rounded to 10.01, got %v", txn.Amount)
		}
		var sum float64
		for _, share := range txn.Shares {
			sum += share
		}
		if math.Abs(sum-txn.Amount) > 1e-9 {
			t.Fatalf("shares sum to %v, want %v", sum, txn.Amount)
		}
	}

	payment, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
		GroupID: groupID, From: bob.ID, To: alice.ID, Amount: 4.999,
	}))
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if payment.Msg.Transaction.Amount != 5 || payment.Msg.Transaction.Shares[alice.ID] != 5 {
		t.Errorf("expected payment rounded to 5, got %+v", payment.Msg.Transaction)
	}

	_, err = env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
		GroupID: groupID, From: bob.ID, To: alice.ID, Amount: 0.004,
	}))
	expectCode(t, err, connect.CodeInvalidArgument)

	resp, err := env.ledger.GetBalances(ctx, connect.NewRequest(&rpc.GetBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	var total float64
	for _, row := range resp.Msg.Balances {
		total += row.Balance
	}
	if math.Abs(total) > 0.005 {
		t.Errorf("balances sum to %v, want 0", total)
	}
	if resp.Msg.TotalExpenses != 100.1 {
		t.Errorf("expected total 100.1, got %v", resp.Msg.TotalExpenses)
	}
}

func TestGetAnalytics(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	env.addExpense(t, groupID, "Dinner", 30, alice, alice, bob)
	env.addExpense(t, groupID, "Lunch", 10, bob, alice, bob)
	if _, err := env.ledger.RecordPayment(ctx, connect.NewRequest(&rpc.RecordPaymentRequest{
		GroupID: groupID, From: bob.ID, To: alice.ID, Amount: 10,
	})); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	resp, err := env.ledger.GetAnalytics(ctx, connect.NewRequest(&rpc.GetAnalyticsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetAnalytics failed: %v", err)
	}

	summary := resp.Msg.Summary
	if summary.TotalSpending != 40 || summary.ExpenseCount != 2 || summary.AveragePerExpense != 20 {
		t.Errorf("unexpected totals: %+v", summary)
	}
	if len(summary.TopSpenders) != 2 || summary.TopSpenders[0].Participant.ID != alice.ID {
		t.Errorf("expected Alice as top spender, got %+v", summary.TopSpenders)
	}
	if len(summary.Monthly) != 6 {
		t.Fatalf("expected 6 months, got %d", len(summary.Monthly))
	}
	if latest := summary.Monthly[5]; latest.Month != "2024-03" || latest.Amount != 40 {
		t.Errorf("expected 40 spent in 2024-03, got %+v", latest)
	}
}

func TestListActivity(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")

	req := connect.NewRequest(&rpc.AddExpenseRequest{
		GroupID: groupID,
		Expense: rpc.ExpenseInput{Description: "Rent", Amount: 100, PaidBy: people[0].ID, SplitAmong: []models.ParticipantID{people[0].ID, people[1].ID}},
	})
	req.Header().Set(rpc.ActorEmailHeader, "alice@example.com")
	if _, err := env.ledger.AddExpense(ctx, req); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	resp, err := env.ledger.ListActivity(ctx, connect.NewRequest(&rpc.ListActivityRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}

	// Two participant additions and one expense.
	activities := resp.Msg.Activities
	if len(activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(activities))
	}
	newest := activities[0]
	if newest.Description != "Added 'Rent' expense ($100.00)" {
		t.Errorf("expected newest first, got %s", newest.Description)
	}
	if newest.ActorName != "alice" {
		t.Errorf("expected actor from email, got %q", newest.ActorName)
	}
	if activities[2].ActorName != "Someone" {
		t.Errorf("expected anonymous actor, got %q", activities[2].ActorName)
	}
	if newest.Timestamp != fixedNow.Unix() {
		t.Errorf("expected timestamp from clock, got %d", newest.Timestamp)
	}

	limited, err := env.ledger.ListActivity(ctx, connect.NewRequest(&rpc.ListActivityRequest{GroupID: groupID, Limit: 1}))
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	if len(limited.Msg.Activities) != 1 || limited.Msg.Activities[0].ID != newest.ID {
		t.Errorf("expected only the newest activity, got %+v", limited.Msg.Activities)
	}

	_, err = env.ledger.ListActivity(ctx, connect.NewRequest(&rpc.ListActivityRequest{GroupID: groupID, Limit: -1}))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestUndoActivity(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID, people := env.createGroup(t, "Alice", "Bob")
	alice, bob := people[0], people[1]

	transactions := func(t *testing.T) []rpc.LedgerEntry {
		t.Helper()
		resp, err := env.ledger.ListTransactions(ctx, connect.NewRequest(&rpc.ListTransactionsRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		return resp.Msg.Transactions
	}
	undoLast := func(t *testing.T) *models.Activity {
		t.Helper()
		activity := env.publisher.last()
		resp, err := env.ledger.UndoActivity(ctx, connect.NewRequest(&rpc.UndoActivityRequest{ActivityID: activity.ID}))
		if err != nil {
			t.Fatalf("UndoActivity failed: %v", err)
		}
		return resp.Msg.Undone
	}

	t.Run("undo add removes the expense", func(t *testing.T) {
		env.addExpense(t, groupID, "Mistake", 50, alice, alice, bob)
		undone := undoLast(t)

		if undone.Action != models.ActionAdded {
			t.Errorf("expected added activity, got %s", undone.Action)
		}
		if n := len(transactions(t)); n != 0 {
			t.Errorf("expected no transactions, got %d", n)
		}

		_, err := env.ledger.UndoActivity(ctx, connect.NewRequest(&rpc.UndoActivityRequest{ActivityID: undone.ID}))
		expectCode(t, err, connect.CodeNotFound)
	})

	t.Run("undo edit restores the previous state", func(t *testing.T) {
		txn := env.addExpense(t, groupID, "Dinner", 20, alice, alice, bob)
		_, err := env.ledger.EditExpense(ctx, connect.NewRequest(&rpc.EditExpenseRequest{
			TransactionID: txn.ID,
			Expense:       rpc.ExpenseInput{Description: "Dinner", Amount: 80, PaidBy: alice.ID, SplitAmong: []models.ParticipantID{alice.ID, bob.ID}},
		}))
		if err != nil {
			t.Fatalf("EditExpense failed: %v", err)
		}

		undoLast(t)

		txns := transactions(t)
		if len(txns) != 1 || txns[0].Amount != 20 || txns[0].Shares[bob.ID] != 10 {
			t.Errorf("expected original expense back, got %+v", txns)
		}
	})

	t.Run("undo delete re-inserts the transaction", func(t *testing.T) {
		txn := transactions(t)[0]
		if _, err := env.ledger.DeleteExpense(ctx, connect.NewRequest(&rpc.DeleteExpenseRequest{TransactionID: txn.ID})); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		undoLast(t)

		txns := transactions(t)
		if len(txns) != 1 || txns[0].ID != txn.ID || txns[0].Amount != txn.Amount {
			t.Errorf("expected %s restored, got %+v", txn.ID, txns)
		}
	})

	t.Run("participant changes cannot be undone", func(t *testing.T) {
		resp, err := env.ledger.ListActivity(ctx, connect.NewRequest(&rpc.ListActivityRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("ListActivity failed: %v", err)
		}
		var participantActivity *models.Activity
		for _, a := range resp.Msg.Activities {
			if a.TargetType == models.TargetParticipant {
				participantActivity = a
				break
			}
		}
		if participantActivity == nil {
			t.Fatal("expected a participant activity")
		}

		_, err = env.ledger.UndoActivity(ctx, connect.NewRequest(&rpc.UndoActivityRequest{ActivityID: participantActivity.ID}))
		expectCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("undone activities leave the log", func(t *testing.T) {
		resp, err := env.ledger.ListActivity(ctx, connect.NewRequest(&rpc.ListActivityRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("ListActivity failed: %v", err)
		}
		// Two participants, plus "added Dinner", which was never undone.
		if len(resp.Msg.Activities) != 3 {
			t.Errorf("expected 3 activities, got %d", len(resp.Msg.Activities))
		}
	})
}
