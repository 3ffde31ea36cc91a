package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gigline/internal/domain"
)

// settle transfers amount from payer to payee and records the transfer as a
// payment/earning pair referencing refID. The payer's wallet may go
// negative; the demo marketplace does not gate on funds.
func (e Engine) settle(ctx context.Context, tx *sql.Tx, payerID, payeeID string, amount float64, refID string) error {
	now := e.nowString()
	payment := domain.Transaction{
		ID:         uuid.NewString(),
		FromUserID: payerID,
		ToUserID:   payeeID,
		RefID:      refID,
		Amount:     amount,
		Type:       "payment",
		CreatedAt:  now,
	}
	earning := payment
	earning.ID = uuid.NewString()
	earning.Type = "earning"
	if err := e.Repo.InsertTransactionTx(ctx, tx, payment); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	if err := e.Repo.InsertTransactionTx(ctx, tx, earning); err != nil {
		return fmt.Errorf("record earning: %w", err)
	}
	if err := e.Repo.ApplyWalletDelta(ctx, tx, payerID, -amount, 0, amount, 0); err != nil {
		return fmt.Errorf("debit payer: %w", err)
	}
	if err := e.Repo.ApplyWalletDelta(ctx, tx, payeeID, amount, amount, 0, 1); err != nil {
		return fmt.Errorf("credit payee: %w", err)
	}
	e.Log.Info("settlement recorded",
		zap.String("ref_id", refID),
		zap.String("payer_id", payerID),
		zap.String("payee_id", payeeID),
		zap.Float64("amount", amount))
	return nil
}

// recordRating appends a rating and folds it into the ratee's running
// average, rounded to one decimal.
func (e Engine) recordRating(ctx context.Context, tx *sql.Tx, refID, raterID, rateeID string, score float64, comment string) (domain.Rating, error) {
	rating := domain.Rating{
		ID:         uuid.NewString(),
		RefID:      refID,
		FromUserID: raterID,
		ToUserID:   rateeID,
		Score:      score,
		Comment:    comment,
		CreatedAt:  e.nowString(),
	}
	if err := e.Repo.InsertRatingTx(ctx, tx, rating); err != nil {
		return rating, err
	}
	ratee, err := e.Repo.GetUserTx(ctx, tx, rateeID)
	if err != nil {
		return rating, fmt.Errorf("ratee: %w", err)
	}
	newCount := ratee.TotalRatings + 1
	newAvg := (ratee.AverageRating*float64(ratee.TotalRatings) + score) / float64(newCount)
	newAvg = math.Round(newAvg*10) / 10
	if err := e.Repo.UpdateReputationTx(ctx, tx, rateeID, newAvg, newCount); err != nil {
		return rating, fmt.Errorf("update reputation: %w", err)
	}
	return rating, nil
}

// BalanceMismatch reports one user whose denormalized wallet disagrees with
// the transaction log.
type BalanceMismatch struct {
	UserID   string  `json:"user_id"`
	Stored   float64 `json:"stored"`
	Computed float64 `json:"computed"`
}

// VerifyBalances recomputes every wallet as opening balance plus the fold of
// the transaction log and returns the users whose stored balance disagrees.
// An empty result means the materialized balances are consistent.
func (e Engine) VerifyBalances(ctx context.Context) ([]BalanceMismatch, error) {
	users, err := e.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := e.Repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	folded := make(map[string]float64, len(users))
	for _, t := range txs {
		switch t.Type {
		case "payment":
			folded[t.FromUserID] -= t.Amount
		case "earning":
			folded[t.ToUserID] += t.Amount
		}
	}
	var mismatches []BalanceMismatch
	for _, u := range users {
		computed := u.OpeningBalance + folded[u.ID]
		if math.Abs(computed-u.WalletBalance) > 1e-9 {
			mismatches = append(mismatches, BalanceMismatch{UserID: u.ID, Stored: u.WalletBalance, Computed: computed})
		}
	}
	if len(mismatches) > 0 {
		e.Log.Warn("wallet balances diverge from ledger", zap.Int("users", len(mismatches)))
	}
	return mismatches, nil
}

// WalletSummary is a user's financial view: the denormalized totals plus the
// ledger rows behind them, split by direction.
type WalletSummary struct {
	User     domain.User          `json:"user"`
	Incoming []domain.Transaction `json:"incoming"`
	Outgoing []domain.Transaction `json:"outgoing"`
}

func (e Engine) Wallet(ctx context.Context, userID string) (WalletSummary, error) {
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		return WalletSummary{}, err
	}
	txs, err := e.Repo.ListTransactionsForUser(ctx, userID)
	if err != nil {
		return WalletSummary{}, err
	}
	s := WalletSummary{User: u}
	for _, t := range txs {
		if t.Type == "earning" {
			s.Incoming = append(s.Incoming, t)
		} else {
			s.Outgoing = append(s.Outgoing, t)
		}
	}
	return s, nil
}
