package repo

import (
	"context"
	"database/sql"

	"gigline/internal/domain"
)

func (r Repo) InsertRatingTx(ctx context.Context, tx *sql.Tx, rt domain.Rating) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO ratings(id,ref_id,from_user_id,to_user_id,score,comment,created_at) VALUES (?,?,?,?,?,?,?)`,
		rt.ID, rt.RefID, rt.FromUserID, rt.ToUserID, rt.Score, nullable(rt.Comment), rt.CreatedAt)
	return err
}

func (r Repo) ListRatingsByRef(ctx context.Context, refID string) ([]domain.Rating, error) {
	return r.listRatings(ctx, `SELECT id,ref_id,from_user_id,to_user_id,score,comment,created_at FROM ratings WHERE ref_id=? ORDER BY created_at, id`, refID)
}

func (r Repo) ListRatingsForUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	return r.listRatings(ctx, `SELECT id,ref_id,from_user_id,to_user_id,score,comment,created_at FROM ratings WHERE to_user_id=? ORDER BY created_at, id`, userID)
}

func (r Repo) listRatings(ctx context.Context, query string, args ...any) ([]domain.Rating, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		var comment sql.NullString
		if err := rows.Scan(&rt.ID, &rt.RefID, &rt.FromUserID, &rt.ToUserID, &rt.Score, &comment, &rt.CreatedAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			rt.Comment = comment.String
		}
		res = append(res, rt)
	}
	return res, rows.Err()
}

func (r Repo) InsertTransactionTx(ctx context.Context, tx *sql.Tx, t domain.Transaction) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO transactions(id,from_user_id,to_user_id,ref_id,amount,type,created_at) VALUES (?,?,?,?,?,?,?)`,
		t.ID, t.FromUserID, t.ToUserID, t.RefID, t.Amount, t.Type, t.CreatedAt)
	return err
}

func (r Repo) ListTransactionsByRef(ctx context.Context, refID string) ([]domain.Transaction, error) {
	return r.listTransactions(ctx, `SELECT id,from_user_id,to_user_id,ref_id,amount,type,created_at FROM transactions WHERE ref_id=? ORDER BY created_at, id`, refID)
}

// ListTransactionsForUser returns the ledger rows touching a user: payment
// rows where the user paid, earning rows where the user was paid.
func (r Repo) ListTransactionsForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT id,from_user_id,to_user_id,ref_id,amount,type,created_at FROM transactions
WHERE (type='payment' AND from_user_id=?) OR (type='earning' AND to_user_id=?) ORDER BY created_at, id`,
		userID, userID)
}

func (r Repo) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return r.listTransactions(ctx, `SELECT id,from_user_id,to_user_id,ref_id,amount,type,created_at FROM transactions ORDER BY created_at, id`)
}

func (r Repo) listTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.FromUserID, &t.ToUserID, &t.RefID, &t.Amount, &t.Type, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
