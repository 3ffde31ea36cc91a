package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"gigline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func marshalStrings(in []string) string {
	if len(in) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func unmarshalStrings(in string) []string {
	if in == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(in), &out)
	return out
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

const userColumns = `id,name,COALESCE(bio,''),skills_json,COALESCE(avatar,''),completed_tasks,average_rating,total_ratings,wallet_balance,total_earnings,total_spent,opening_balance,created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var skills string
	err := row.Scan(&u.ID, &u.Name, &u.Bio, &skills, &u.Avatar, &u.CompletedTasks,
		&u.AverageRating, &u.TotalRatings, &u.WalletBalance, &u.TotalEarnings, &u.TotalSpent, &u.OpeningBalance, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Skills = unmarshalStrings(skills)
	return u, nil
}

func (r Repo) InsertUserTx(ctx context.Context, tx *sql.Tx, u domain.User) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users(id,name,bio,skills_json,avatar,completed_tasks,average_rating,total_ratings,wallet_balance,total_earnings,total_spent,opening_balance,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Name, nullable(u.Bio), marshalStrings(u.Skills), nullable(u.Avatar), u.CompletedTasks,
		u.AverageRating, u.TotalRatings, u.WalletBalance, u.TotalEarnings, u.TotalSpent, u.OpeningBalance, u.CreatedAt)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
}

// GetUserTx reads a user inside a transaction so balance updates see a
// consistent row.
func (r Repo) GetUserTx(ctx context.Context, tx *sql.Tx, id string) (domain.User, error) {
	return scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r Repo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r Repo) UpdateProfileTx(ctx context.Context, tx *sql.Tx, u domain.User) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET name=?, bio=?, skills_json=?, avatar=? WHERE id=?`,
		u.Name, nullable(u.Bio), marshalStrings(u.Skills), nullable(u.Avatar), u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyWalletDelta adjusts the denormalized financial summary of one user.
// Counter deltas are additive; the transaction log remains the source of truth.
func (r Repo) ApplyWalletDelta(ctx context.Context, tx *sql.Tx, userID string, balance, earnings, spent float64, completed int) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET wallet_balance=wallet_balance+?, total_earnings=total_earnings+?, total_spent=total_spent+?, completed_tasks=completed_tasks+? WHERE id=?`,
		balance, earnings, spent, completed, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateReputationTx(ctx context.Context, tx *sql.Tx, userID string, averageRating float64, totalRatings int) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET average_rating=?, total_ratings=? WHERE id=?`,
		averageRating, totalRatings, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
