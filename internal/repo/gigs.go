package repo

import (
	"context"
	"database/sql"

	"gigline/internal/domain"
)

const gigColumns = `id,user_id,category,description,starting_price,tags_json,delivery_days,created_at`

func scanGig(row interface{ Scan(...any) error }) (domain.Gig, error) {
	var g domain.Gig
	var tags string
	err := row.Scan(&g.ID, &g.UserID, &g.Category, &g.Description, &g.StartingPrice, &tags, &g.DeliveryDays, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	if err != nil {
		return g, err
	}
	g.Tags = unmarshalStrings(tags)
	return g, nil
}

func (r Repo) InsertGigTx(ctx context.Context, tx *sql.Tx, g domain.Gig) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO gigs(id,user_id,category,description,starting_price,tags_json,delivery_days,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		g.ID, g.UserID, g.Category, g.Description, g.StartingPrice, marshalStrings(g.Tags), g.DeliveryDays, g.CreatedAt)
	return err
}

func (r Repo) GetGig(ctx context.Context, id string) (domain.Gig, error) {
	return scanGig(r.DB.QueryRowContext(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id=?`, id))
}

func (r Repo) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+gigColumns+` FROM gigs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Gig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

const orderColumns = `id,gig_id,client_id,student_id,description,budget,deadline,status,accepted_at,submission_message,revision_messages_json,rated,created_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	var revisions string
	var accepted, submission sql.NullString
	err := row.Scan(&o.ID, &o.GigID, &o.ClientID, &o.StudentID, &o.Description, &o.Budget, &o.Deadline,
		&o.Status, &accepted, &submission, &revisions, &o.Rated, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	o.RevisionMessages = unmarshalStrings(revisions)
	o.AcceptedAt = stringPtr(accepted)
	o.SubmissionMessage = stringPtr(submission)
	return o, nil
}

func (r Repo) InsertOrderTx(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO orders(id,gig_id,client_id,student_id,description,budget,deadline,status,accepted_at,submission_message,revision_messages_json,rated,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.GigID, o.ClientID, o.StudentID, o.Description, o.Budget, o.Deadline, o.Status,
		nullableStringPtr(o.AcceptedAt), nullableStringPtr(o.SubmissionMessage), marshalStrings(o.RevisionMessages),
		o.Rated, o.CreatedAt)
	return err
}

func (r Repo) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id))
}

func (r Repo) UpdateOrderTx(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status=?, accepted_at=?, submission_message=?, revision_messages_json=?, rated=? WHERE id=?`,
		o.Status, nullableStringPtr(o.AcceptedAt), nullableStringPtr(o.SubmissionMessage),
		marshalStrings(o.RevisionMessages), o.Rated, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders returns orders a user is involved in, on either side of the deal.
// An empty userID lists everything.
func (r Repo) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if userID != "" {
		query += ` WHERE client_id=? OR student_id=?`
		args = append(args, userID, userID)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
