package repo

import (
	"context"
	"database/sql"

	"gigline/internal/domain"
)

func (r Repo) InsertNotificationTx(ctx context.Context, tx *sql.Tx, n domain.Notification) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO notifications(id,user_id,message,read,link,created_at) VALUES (?,?,?,?,?,?)`,
		n.ID, n.UserID, n.Message, n.Read, nullable(n.Link), n.CreatedAt)
	return err
}

// ListNotifications returns a user's notifications newest first.
func (r Repo) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT id,user_id,message,read,link,created_at FROM notifications WHERE user_id=?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND read=0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &link, &n.CreatedAt); err != nil {
			return nil, err
		}
		if link.Valid {
			n.Link = link.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const (
	settingCurrentUser = "current_user"
	settingCurrentRole = "current_role"
)

func (r Repo) getSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return v, err
}

func (r Repo) setSetting(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO settings(key,value) VALUES (?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (r Repo) GetSession(ctx context.Context) (domain.Session, error) {
	userID, err := r.getSetting(ctx, settingCurrentUser)
	if err != nil {
		return domain.Session{}, err
	}
	role, err := r.getSetting(ctx, settingCurrentRole)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{UserID: userID, Role: domain.Role(role)}, nil
}

func (r Repo) SetSessionUser(ctx context.Context, userID string) error {
	return r.setSetting(ctx, settingCurrentUser, userID)
}

func (r Repo) SetSessionRole(ctx context.Context, role domain.Role) error {
	return r.setSetting(ctx, settingCurrentRole, string(role))
}
