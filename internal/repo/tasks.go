package repo

import (
	"context"
	"database/sql"

	"gigline/internal/domain"
)

const taskColumns = `id,creator_id,title,description,required_skills_json,budget,deadline,urgent,status,selected_applicant_id,rated,accepted_at,submission_message,revision_messages_json,created_at`

func scanTask(row interface{ Scan(...any) error }) (domain.Task, error) {
	var t domain.Task
	var skills, revisions string
	var selected, accepted, submission sql.NullString
	err := row.Scan(&t.ID, &t.CreatorID, &t.Title, &t.Description, &skills, &t.Budget, &t.Deadline,
		&t.Urgent, &t.Status, &selected, &t.Rated, &accepted, &submission, &revisions, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.RequiredSkills = unmarshalStrings(skills)
	t.RevisionMessages = unmarshalStrings(revisions)
	t.SelectedApplicantID = stringPtr(selected)
	t.AcceptedAt = stringPtr(accepted)
	t.SubmissionMessage = stringPtr(submission)
	return t, nil
}

func (r Repo) InsertTaskTx(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(id,creator_id,title,description,required_skills_json,budget,deadline,urgent,status,selected_applicant_id,rated,accepted_at,submission_message,revision_messages_json,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.CreatorID, t.Title, t.Description, marshalStrings(t.RequiredSkills), t.Budget, t.Deadline,
		t.Urgent, t.Status, nullableStringPtr(t.SelectedApplicantID), t.Rated, nullableStringPtr(t.AcceptedAt),
		nullableStringPtr(t.SubmissionMessage), marshalStrings(t.RevisionMessages), t.CreatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

func (r Repo) UpdateTaskTx(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status=?, selected_applicant_id=?, rated=?, accepted_at=?, submission_message=?, revision_messages_json=? WHERE id=?`,
		t.Status, nullableStringPtr(t.SelectedApplicantID), t.Rated, nullableStringPtr(t.AcceptedAt),
		nullableStringPtr(t.SubmissionMessage), marshalStrings(t.RevisionMessages), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTasks returns tasks in insertion order; display layers reorder.
func (r Repo) ListTasks(ctx context.Context, status string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func scanApplication(row interface{ Scan(...any) error }) (domain.Application, error) {
	var a domain.Application
	var message sql.NullString
	err := row.Scan(&a.ID, &a.TaskID, &a.ApplicantID, &message, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if message.Valid {
		a.Message = message.String
	}
	return a, nil
}

func (r Repo) InsertApplicationTx(ctx context.Context, tx *sql.Tx, a domain.Application) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO applications(id,task_id,applicant_id,message,status,created_at) VALUES (?,?,?,?,?,?)`,
		a.ID, a.TaskID, a.ApplicantID, nullable(a.Message), a.Status, a.CreatedAt)
	return err
}

func (r Repo) GetApplicationByApplicant(ctx context.Context, taskID, applicantID string) (domain.Application, error) {
	return scanApplication(r.DB.QueryRowContext(ctx,
		`SELECT id,task_id,applicant_id,message,status,created_at FROM applications WHERE task_id=? AND applicant_id=?`,
		taskID, applicantID))
}

func (r Repo) ListApplications(ctx context.Context, taskID string) ([]domain.Application, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,task_id,applicant_id,message,status,created_at FROM applications WHERE task_id=? ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// RelabelApplicationsTx resolves every application on a task in one statement:
// the chosen applicant becomes selected, everyone else rejected.
func (r Repo) RelabelApplicationsTx(ctx context.Context, tx *sql.Tx, taskID, selectedApplicantID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE applications SET status=CASE WHEN applicant_id=? THEN 'selected' ELSE 'rejected' END WHERE task_id=?`,
		selectedApplicantID, taskID)
	return err
}
