package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/appschool/internal/app/models"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/dberrors"
	"github.com/yigit/appschool/internal/pkg/logger"
)

// notificationColumns lists the notification columns, optionally qualified by a table alias
func notificationColumns(alias string) []string {
	cols := []string{"id", "professor_id", "title", "message", "type", "is_active", "expires_at", "created_at", "updated_at"}
	if alias == "" {
		return cols
	}
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = alias + "." + c
	}
	return qualified
}

func scanNotification(row pgx.Row, extra ...any) (*models.Notification, error) {
	var n models.Notification
	dest := []any{
		&n.ID, &n.ProfessorID, &n.Title, &n.Message, &n.Type,
		&n.IsActive, &n.ExpiresAt, &n.CreatedAt, &n.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &n, nil
}

// NotificationRepository stores notifications in PostgreSQL
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a notification and fills in its generated fields
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	sql, args, err := r.sb.Insert("notifications").
		Columns("professor_id", "title", "message", "type", "is_active", "expires_at").
		Values(n.ProfessorID, n.Title, n.Message, n.Type, n.IsActive, n.ExpiresAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create notification query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrProfessorNotFound
		}
		return fmt.Errorf("error creating notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by its ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns("")...).
		From("notifications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get notification query: %w", err)
	}

	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error retrieving notification: %w", err)
	}

	return n, nil
}

// ListByProfessor returns all notifications of a professor, including inactive ones
func (r *NotificationRepository) ListByProfessor(ctx context.Context, professorID int64) ([]*models.Notification, error) {
	sql, args, err := r.sb.Select(notificationColumns("")...).
		From("notifications").
		Where(squirrel.Eq{"professor_id": professorID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) selectActiveWithOwner() squirrel.SelectBuilder {
	return r.sb.Select(append(notificationColumns("n"), "u.name AS owner_name")...).
		From("notifications n").
		Join("users u ON u.id = n.professor_id").
		Where(squirrel.Eq{"n.is_active": true}).
		OrderBy("n.created_at DESC", "n.id DESC")
}

// ListActiveWithOwner returns every active notification joined with its author's name
func (r *NotificationRepository) ListActiveWithOwner(ctx context.Context) ([]*models.NotificationWithOwner, error) {
	return r.queryWithOwner(ctx, r.selectActiveWithOwner())
}

// ListUnreadActiveWithOwner returns the active notifications studentID has not read yet
func (r *NotificationRepository) ListUnreadActiveWithOwner(ctx context.Context, studentID int64) ([]*models.NotificationWithOwner, error) {
	return r.queryWithOwner(ctx, r.selectUnreadActiveWithOwner(studentID))
}

// selectUnreadActiveWithOwner puts the join placeholder ahead of the WHERE
// arguments, squirrel numbers them in that order.
func (r *NotificationRepository) selectUnreadActiveWithOwner(studentID int64) squirrel.SelectBuilder {
	return r.selectActiveWithOwner().
		LeftJoin("notification_reads nr ON nr.notification_id = n.id AND nr.student_id = ?", studentID).
		Where("nr.notification_id IS NULL")
}

func (r *NotificationRepository) queryWithOwner(ctx context.Context, query squirrel.SelectBuilder) ([]*models.NotificationWithOwner, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build feed query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing active notifications: %w", err)
	}
	defer rows.Close()

	items := make([]*models.NotificationWithOwner, 0)
	for rows.Next() {
		var ownerName string
		n, err := scanNotification(rows, &ownerName)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		items = append(items, &models.NotificationWithOwner{Notification: *n, OwnerName: ownerName})
	}

	return items, rows.Err()
}

// updateQuery builds the guarded UPDATE for patch. updated_at is always set,
// so an empty patch still produces a valid statement.
func (r *NotificationRepository) updateQuery(id, callerID int64, patch models.NotificationPatch) (string, []interface{}, error) {
	query := r.sb.Update("notifications").Set("updated_at", squirrel.Expr("NOW()"))
	if patch.Title != nil {
		query = query.Set("title", *patch.Title)
	}
	if patch.Message != nil {
		query = query.Set("message", *patch.Message)
	}
	if patch.Type != nil {
		query = query.Set("type", *patch.Type)
	}
	if patch.IsActive != nil {
		query = query.Set("is_active", *patch.IsActive)
	}
	if patch.ExpiresAt != nil {
		query = query.Set("expires_at", *patch.ExpiresAt)
	}
	if patch.ClearExpiresAt {
		query = query.Set("expires_at", nil)
	}

	return query.
		Where(squirrel.Eq{"id": id, "professor_id": callerID}).
		Suffix("RETURNING " + strings.Join(notificationColumns(""), ", ")).
		ToSql()
}

// Update applies the non-nil fields of patch in a single statement guarded by
// the ownership predicate.
func (r *NotificationRepository) Update(ctx context.Context, id, callerID int64, patch models.NotificationPatch) (*models.Notification, error) {
	sql, args, err := r.updateQuery(id, callerID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to build update notification query: %w", err)
	}

	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrForeign(ctx, id)
		}
		return nil, fmt.Errorf("error updating notification: %w", err)
	}

	return n, nil
}

// Delete removes the notification if callerID owns it
func (r *NotificationRepository) Delete(ctx context.Context, id, callerID int64) error {
	sql, args, err := r.sb.Delete("notifications").
		Where(squirrel.Eq{"id": id, "professor_id": callerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete notification query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.missingOrForeign(ctx, id)
	}

	return nil
}

// missingOrForeign explains why a guarded write touched no row
func (r *NotificationRepository) missingOrForeign(ctx context.Context, id int64) error {
	var ownerID int64
	err := r.db.QueryRow(ctx, `SELECT professor_id FROM notifications WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotificationNotFound
		}
		return fmt.Errorf("error checking notification owner: %w", err)
	}
	return apperrors.ErrNotNotificationOwner
}

// MarkAsRead records that studentID read the notification
func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID, studentID int64) error {
	sql, args, err := r.sb.Insert("notification_reads").
		Columns("notification_id", "student_id").
		Values(notificationID, studentID).
		Suffix("ON CONFLICT (notification_id, student_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark as read query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		// the notification was deleted between the lookup and the insert
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrNotificationNotFound
		}
		return fmt.Errorf("error marking notification as read: %w", err)
	}

	return nil
}

// DeactivateExpired switches off active notifications that expired before now
func (r *NotificationRepository) DeactivateExpired(ctx context.Context, now time.Time) ([]int64, error) {
	sql, args, err := r.sb.Update("notifications").
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.NotEq{"expires_at": nil}).
		Where(squirrel.Lt{"expires_at": now}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build deactivate expired query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error deactivating expired notifications: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning expired id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		logger.Info().Int("count", len(ids)).Msg("Deactivated expired notifications")
	}
	return ids, nil
}
