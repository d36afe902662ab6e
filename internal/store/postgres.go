package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrFolioTaken reports that another writer claimed the folio first.
var ErrFolioTaken = errors.New("folio already taken")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const orderColumns = `
	id, folio, status,
	client_name, client_contact, client_email, client_phone, location, service_date, contact_name,
	service_types, service_type_other,
	engineer_name, engineer_id, ticket_id,
	title, activities, findings,
	hours, cost, cost_not_applicable, cost_to_be_quoted,
	reschedule, reschedule_date, reschedule_time, reschedule_reason,
	signature_ref, internal_notes, email_sent,
	created_at, updated_at
`

func scanOrder(row interface{ Scan(dest ...any) error }) (ServiceOrder, error) {
	var o ServiceOrder
	var serviceDate, rescheduleDate sql.NullTime
	var typesRaw []byte
	err := row.Scan(
		&o.ID, &o.Folio, &o.Status,
		&o.ClientName, &o.ClientContact, &o.ClientEmail, &o.ClientPhone, &o.Location, &serviceDate, &o.ContactName,
		&typesRaw, &o.ServiceTypeOther,
		&o.EngineerName, &o.EngineerID, &o.TicketID,
		&o.Title, &o.Activities, &o.Findings,
		&o.Hours, &o.Cost, &o.CostNotApplicable, &o.CostToBeQuoted,
		&o.Reschedule, &rescheduleDate, &o.RescheduleTime, &o.RescheduleReason,
		&o.SignatureRef, &o.InternalNotes, &o.EmailSent,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return ServiceOrder{}, err
	}
	if serviceDate.Valid {
		t := serviceDate.Time
		o.ServiceDate = &t
	}
	if rescheduleDate.Valid {
		t := rescheduleDate.Time
		o.RescheduleDate = &t
	}
	if len(typesRaw) > 0 {
		if err := json.Unmarshal(typesRaw, &o.ServiceTypes); err != nil {
			return ServiceOrder{}, fmt.Errorf("decode service types: %w", err)
		}
	}
	return o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (ServiceOrder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE id=$1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return ServiceOrder{}, err
	}
	return order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, filter OrderFilter) ([]ServiceOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM service_orders`
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		p := arg(like)
		conditions = append(conditions, fmt.Sprintf(
			"(folio ILIKE %s OR title ILIKE %s OR client_name ILIKE %s OR engineer_name ILIKE %s)", p, p, p, p))
	}
	if c := strings.TrimSpace(filter.Client); c != "" {
		conditions = append(conditions, "client_name ILIKE "+arg("%"+c+"%"))
	}
	if e := strings.TrimSpace(filter.Engineer); e != "" {
		conditions = append(conditions, "engineer_name ILIKE "+arg("%"+e+"%"))
	}
	if st := strings.TrimSpace(filter.Status); st != "" {
		conditions = append(conditions, "status = "+arg(st))
	}
	if filter.From != nil {
		conditions = append(conditions, "service_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "service_date <= "+arg(*filter.To))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT " + arg(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []ServiceOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// LatestFolioWithPrefix returns the folio of the most recently created order
// whose folio starts with prefix, or "" when today has no orders yet.
func (s *PostgresStore) LatestFolioWithPrefix(ctx context.Context, prefix string) (string, error) {
	var folio string
	err := s.db.QueryRowContext(ctx, `
		SELECT folio FROM service_orders
		WHERE folio LIKE $1 || '%'
		ORDER BY created_at DESC
		LIMIT 1
	`, prefix).Scan(&folio)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest folio: %w", err)
	}
	return folio, nil
}

func isFolioConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "folio")
	}
	return false
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o ServiceOrder) error {
	typesRaw, err := encodeServiceTypes(o.ServiceTypes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO service_orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)
	`,
		o.ID, o.Folio, o.Status,
		o.ClientName, o.ClientContact, o.ClientEmail, o.ClientPhone, o.Location, nullTime(o.ServiceDate), o.ContactName,
		typesRaw, o.ServiceTypeOther,
		o.EngineerName, o.EngineerID, o.TicketID,
		o.Title, o.Activities, o.Findings,
		o.Hours, o.Cost, o.CostNotApplicable, o.CostToBeQuoted,
		o.Reschedule, nullTime(o.RescheduleDate), o.RescheduleTime, o.RescheduleReason,
		o.SignatureRef, o.InternalNotes, o.EmailSent,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isFolioConflict(err) {
			return ErrFolioTaken
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrder rewrites every mutable column. Folio and created_at are not
// touched once set.
func (s *PostgresStore) UpdateOrder(ctx context.Context, o ServiceOrder) error {
	typesRaw, err := encodeServiceTypes(o.ServiceTypes)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE service_orders SET
			folio = CASE WHEN folio = '' THEN $2 ELSE folio END,
			status=$3,
			client_name=$4, client_contact=$5, client_email=$6, client_phone=$7, location=$8,
			service_date=$9, contact_name=$10,
			service_types=$11, service_type_other=$12,
			engineer_name=$13, engineer_id=$14, ticket_id=$15,
			title=$16, activities=$17, findings=$18,
			hours=$19, cost=$20, cost_not_applicable=$21, cost_to_be_quoted=$22,
			reschedule=$23, reschedule_date=$24, reschedule_time=$25, reschedule_reason=$26,
			signature_ref=$27, internal_notes=$28, email_sent=$29,
			updated_at=NOW()
		WHERE id=$1
	`,
		o.ID, o.Folio, o.Status,
		o.ClientName, o.ClientContact, o.ClientEmail, o.ClientPhone, o.Location,
		nullTime(o.ServiceDate), o.ContactName,
		typesRaw, o.ServiceTypeOther,
		o.EngineerName, o.EngineerID, o.TicketID,
		o.Title, o.Activities, o.Findings,
		o.Hours, o.Cost, o.CostNotApplicable, o.CostToBeQuoted,
		o.Reschedule, nullTime(o.RescheduleDate), o.RescheduleTime, o.RescheduleReason,
		o.SignatureRef, o.InternalNotes, o.EmailSent,
	)
	if err != nil {
		if isFolioConflict(err) {
			return ErrFolioTaken
		}
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM service_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) SetEmailSent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE service_orders SET email_sent=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return nil
}

// --- children ---

func (s *PostgresStore) ReplaceEquipment(ctx context.Context, orderID string, items []EquipmentItem) error {
	return s.replaceChildren(ctx, orderID, "order_equipment", len(items), func(tx *sql.Tx) error {
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_equipment (id, order_id, brand, model, serial, description)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, item.ID, orderID, item.Brand, item.Model, item.Serial, item.Description); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) ReplaceMaterials(ctx context.Context, orderID string, items []MaterialItem) error {
	return s.replaceChildren(ctx, orderID, "order_materials", len(items), func(tx *sql.Tx) error {
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_materials (id, order_id, quantity, description, comments)
				VALUES ($1,$2,$3,$4,$5)
			`, item.ID, orderID, item.Quantity, item.Description, item.Comments); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) ReplaceCustody(ctx context.Context, orderID string, items []CustodyItem) error {
	return s.replaceChildren(ctx, orderID, "order_custody", len(items), func(tx *sql.Tx) error {
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_custody (id, order_id, quantity, description, comments)
				VALUES ($1,$2,$3,$4,$5)
			`, item.ID, orderID, item.Quantity, item.Description, item.Comments); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) replaceChildren(ctx context.Context, orderID, table string, count int, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE order_id=$1`, orderID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) ListEquipment(ctx context.Context, orderID string) ([]EquipmentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, brand, model, serial, description
		FROM order_equipment WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()
	var items []EquipmentItem
	for rows.Next() {
		var item EquipmentItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Brand, &item.Model, &item.Serial, &item.Description); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListMaterials(ctx context.Context, orderID string) ([]MaterialItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, quantity, description, comments
		FROM order_materials WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var items []MaterialItem
	for rows.Next() {
		var item MaterialItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Quantity, &item.Description, &item.Comments); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListCustody(ctx context.Context, orderID string) ([]CustodyItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, quantity, description, comments
		FROM order_custody WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list custody: %w", err)
	}
	defer rows.Close()
	var items []CustodyItem
	for rows.Next() {
		var item CustodyItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Quantity, &item.Description, &item.Comments); err != nil {
			return nil, fmt.Errorf("scan custody: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertEvidence(ctx context.Context, item EvidenceItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_evidence (id, order_id, file_ref, caption, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, item.ID, item.OrderID, item.FileRef, item.Caption, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvidence(ctx context.Context, orderID string) ([]EvidenceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, file_ref, caption, created_at
		FROM order_evidence WHERE order_id=$1 ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()
	var items []EvidenceItem
	for rows.Next() {
		var item EvidenceItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.FileRef, &item.Caption, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- identities ---

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, username, is_engineer, is_sales_contact, is_admin, signature_ref, created_at
		FROM identities ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()
	var identities []Identity
	for rows.Next() {
		var identity Identity
		if err := rows.Scan(
			&identity.ID, &identity.FullName, &identity.Username,
			&identity.IsEngineer, &identity.IsSalesContact, &identity.IsAdmin,
			&identity.SignatureRef, &identity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (s *PostgresStore) GetIdentity(ctx context.Context, id string) (Identity, error) {
	var identity Identity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, username, is_engineer, is_sales_contact, is_admin, signature_ref, created_at
		FROM identities WHERE id=$1
	`, id).Scan(
		&identity.ID, &identity.FullName, &identity.Username,
		&identity.IsEngineer, &identity.IsSalesContact, &identity.IsAdmin,
		&identity.SignatureRef, &identity.CreatedAt,
	)
	if err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// SetSignature replaces an identity's stored signature image wholesale.
func (s *PostgresStore) SetSignature(ctx context.Context, identityID, signatureRef string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE identities SET signature_ref=$2 WHERE id=$1`, identityID, signatureRef)
	if err != nil {
		return fmt.Errorf("set signature: %w", err)
	}
	return nil
}

func encodeServiceTypes(types []string) ([]byte, error) {
	if types == nil {
		types = []string{}
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return nil, fmt.Errorf("encode service types: %w", err)
	}
	return raw, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
