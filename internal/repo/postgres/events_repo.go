package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/observability"
)

var errDuplicateID = apperr.Conflict("Event.DuplicateID", "an event with this id already exists")

const eventColumns = `id,
	title,
	description,
	type,
	status,
	date_range_start_date,
	date_range_end_date,
	location_latitude,
	location_longitude,
	address_street,
	address_city,
	address_postal_code,
	address_country,
	address_state,
	contact_phone,
	contact_email,
	special_instructions,
	entry_fee_amount,
	entry_fee_currency,
	early_bird_enabled,
	early_bird_offset_minutes,
	early_bird_fee_amount,
	early_bird_fee_currency,
	published_at,
	cancellation_reason,
	favorite_count,
	organizer_id,
	category_id,
	created_at,
	updated_at,
	is_deleted,
	deleted_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

// GetByID locks the row when called inside a transaction, so read-modify-write
// cycles on one event are serialized.
func (r *EventsRepo) GetByID(ctx context.Context, id string) (*event.Event, error) {
	var s event.Snapshot

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND NOT is_deleted`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	err := r.prom.ObserveDB("events.get_by_id", func() error {
		row := conn(ctx, r.pool).QueryRow(ctx, query, id)
		return scanSnapshot(row, &s)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrNotFound
		}
		return nil, err
	}

	return event.Restore(s)
}

func (r *EventsRepo) Add(ctx context.Context, e *event.Event) error {
	s := e.Snapshot()

	err := r.prom.ObserveDB("events.add", func() error {
		_, err := conn(ctx, r.pool).Exec(ctx,
			`INSERT INTO events (`+eventColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
				$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32)`,
			snapshotArgs(s)...)
		return err
	})
	if err != nil {
		if isUniqueViolation(err, "events_pkey") {
			return errDuplicateID
		}
		return err
	}

	return nil
}

func (r *EventsRepo) Update(ctx context.Context, e *event.Event) error {
	s := e.Snapshot()

	var rows int64
	err := r.prom.ObserveDB("events.update", func() error {
		tag, err := conn(ctx, r.pool).Exec(ctx,
			`UPDATE events SET
				title = $2,
				description = $3,
				type = $4,
				status = $5,
				date_range_start_date = $6,
				date_range_end_date = $7,
				location_latitude = $8,
				location_longitude = $9,
				address_street = $10,
				address_city = $11,
				address_postal_code = $12,
				address_country = $13,
				address_state = $14,
				contact_phone = $15,
				contact_email = $16,
				special_instructions = $17,
				entry_fee_amount = $18,
				entry_fee_currency = $19,
				early_bird_enabled = $20,
				early_bird_offset_minutes = $21,
				early_bird_fee_amount = $22,
				early_bird_fee_currency = $23,
				published_at = $24,
				cancellation_reason = $25,
				organizer_id = $26,
				category_id = $27,
				created_at = $28,
				updated_at = $29,
				is_deleted = $30,
				deleted_at = $31
			WHERE id = $1`,
			updateArgs(s)...)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}

	if rows == 0 {
		return event.ErrNotFound
	}
	return nil
}

// UpdateFavoriteCount is the only statement that writes favorite_count.
func (r *EventsRepo) UpdateFavoriteCount(ctx context.Context, id string, count int) error {
	var rows int64
	err := r.prom.ObserveDB("events.update_favorite_count", func() error {
		tag, err := conn(ctx, r.pool).Exec(ctx,
			`UPDATE events SET favorite_count = GREATEST($2, 0) WHERE id = $1 AND NOT is_deleted`,
			id, count,
		)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}

	if rows == 0 {
		return event.ErrNotFound
	}
	return nil
}

// Delete persists a soft delete. The row stays for reporting.
func (r *EventsRepo) Delete(ctx context.Context, e *event.Event) error {
	return r.Update(ctx, e)
}

func (r *EventsRepo) List(ctx context.Context, f event.Filter) ([]*event.Event, error) {
	where, args := buildEventWhere(f)

	query := `SELECT ` + eventColumns + ` FROM events` + where +
		` ORDER BY date_range_start_date ASC, id ASC`

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var out []*event.Event

	err := r.prom.ObserveDB("events.list", func() error {
		rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]*event.Event, 0, max(f.Limit, 0))
		for rows.Next() {
			var s event.Snapshot
			if err := scanSnapshot(rows, &s); err != nil {
				return err
			}

			e, err := event.Restore(s)
			if err != nil {
				return err
			}
			out = append(out, e)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *EventsRepo) Count(ctx context.Context, f event.Filter) (int, error) {
	where, args := buildEventWhere(f)

	var n int
	err := r.prom.ObserveDB("events.count", func() error {
		return conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&n)
	})
	return n, err
}

// buildEventWhere translates a Filter into SQL. It must agree with
// event.Filter.Matches.
func buildEventWhere(f event.Filter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeDeleted {
		conds = append(conds, "NOT is_deleted")
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}

	if f.EndsAfter != nil {
		conds = append(conds, "date_range_end_date > "+arg(*f.EndsAfter))
	}
	if f.EndsBefore != nil {
		conds = append(conds, "date_range_end_date < "+arg(*f.EndsBefore))
	}
	if f.StartsBefore != nil {
		conds = append(conds, "date_range_start_date < "+arg(*f.StartsBefore))
	}
	if f.From != nil {
		conds = append(conds, "date_range_start_date >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "date_range_start_date <= "+arg(*f.To))
	}

	if b := f.Box; b != nil {
		conds = append(conds, "location_latitude BETWEEN "+arg(b.MinLat)+" AND "+arg(b.MaxLat))

		if b.CrossesAntimeridian() {
			conds = append(conds, "(location_longitude >= "+arg(b.MinLon)+" OR location_longitude <= "+arg(b.MaxLon)+")")
		} else {
			conds = append(conds, "location_longitude BETWEEN "+arg(b.MinLon)+" AND "+arg(b.MaxLon))
		}
	}

	if f.OrganizerID != nil {
		conds = append(conds, "organizer_id = "+arg(*f.OrganizerID))
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = "+arg(*f.CategoryID))
	}
	if f.Type != nil {
		conds = append(conds, "type = "+arg(string(*f.Type)))
	}
	if f.ExcludeID != nil {
		conds = append(conds, "id <> "+arg(*f.ExcludeID))
	}
	if c := f.After; c != nil {
		conds = append(conds, "(date_range_start_date, id) > ("+arg(c.StartDate)+", "+arg(c.ID)+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func snapshotArgs(s event.Snapshot) []any {
	return []any{
		s.ID,
		s.Title,
		s.Description,
		string(s.Type),
		string(s.Status),
		s.DateRangeStartDate,
		s.DateRangeEndDate,
		s.LocationLatitude,
		s.LocationLongitude,
		s.AddressStreet,
		s.AddressCity,
		s.AddressPostalCode,
		s.AddressCountry,
		s.AddressState,
		s.ContactPhone,
		s.ContactEmail,
		s.SpecialInstructions,
		s.EntryFeeAmount,
		s.EntryFeeCurrency,
		s.EarlyBirdEnabled,
		s.EarlyBirdOffset,
		s.EarlyBirdFeeAmount,
		s.EarlyBirdFeeCurrency,
		s.PublishedAt,
		s.CancellationReason,
		s.FavoriteCount,
		s.OrganizerID,
		s.CategoryID,
		s.CreatedAt,
		s.UpdatedAt,
		s.IsDeleted,
		s.DeletedAt,
	}
}

// updateArgs is snapshotArgs without favorite_count.
func updateArgs(s event.Snapshot) []any {
	args := snapshotArgs(s)
	return append(args[:25:25], args[26:]...)
}

func scanSnapshot(row pgx.Row, s *event.Snapshot) error {
	var eventType, status string

	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&eventType,
		&status,
		&s.DateRangeStartDate,
		&s.DateRangeEndDate,
		&s.LocationLatitude,
		&s.LocationLongitude,
		&s.AddressStreet,
		&s.AddressCity,
		&s.AddressPostalCode,
		&s.AddressCountry,
		&s.AddressState,
		&s.ContactPhone,
		&s.ContactEmail,
		&s.SpecialInstructions,
		&s.EntryFeeAmount,
		&s.EntryFeeCurrency,
		&s.EarlyBirdEnabled,
		&s.EarlyBirdOffset,
		&s.EarlyBirdFeeAmount,
		&s.EarlyBirdFeeCurrency,
		&s.PublishedAt,
		&s.CancellationReason,
		&s.FavoriteCount,
		&s.OrganizerID,
		&s.CategoryID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.IsDeleted,
		&s.DeletedAt,
	)
	if err != nil {
		return err
	}

	s.Type = event.Type(eventType)
	s.Status = event.Status(status)
	return nil
}
