// Package store persists a finished trip plan to PostgreSQL: one row in
// trips, one row per LogDay, one row per DutySegmentRecord within a day,
// and one row per Stop. A replan deletes and re-inserts a trip's log days
// and stops inside a single transaction, so a reader never observes a
// partially replaced plan.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fleetops/hos-planner/pkg/database"
	"github.com/fleetops/hos-planner/pkg/domain"
)

// TripStore persists PersistencePlans against a pgx-backed database.
type TripStore struct {
	db database.DB
}

// New builds a TripStore over db.
func New(db database.DB) *TripStore {
	return &TripStore{db: db}
}

// Save persists plan for the given request, replacing any existing plan for
// the same trip ID. Deleting the old log days/stops and inserting the new
// ones happens inside one transaction: either the whole replan commits, or
// none of it does.
func (s *TripStore) Save(ctx context.Context, req domain.TripRequest, plan domain.PersistencePlan) error {
	return database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		if err := upsertTrip(ctx, tx, req, plan); err != nil {
			return err
		}
		if err := deleteChildren(ctx, tx, plan.TripID); err != nil {
			return err
		}
		if err := insertLogDays(ctx, tx, plan.TripID, plan.LogDays); err != nil {
			return err
		}
		if err := insertStops(ctx, tx, plan.TripID, plan.Stops); err != nil {
			return err
		}
		return nil
	})
}

func upsertTrip(ctx context.Context, tx pgx.Tx, req domain.TripRequest, plan domain.PersistencePlan) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO trips (id, origin_query, pickup_query, destination_query, start_time, total_miles, driving_hours, total_trip_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			origin_query = EXCLUDED.origin_query,
			pickup_query = EXCLUDED.pickup_query,
			destination_query = EXCLUDED.destination_query,
			start_time = EXCLUDED.start_time,
			total_miles = EXCLUDED.total_miles,
			driving_hours = EXCLUDED.driving_hours,
			total_trip_hours = EXCLUDED.total_trip_hours,
			updated_at = now()
	`,
		plan.TripID, req.OriginQuery, req.PickupQuery, req.DestinationQuery, req.StartTime,
		plan.TotalMiles, plan.DrivingHours, plan.TotalTripHours,
	)
	if err != nil {
		return fmt.Errorf("upsert trip %s: %w", plan.TripID, err)
	}
	return nil
}

// deleteChildren removes a trip's existing log_days (cascading to
// duty_segments) and stops, ahead of a fresh insert.
func deleteChildren(ctx context.Context, tx pgx.Tx, tripID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM log_days WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("delete log days for trip %s: %w", tripID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stops WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("delete stops for trip %s: %w", tripID, err)
	}
	return nil
}

func insertLogDays(ctx context.Context, tx pgx.Tx, tripID string, days []domain.LogDayRecord) error {
	for _, day := range days {
		var logDayID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO log_days (trip_id, date, driving_hours, on_duty_hours, off_duty_hours, sleeper_hours)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, tripID, day.Date, day.DrivingHours, day.OnDutyHours, day.OffDutyHours, day.SleeperHours).Scan(&logDayID)
		if err != nil {
			return fmt.Errorf("insert log day %s for trip %s: %w", day.Date, tripID, err)
		}

		for seq, seg := range day.Segments {
			_, err := tx.Exec(ctx, `
				INSERT INTO duty_segments (log_day_id, seq, start_time, end_time, status, city, state, remark)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, logDayID, seq, seg.Start, seg.End, string(seg.Status), seg.City, seg.State, seg.Remark)
			if err != nil {
				return fmt.Errorf("insert duty segment %d of log day %s: %w", seq, day.Date, err)
			}
		}
	}
	return nil
}

func insertStops(ctx context.Context, tx pgx.Tx, tripID string, stops []domain.Stop) error {
	for seq, stop := range stops {
		_, err := tx.Exec(ctx, `
			INSERT INTO stops (trip_id, seq, stop_type, lat, lng, city, state, scheduled_arrival, scheduled_departure, cumulative_miles)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, tripID, seq, string(stop.Type), stop.Location.Lat, stop.Location.Lng, stop.Location.City, stop.Location.State,
			stop.ScheduledArrival, stop.ScheduledDeparture, stop.CumulativeMiles)
		if err != nil {
			return fmt.Errorf("insert stop %d for trip %s: %w", seq, tripID, err)
		}
	}
	return nil
}

// Get loads a previously persisted plan by trip ID.
func (s *TripStore) Get(ctx context.Context, tripID string) (domain.PersistencePlan, error) {
	var plan domain.PersistencePlan
	plan.TripID = tripID

	err := s.db.QueryRow(ctx, `
		SELECT total_miles, driving_hours, total_trip_hours FROM trips WHERE id = $1
	`, tripID).Scan(&plan.TotalMiles, &plan.DrivingHours, &plan.TotalTripHours)
	if err != nil {
		return domain.PersistencePlan{}, fmt.Errorf("load trip %s: %w", tripID, err)
	}

	days, err := s.loadLogDays(ctx, tripID)
	if err != nil {
		return domain.PersistencePlan{}, err
	}
	plan.LogDays = days

	stops, err := s.loadStops(ctx, tripID)
	if err != nil {
		return domain.PersistencePlan{}, err
	}
	plan.Stops = stops

	return plan, nil
}

func (s *TripStore) loadLogDays(ctx context.Context, tripID string) ([]domain.LogDayRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, date, driving_hours, on_duty_hours, off_duty_hours, sleeper_hours
		FROM log_days WHERE trip_id = $1 ORDER BY date
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query log days for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var days []domain.LogDayRecord
	var ids []int64
	for rows.Next() {
		var id int64
		var day domain.LogDayRecord
		if err := rows.Scan(&id, &day.Date, &day.DrivingHours, &day.OnDutyHours, &day.OffDutyHours, &day.SleeperHours); err != nil {
			return nil, fmt.Errorf("scan log day row: %w", err)
		}
		days = append(days, day)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log day rows: %w", err)
	}

	for i, id := range ids {
		segments, err := s.loadSegments(ctx, id)
		if err != nil {
			return nil, err
		}
		days[i].Segments = segments
	}
	return days, nil
}

func (s *TripStore) loadSegments(ctx context.Context, logDayID int64) ([]domain.DutySegmentRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT start_time, end_time, status, city, state, remark
		FROM duty_segments WHERE log_day_id = $1 ORDER BY seq
	`, logDayID)
	if err != nil {
		return nil, fmt.Errorf("query duty segments for log day %d: %w", logDayID, err)
	}
	defer rows.Close()

	var segments []domain.DutySegmentRecord
	for rows.Next() {
		var seg domain.DutySegmentRecord
		var status string
		if err := rows.Scan(&seg.Start, &seg.End, &status, &seg.City, &seg.State, &seg.Remark); err != nil {
			return nil, fmt.Errorf("scan duty segment row: %w", err)
		}
		seg.Status = domain.DutyStatus(status)
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (s *TripStore) loadStops(ctx context.Context, tripID string) ([]domain.Stop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT stop_type, lat, lng, city, state, scheduled_arrival, scheduled_departure, cumulative_miles
		FROM stops WHERE trip_id = $1 ORDER BY seq
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query stops for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var stops []domain.Stop
	for rows.Next() {
		var stop domain.Stop
		var stopType string
		if err := rows.Scan(&stopType, &stop.Location.Lat, &stop.Location.Lng, &stop.Location.City, &stop.Location.State,
			&stop.ScheduledArrival, &stop.ScheduledDeparture, &stop.CumulativeMiles); err != nil {
			return nil, fmt.Errorf("scan stop row: %w", err)
		}
		stop.Type = domain.StopType(stopType)
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

// Delete removes a trip and all its log days/stops (cascading).
func (s *TripStore) Delete(ctx context.Context, tripID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", tripID, err)
	}
	return nil
}
