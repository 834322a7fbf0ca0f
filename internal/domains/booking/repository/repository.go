package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sewa/infras/otel"
	"sewa/infras/postgres"
	"sewa/internal/domains/booking/model"
	"sewa/shared/constant"
	gDto "sewa/shared/dto"
	"sewa/shared/logger"
	gRepo "sewa/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)

	// CreateChecked runs the conflict check and the insert as a single
	// transaction holding a row lock on the ad, so two overlapping
	// requests can never both pass the check. It returns the blocking
	// bookings instead of inserting when the range is taken.
	CreateChecked(ctx context.Context, booking model.Booking) ([]model.Booking, error)

	// FindOverlapping returns the non-terminal bookings overlapping
	// [start, end) on the given ad, using the half-open interval test.
	FindOverlapping(ctx context.Context, adID string, start, end time.Time) ([]model.Booking, error)

	// TransitionStatus performs the compare-and-swap
	// `UPDATE ... WHERE id = ? AND status = ?` and reports whether the
	// row was actually moved. A false return means the precondition no
	// longer held: some concurrent caller got there first.
	TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, fields map[string]any) (bool, error)

	// ReleaseFunds settles a booking at most once. It re-reads the row
	// under a lock and only runs payout when the locked row is still
	// confirmed and unreleased; the payout id is recorded in the same
	// transaction, so a payout error rolls the claim back and the call
	// stays retryable. Concurrent callers block on the lock until the
	// outcome is committed.
	ReleaseFunds(ctx context.Context, id, actor string, releasedAt time.Time, payout func(booking model.Booking) (string, error)) (model.Booking, bool, error)

	// FindStalePending lists pending bookings created before the cutoff.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error)

	// FindFinishedConfirmed lists confirmed, funds-released bookings
	// whose end date has passed.
	FindFinishedConfirmed(ctx context.Context, cutoff time.Time, limit int) ([]model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func blockingStatusList() string {
	quoted := make([]string, len(model.BlockingStatuses))
	for i, status := range model.BlockingStatuses {
		quoted[i] = "'" + status + "'"
	}

	return strings.Join(quoted, ", ")
}

const lockAdQuery = `SELECT id FROM ads WHERE id = $1 FOR UPDATE`

func overlapQuery() string {
	return fmt.Sprintf(`SELECT * FROM bookings
		WHERE ad_id = :ad_id
		  AND status IN (%s)
		  AND start_date < :end_date
		  AND end_date > :start_date
		ORDER BY start_date ASC`, blockingStatusList())
}

func (repo *repositoryImpl) CreateChecked(ctx context.Context, booking model.Booking) (conflicts []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CreateChecked")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if err != nil || len(conflicts) > 0 {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("failed to roll back booking transaction")
			}
		}
	}()

	// Serializes concurrent creates per ad; the conflict check below is
	// only trustworthy while this lock is held.
	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, lockAdQuery, booking.AdID); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to lock ad row (%s): %w", booking.AdID, err)
	}

	query := overlapQuery()
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows, err := tx.NamedQuery(query, map[string]any{
		"ad_id":      booking.AdID,
		"start_date": booking.StartDate,
		"end_date":   booking.EndDate,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to check booking conflicts: %w", err)
	}

	for rows.Next() {
		var existing model.Booking
		if err = rows.StructScan(&existing); err != nil {
			rows.Close()
			logger.ErrorWithStack(err)

			return nil, fmt.Errorf("failed to scan conflicting booking: %w", err)
		}

		conflicts = append(conflicts, existing)
	}

	rows.Close()

	if err = rows.Err(); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to iterate conflicting bookings: %w", err)
	}

	if len(conflicts) > 0 {
		return conflicts, nil
	}

	if err = repo.InsertTx(ctx, tx, booking); err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return nil, nil
}

func (repo *repositoryImpl) FindOverlapping(ctx context.Context, adID string, start, end time.Time) (bookings []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindOverlapping")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := overlapQuery()
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to prepare overlap statement: %w", err)
	}
	defer prepare.Close()

	err = prepare.SelectContext(ctx, &bookings, map[string]any{
		"ad_id":      adID,
		"start_date": start,
		"end_date":   end,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}

	return bookings, nil
}

func (repo *repositoryImpl) TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, fields map[string]any) (moved bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.TransitionStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	args := map[string]any{
		"id":          id,
		"from_status": fromStatus,
		"to_status":   toStatus,
	}

	setClauses := []string{"status = :to_status"}

	for col := range maps.Keys(fields) {
		setClauses = append(setClauses, fmt.Sprintf("%s = :%s", col, col))
	}

	maps.Copy(args, fields)

	query := fmt.Sprintf("UPDATE bookings SET %s WHERE id = :id AND status = :from_status", strings.Join(setClauses, ", "))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.NamedExecContext(ctx, query, args)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to transition booking %s to %s: %w", id, toStatus, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

const lockBookingQuery = `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`

const releaseFundsQuery = `UPDATE bookings
	SET funds_released = TRUE,
	    funds_released_at = :released_at,
	    payout_id = :payout_id,
	    modified_at = :released_at,
	    modified_by = :modified_by
	WHERE id = :id`

func (repo *repositoryImpl) ReleaseFunds(ctx context.Context, id, actor string, releasedAt time.Time, payout func(booking model.Booking) (string, error)) (booking model.Booking, released bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.ReleaseFunds")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return booking, false, fmt.Errorf("failed to begin release transaction: %w", err)
	}

	defer func() {
		if err != nil || !released {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("failed to roll back release transaction")
			}
		}
	}()

	// The lock serializes concurrent release attempts on the same
	// booking; the loser re-reads a row with funds_released already set
	// and never reaches the payout call.
	if err = tx.GetContext(ctx, &booking, lockBookingQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, false, nil
		}

		logger.ErrorWithStack(err)

		return booking, false, fmt.Errorf("failed to lock booking row (%s): %w", id, err)
	}

	if booking.Status != model.StatusConfirmed || booking.FundsReleased {
		return booking, false, nil
	}

	payoutID, err := payout(booking)
	if err != nil {
		return booking, false, fmt.Errorf("payout failed for booking %s: %w", id, err)
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, releaseFundsQuery)

	_, err = tx.NamedExecContext(ctx, releaseFundsQuery, map[string]any{
		"id":          id,
		"payout_id":   payoutID,
		"released_at": releasedAt,
		"modified_by": actor,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return booking, false, fmt.Errorf("failed to record fund release for booking %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return booking, false, fmt.Errorf("failed to commit release transaction: %w", err)
	}

	booking.FundsReleased = true
	booking.FundsReleasedAt = sql.NullTime{Time: releasedAt, Valid: true}
	booking.PayoutID = sql.NullString{String: payoutID, Valid: true}

	return booking, true, nil
}

const stalePendingQuery = `SELECT * FROM bookings
	WHERE status = :status
	  AND created_at < :cutoff
	ORDER BY created_at ASC
	LIMIT :limit`

func (repo *repositoryImpl) FindStalePending(ctx context.Context, cutoff time.Time, limit int) (bookings []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindStalePending")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, stalePendingQuery)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, stalePendingQuery)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to prepare stale pending statement: %w", err)
	}
	defer prepare.Close()

	err = prepare.SelectContext(ctx, &bookings, map[string]any{
		"status": model.StatusPending,
		"cutoff": cutoff,
		"limit":  limit,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to find stale pending bookings: %w", err)
	}

	return bookings, nil
}

const finishedConfirmedQuery = `SELECT * FROM bookings
	WHERE status = :status
	  AND funds_released = TRUE
	  AND end_date <= :cutoff
	ORDER BY end_date ASC
	LIMIT :limit`

func (repo *repositoryImpl) FindFinishedConfirmed(ctx context.Context, cutoff time.Time, limit int) (bookings []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindFinishedConfirmed")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, finishedConfirmedQuery)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, finishedConfirmedQuery)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to prepare finished confirmed statement: %w", err)
	}
	defer prepare.Close()

	err = prepare.SelectContext(ctx, &bookings, map[string]any{
		"status": model.StatusConfirmed,
		"cutoff": cutoff,
		"limit":  limit,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to find finished confirmed bookings: %w", err)
	}

	return bookings, nil
}
