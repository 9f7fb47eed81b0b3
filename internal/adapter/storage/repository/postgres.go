package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateRaffle(ctx context.Context, raffle *domain.Raffle) (*domain.Raffle, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.
			Insert("raffles").
			Columns("title", "price_per_number", "total_numbers", "status", "draw_at").
			Values(raffle.Title, raffle.PricePerNumber, raffle.TotalNumbers, raffle.Status, raffle.DrawAt).
			Suffix("returning id")

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&raffle.ID)
		if err != nil {
			return err
		}

		// the complete number set exists from raffle creation on
		_, err = tx.Exec(ctx,
			`insert into numbers (raffle_id, value) select $1, generate_series(1, $2)`,
			raffle.ID, raffle.TotalNumbers)
		return err
	})

	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return raffle, nil
}

func (r *Repository) ReadRaffle(ctx context.Context, raffleID uint64) (*domain.Raffle, error) {
	statement := r.db.QueryBuilder.
		Select("id", "title", "price_per_number", "total_numbers",
			"sold_count", "revenue_total", "participant_count",
			"status", "draw_at", "winning_number").
		From("raffles").
		Where(sq.Eq{"id": raffleID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	raffle := domain.Raffle{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&raffle.ID,
		&raffle.Title,
		&raffle.PricePerNumber,
		&raffle.TotalNumbers,
		&raffle.SoldCount,
		&raffle.RevenueTotal,
		&raffle.ParticipantCount,
		&raffle.Status,
		&raffle.DrawAt,
		&raffle.WinningNumber,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &raffle, nil
}

func (r *Repository) UpdateRaffleStats(ctx context.Context, raffleID uint64, stats domain.RaffleStats) error {
	statement := r.db.QueryBuilder.
		Update("raffles").
		Set("sold_count", stats.SoldCount).
		Set("revenue_total", stats.RevenueTotal).
		Set("participant_count", stats.ParticipantCount).
		Where(sq.Eq{"id": raffleID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}
	return nil
}

func (r *Repository) CountNumbers(ctx context.Context, raffleID uint64, status domain.NumberStatus) (int, error) {
	statement := r.db.QueryBuilder.
		Select("count(*)").
		From("numbers").
		Where(sq.Eq{"raffle_id": raffleID, "status": status})

	sql, args, err := statement.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) ListNumbers(ctx context.Context, raffleID uint64, status domain.NumberStatus) ([]*domain.Number, error) {
	statement := r.db.QueryBuilder.
		Select("id", "raffle_id", "value", "status", "owner_id", "order_id", "reserved_at").
		From("numbers").
		Where(sq.Eq{"raffle_id": raffleID, "status": status}).
		OrderBy("value")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Number, 0)
	for rows.Next() {
		number := domain.Number{}
		err := rows.Scan(
			&number.ID,
			&number.RaffleID,
			&number.Value,
			&number.Status,
			&number.OwnerID,
			&number.OrderID,
			&number.ReservedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &number)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return list, nil
}

// CreateOrderReservingNumbers allocates the lowest available values to the
// order and inserts it, all inside one transaction. The raffle row is
// locked first, which serializes competing allocations over the same
// number pool and makes the ascending selection deterministic.
func (r *Repository) CreateOrderReservingNumbers(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var raffleID uint64
		err := tx.QueryRow(ctx,
			`select id from raffles where id = $1 for update`, order.RaffleID).Scan(&raffleID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrDataNotFound
			}
			return err
		}

		rows, err := tx.Query(ctx,
			`select value from numbers
			  where raffle_id = $1 and status = $2
			  order by value
			  limit $3`,
			order.RaffleID, domain.NumberStatusAvailable, order.RequestedQuantity)
		if err != nil {
			return err
		}
		values := make([]int32, 0, order.RequestedQuantity)
		for rows.Next() {
			var v int32
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return err
			}
			values = append(values, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(values) < order.RequestedQuantity {
			return &domain.InsufficientNumbersError{
				Requested: order.RequestedQuantity,
				Available: len(values),
			}
		}

		order.Status = domain.OrderStatusReserved
		order.NumberValues = make([]int, len(values))
		for i, v := range values {
			order.NumberValues[i] = int(v)
		}

		statement := r.db.QueryBuilder.
			Insert("orders").
			Columns("raffle_id", "buyer_id", "requested_quantity", "number_values",
				"total_amount", "status", "created_at", "expires_at").
			Values(order.RaffleID, order.BuyerID, order.RequestedQuantity, values,
				order.TotalAmount, order.Status, order.CreatedAt, order.ExpiresAt).
			Suffix("returning id")

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, sql, args...).Scan(&order.ID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`update numbers
			    set status = $1, owner_id = $2, order_id = $3, reserved_at = $4
			  where raffle_id = $5 and value = any($6) and status = $7`,
			domain.NumberStatusReserved, order.BuyerID, order.ID, order.CreatedAt,
			order.RaffleID, values, domain.NumberStatusAvailable)
		if err != nil {
			return err
		}
		if int(tag.RowsAffected()) != len(values) {
			// somebody slipped past the raffle lock, abort the allocation
			return domain.ErrTransient
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const orderColumns = `id, raffle_id, buyer_id, requested_quantity, number_values,
	total_amount, status, payment_reference, payment_code, created_at, expires_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{}
	var values []int32
	err := row.Scan(
		&order.ID,
		&order.RaffleID,
		&order.BuyerID,
		&order.RequestedQuantity,
		&values,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentReference,
		&order.PaymentCode,
		&order.CreatedAt,
		&order.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	order.NumberValues = make([]int, len(values))
	for i, v := range values {
		order.NumberValues[i] = int(v)
	}
	return &order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		`select `+orderColumns+` from orders where id = $1`, orderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) listOrders(ctx context.Context, sql string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID uint64) ([]*domain.Order, error) {
	return r.listOrders(ctx,
		`select `+orderColumns+` from orders where buyer_id = $1 order by created_at desc`,
		buyerID)
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, raffleID uint64, statuses []domain.OrderStatus) ([]*domain.Order, error) {
	st := make([]string, len(statuses))
	for i, s := range statuses {
		st[i] = string(s)
	}
	return r.listOrders(ctx,
		`select `+orderColumns+` from orders where raffle_id = $1 and status = any($2) order by id`,
		raffleID, st)
}

func (r *Repository) ListOrdersDue(ctx context.Context, before time.Time) ([]*domain.Order, error) {
	return r.listOrders(ctx,
		`select `+orderColumns+` from orders
		  where status = any($1) and expires_at < $2 order by expires_at`,
		[]string{string(domain.OrderStatusReserved), string(domain.OrderStatusAwaitingPayment)},
		before)
}

// UpdateOrderTx re-reads the order with a row lock, applies fn and then the
// number transitions implied by the resulting status, all in one
// transaction. Settlement marks the held numbers sold; reclaim releases
// them and clears the linkage. The order's number_values snapshot is never
// touched.
func (r *Repository) UpdateOrderTx(ctx context.Context, orderID uint64, fn port.UpdateOrderFn) (*domain.Order, error) {
	var updated *domain.Order

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		order, err := scanOrder(tx.QueryRow(ctx,
			`select `+orderColumns+` from orders where id = $1 for update`, orderID))
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrDataNotFound
			}
			return err
		}

		prev := order.Status
		if err := fn(order); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`update orders set status = $1, payment_reference = $2, payment_code = $3 where id = $4`,
			order.Status, order.PaymentReference, order.PaymentCode, order.ID)
		if err != nil {
			return err
		}

		switch {
		case order.Status == domain.OrderStatusPaid && prev != domain.OrderStatusPaid:
			_, err = tx.Exec(ctx,
				`update numbers set status = $1 where order_id = $2 and status = $3`,
				domain.NumberStatusSold, order.ID, domain.NumberStatusReserved)
		case (order.Status == domain.OrderStatusExpired || order.Status == domain.OrderStatusCancelled) &&
			prev != domain.OrderStatusExpired && prev != domain.OrderStatusCancelled:
			_, err = tx.Exec(ctx,
				`update numbers
				    set status = $1, owner_id = null, order_id = null, reserved_at = null
				  where order_id = $2 and status = $3`,
				domain.NumberStatusAvailable, order.ID, domain.NumberStatusReserved)
		}
		if err != nil {
			return err
		}

		updated = order
		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Insert("users").
		Columns("login", "password").
		Values(user.Login, user.Password).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select("id", "login", "password").
		From("users").
		Where(sq.Eq{"login": login})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Login,
		&user.Password,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}
