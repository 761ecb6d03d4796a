package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the postgres-backed store. Line items, delivery addresses and
// payment payloads live in jsonb columns.
type Database struct {
	DB *pgxpool.Pool
}

func NewPGDatabase(ctx context.Context, url string) (*Database, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, svcerror.New(
			svcerror.ErrDatabaseError,
			svcerror.WithOp("Database.New"),
			svcerror.WithMsg("connect to postgres"),
			svcerror.WithCause(err),
		)
	}
	return &Database{DB: pool}, nil
}

func (d *Database) Close() {
	d.DB.Close()
}

func dbErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp(op),
			svcerror.WithMsg("resource not found"),
		)
	}
	return svcerror.New(
		svcerror.ErrDatabaseError,
		svcerror.WithOp(op),
		svcerror.WithCause(err),
		svcerror.WithTime(time.Now().UTC()),
	)
}

// ORDERS

func (d *Database) SaveOrder(ctx context.Context, order models.Order) error {
	query := `INSERT INTO pedidos(id, cliente_id, restaurante_id, itens, total, endereco_entrega, status, created_at)
			  VALUES($1, $2, $3, $4, $5, $6, $7, $8);`

	items, err := json.Marshal(order.Items)
	if err != nil {
		return dbErr("Database.SaveOrder", err)
	}
	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return dbErr("Database.SaveOrder", err)
	}

	if _, err := d.DB.Exec(ctx, query,
		order.ID, order.CustomerID, order.RestaurantID,
		items, order.Total, address, string(order.Status), order.CreatedAt); err != nil {
		return dbErr("Database.SaveOrder", err)
	}
	return nil
}

func (d *Database) scanOrder(row pgx.Row) (models.Order, error) {
	var order models.Order
	var items, address []byte
	var status string
	var updated *time.Time

	err := row.Scan(&order.ID, &order.CustomerID, &order.RestaurantID,
		&items, &order.Total, &address, &status, &order.CreatedAt, &updated)
	if err != nil {
		return order, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return order, err
	}
	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return order, err
	}
	order.Status = models.OrderStatus(status)
	if updated != nil {
		order.UpdatedAt = *updated
	}
	return order, nil
}

const orderColumns = `id, cliente_id, restaurante_id, itens, total, endereco_entrega, status, created_at, updated_at`

func (d *Database) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pedidos WHERE id = $1;`
	order, err := d.scanOrder(d.DB.QueryRow(ctx, query, orderID))
	if err != nil {
		return order, dbErr("Database.GetOrder", err)
	}
	return order, nil
}

func (d *Database) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := d.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, dbErr("Database.ListOrders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := d.scanOrder(rows)
		if err != nil {
			return nil, dbErr("Database.ListOrders", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (d *Database) ListOrders(ctx context.Context) ([]models.Order, error) {
	return d.listOrders(ctx, `SELECT `+orderColumns+` FROM pedidos ORDER BY created_at;`)
}

func (d *Database) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return d.listOrders(ctx, `SELECT `+orderColumns+` FROM pedidos WHERE cliente_id = $1 ORDER BY created_at;`, customerID)
}

func (d *Database) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	return d.listOrders(ctx, `SELECT `+orderColumns+` FROM pedidos WHERE restaurante_id = $1 ORDER BY created_at;`, restaurantID)
}

func (d *Database) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	query := `UPDATE pedidos SET status = $1, updated_at = $2 WHERE id = $3;`
	tag, err := d.DB.Exec(ctx, query, string(status), time.Now().UTC(), orderID)
	if err != nil {
		return dbErr("Database.UpdateOrderStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.UpdateOrderStatus", pgx.ErrNoRows)
	}
	return nil
}

func (d *Database) DeleteOrder(ctx context.Context, orderID string) error {
	tag, err := d.DB.Exec(ctx, `DELETE FROM pedidos WHERE id = $1;`, orderID)
	if err != nil {
		return dbErr("Database.DeleteOrder", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.DeleteOrder", pgx.ErrNoRows)
	}
	return nil
}

// PAYMENTS

const paymentColumns = `id, pedido_id, cliente_id, valor, metodo_pagamento, status, transacao_id, dados_pagamento, created_at, updated_at`

func (d *Database) SavePayment(ctx context.Context, payment models.Payment) error {
	query := `INSERT INTO pagamentos(` + paymentColumns + `)
			  VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	payload, err := json.Marshal(payment.Payload)
	if err != nil {
		return dbErr("Database.SavePayment", err)
	}

	var updated *time.Time
	if !payment.UpdatedAt.IsZero() {
		updated = &payment.UpdatedAt
	}

	if _, err := d.DB.Exec(ctx, query,
		payment.ID, payment.OrderID, payment.CustomerID, payment.Amount,
		payment.Method, string(payment.Status), payment.TransactionID,
		payload, payment.CreatedAt, updated); err != nil {
		return dbErr("Database.SavePayment", err)
	}
	return nil
}

func (d *Database) scanPayment(row pgx.Row) (models.Payment, error) {
	var payment models.Payment
	var payload []byte
	var status string
	var txn *string
	var updated *time.Time

	err := row.Scan(&payment.ID, &payment.OrderID, &payment.CustomerID,
		&payment.Amount, &payment.Method, &status, &txn, &payload,
		&payment.CreatedAt, &updated)
	if err != nil {
		return payment, err
	}

	payment.Status = models.PaymentStatus(status)
	if txn != nil {
		payment.TransactionID = *txn
	}
	if updated != nil {
		payment.UpdatedAt = *updated
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &payment.Payload); err != nil {
			return payment, err
		}
	}
	return payment, nil
}

func (d *Database) GetPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM pagamentos WHERE id = $1;`
	payment, err := d.scanPayment(d.DB.QueryRow(ctx, query, paymentID))
	if err != nil {
		return payment, dbErr("Database.GetPayment", err)
	}
	return payment, nil
}

func (d *Database) GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM pagamentos WHERE pedido_id = $1;`
	payment, err := d.scanPayment(d.DB.QueryRow(ctx, query, orderID))
	if err != nil {
		return payment, dbErr("Database.GetPaymentByOrder", err)
	}
	return payment, nil
}

func (d *Database) ListPayments(ctx context.Context) ([]models.Payment, error) {
	rows, err := d.DB.Query(ctx, `SELECT `+paymentColumns+` FROM pagamentos ORDER BY created_at;`)
	if err != nil {
		return nil, dbErr("Database.ListPayments", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := d.scanPayment(rows)
		if err != nil {
			return nil, dbErr("Database.ListPayments", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (d *Database) UpdatePayment(ctx context.Context, payment models.Payment) error {
	query := `UPDATE pagamentos
			  SET status = $1, transacao_id = $2, updated_at = $3
			  WHERE id = $4;`
	tag, err := d.DB.Exec(ctx, query,
		string(payment.Status), payment.TransactionID, time.Now().UTC(), payment.ID)
	if err != nil {
		return dbErr("Database.UpdatePayment", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.UpdatePayment", pgx.ErrNoRows)
	}
	return nil
}

func (d *Database) DeletePayment(ctx context.Context, paymentID string) error {
	tag, err := d.DB.Exec(ctx, `DELETE FROM pagamentos WHERE id = $1;`, paymentID)
	if err != nil {
		return dbErr("Database.DeletePayment", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.DeletePayment", pgx.ErrNoRows)
	}
	return nil
}

// REFUNDS

func (d *Database) SaveRefund(ctx context.Context, refund models.Refund) error {
	query := `INSERT INTO estornos(id, pagamento_id, valor_estornado, motivo, created_at)
			  VALUES($1, $2, $3, $4, $5);`
	if _, err := d.DB.Exec(ctx, query,
		refund.ID, refund.PaymentID, refund.Amount, refund.Reason, refund.CreatedAt); err != nil {
		return dbErr("Database.SaveRefund", err)
	}
	return nil
}

func (d *Database) ListRefundsByPayment(ctx context.Context, paymentID string) ([]models.Refund, error) {
	query := `SELECT id, pagamento_id, valor_estornado, motivo, created_at
			  FROM estornos WHERE pagamento_id = $1 ORDER BY created_at;`
	rows, err := d.DB.Query(ctx, query, paymentID)
	if err != nil {
		return nil, dbErr("Database.ListRefundsByPayment", err)
	}
	defer rows.Close()

	var refunds []models.Refund
	for rows.Next() {
		var refund models.Refund
		if err := rows.Scan(&refund.ID, &refund.PaymentID, &refund.Amount, &refund.Reason, &refund.CreatedAt); err != nil {
			return nil, dbErr("Database.ListRefundsByPayment", err)
		}
		refunds = append(refunds, refund)
	}
	return refunds, rows.Err()
}

// RESTAURANTS

func (d *Database) SaveRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	query := `INSERT INTO restaurantes(id, nome, cnpj, endereco, ativo, created_at)
			  VALUES($1, $2, $3, $4, $5, $6);`
	if _, err := d.DB.Exec(ctx, query,
		restaurant.ID, restaurant.Name, restaurant.CNPJ,
		restaurant.Address, restaurant.Active, restaurant.CreatedAt); err != nil {
		return dbErr("Database.SaveRestaurant", err)
	}
	return nil
}

func (d *Database) GetRestaurant(ctx context.Context, restaurantID string) (models.Restaurant, error) {
	query := `SELECT id, nome, cnpj, endereco, ativo, created_at FROM restaurantes WHERE id = $1;`
	var restaurant models.Restaurant
	err := d.DB.QueryRow(ctx, query, restaurantID).Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.CNPJ,
		&restaurant.Address, &restaurant.Active, &restaurant.CreatedAt)
	if err != nil {
		return restaurant, dbErr("Database.GetRestaurant", err)
	}
	return restaurant, nil
}

func (d *Database) GetRestaurantByCNPJ(ctx context.Context, cnpj string) (models.Restaurant, error) {
	query := `SELECT id, nome, cnpj, endereco, ativo, created_at FROM restaurantes WHERE cnpj = $1;`
	var restaurant models.Restaurant
	err := d.DB.QueryRow(ctx, query, cnpj).Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.CNPJ,
		&restaurant.Address, &restaurant.Active, &restaurant.CreatedAt)
	if err != nil {
		return restaurant, dbErr("Database.GetRestaurantByCNPJ", err)
	}
	return restaurant, nil
}

func (d *Database) UpdateRestaurant(ctx context.Context, restaurant models.Restaurant) error {
	query := `UPDATE restaurantes
			  SET nome = $1, endereco = $2, ativo = $3
			  WHERE id = $4;`
	tag, err := d.DB.Exec(ctx, query,
		restaurant.Name, restaurant.Address, restaurant.Active, restaurant.ID)
	if err != nil {
		return dbErr("Database.UpdateRestaurant", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.UpdateRestaurant", pgx.ErrNoRows)
	}
	return nil
}

func (d *Database) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := d.DB.Query(ctx, `SELECT id, nome, cnpj, endereco, ativo, created_at FROM restaurantes ORDER BY nome;`)
	if err != nil {
		return nil, dbErr("Database.ListRestaurants", err)
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		var restaurant models.Restaurant
		if err := rows.Scan(&restaurant.ID, &restaurant.Name, &restaurant.CNPJ,
			&restaurant.Address, &restaurant.Active, &restaurant.CreatedAt); err != nil {
			return nil, dbErr("Database.ListRestaurants", err)
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, rows.Err()
}

func (d *Database) DeleteRestaurant(ctx context.Context, restaurantID string) error {
	tag, err := d.DB.Exec(ctx, `DELETE FROM restaurantes WHERE id = $1;`, restaurantID)
	if err != nil {
		return dbErr("Database.DeleteRestaurant", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.DeleteRestaurant", pgx.ErrNoRows)
	}
	return nil
}

// PRODUCTS

func (d *Database) SaveProduct(ctx context.Context, product models.Product) error {
	query := `INSERT INTO produtos(id, restaurante_id, nome, descricao, categoria, preco, disponivel)
			  VALUES($1, $2, $3, $4, $5, $6, $7);`
	if _, err := d.DB.Exec(ctx, query,
		product.ID, product.RestaurantID, product.Name, product.Description,
		product.Category, product.Price, product.Available); err != nil {
		return dbErr("Database.SaveProduct", err)
	}
	return nil
}

func (d *Database) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	query := `SELECT id, restaurante_id, nome, descricao, categoria, preco, disponivel FROM produtos WHERE id = $1;`
	var product models.Product
	err := d.DB.QueryRow(ctx, query, productID).Scan(
		&product.ID, &product.RestaurantID, &product.Name, &product.Description,
		&product.Category, &product.Price, &product.Available)
	if err != nil {
		return product, dbErr("Database.GetProduct", err)
	}
	return product, nil
}

func (d *Database) ListProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error) {
	query := `SELECT id, restaurante_id, nome, descricao, categoria, preco, disponivel
			  FROM produtos WHERE restaurante_id = $1 ORDER BY nome;`
	rows, err := d.DB.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, dbErr("Database.ListProductsByRestaurant", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(&product.ID, &product.RestaurantID, &product.Name,
			&product.Description, &product.Category, &product.Price, &product.Available); err != nil {
			return nil, dbErr("Database.ListProductsByRestaurant", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (d *Database) UpdateProduct(ctx context.Context, product models.Product) error {
	query := `UPDATE produtos
			  SET nome = $1, descricao = $2, categoria = $3, preco = $4, disponivel = $5
			  WHERE id = $6;`
	tag, err := d.DB.Exec(ctx, query,
		product.Name, product.Description, product.Category,
		product.Price, product.Available, product.ID)
	if err != nil {
		return dbErr("Database.UpdateProduct", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.UpdateProduct", pgx.ErrNoRows)
	}
	return nil
}

func (d *Database) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := d.DB.Exec(ctx, `DELETE FROM produtos WHERE id = $1;`, productID)
	if err != nil {
		return dbErr("Database.DeleteProduct", err)
	}
	if tag.RowsAffected() == 0 {
		return dbErr("Database.DeleteProduct", pgx.ErrNoRows)
	}
	return nil
}
