package storage

import (
	"database/sql"
	"fmt"
	"shaadibiyah/internal/config"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	_ "github.com/lib/pq"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a new PostgreSQL store using an existing database connection
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	log.Info("DATABASE", "Creating payment storage with existing database connection")

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}

	log.Info("DATABASE", "Payment storage initialized successfully with existing connection")
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "PostgreSQL connection established and tables initialized")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "postgresql", "Creating payments table if not exists")

	paymentsQuery := `
    CREATE TABLE IF NOT EXISTS payments (
        payment_id VARCHAR(36) PRIMARY KEY,
        booking_id VARCHAR(36) NOT NULL,
        status VARCHAR(50) NOT NULL,
        amount DECIMAL(12,2) NOT NULL,
        currency VARCHAR(10) NOT NULL,
        intent_id VARCHAR(100),
        transaction_id VARCHAR(100),
        created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_date TIMESTAMP
    );
    `

	if _, err := s.db.Exec(paymentsQuery); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);",
		"CREATE INDEX IF NOT EXISTS idx_payments_created_date ON payments(created_date);",
	}

	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "postgresql", "Payment tables and indexes ready")
	return nil
}

// SavePayment saves a payment to the database
func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "postgresql", fmt.Sprintf("Saving payment %s", payment.PaymentID))

	query := `
    INSERT INTO payments (
        payment_id, booking_id, status, amount, currency, intent_id, transaction_id, created_date
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := s.db.Exec(query,
		payment.PaymentID, payment.BookingID, payment.Status, payment.Amount,
		payment.Currency, payment.IntentID, payment.TransactionID, payment.CreatedDate,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to save payment: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment %s saved successfully", payment.PaymentID))
	return nil
}

// GetPayment retrieves a payment by ID
func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching payment %s", id))

	query := `
    SELECT payment_id, booking_id, status, amount, currency,
           COALESCE(intent_id, ''), COALESCE(transaction_id, ''), created_date
    FROM payments WHERE payment_id = $1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, id).Scan(
		&payment.PaymentID, &payment.BookingID, &payment.Status, &payment.Amount,
		&payment.Currency, &payment.IntentID, &payment.TransactionID, &payment.CreatedDate,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "postgresql", fmt.Sprintf("Payment %s not found", id))
			return nil, fmt.Errorf("payment not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment %s: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment %s fetched successfully", id))
	return payment, nil
}

// UpdatePayment updates a payment in the database
func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	s.log.LogDatabase("UPDATE", "postgresql", fmt.Sprintf("Updating payment %s", payment.PaymentID))

	query := `
    UPDATE payments SET
        status = $1, intent_id = $2, transaction_id = $3, updated_date = CURRENT_TIMESTAMP
    WHERE payment_id = $4
    `

	_, err := s.db.Exec(query,
		payment.Status, payment.IntentID, payment.TransactionID, payment.PaymentID,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment %s updated successfully", payment.PaymentID))
	return nil
}

// ListPayments retrieves payments for a specific booking
func (s *PostgreSQLStore) ListPayments(bookingID string, limit, offset int) ([]*models.Payment, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Listing payments for booking %s (limit: %d, offset: %d)", bookingID, limit, offset))

	query := `
    SELECT payment_id, booking_id, status, amount, currency,
           COALESCE(intent_id, ''), COALESCE(transaction_id, ''), created_date
    FROM payments
    WHERE booking_id = $1
    ORDER BY created_date DESC
    LIMIT $2 OFFSET $3
    `

	rows, err := s.db.Query(query, bookingID, limit, offset)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list payments: %s", err.Error()))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		err := rows.Scan(
			&payment.PaymentID, &payment.BookingID, &payment.Status, &payment.Amount,
			&payment.Currency, &payment.IntentID, &payment.TransactionID, &payment.CreatedDate,
		)

		if err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to scan payment row: %s", err.Error()))
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		payments = append(payments, payment)
	}

	if err = rows.Err(); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Row iteration error: %s", err.Error()))
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Listed %d payments for booking %s", len(payments), bookingID))
	return payments, nil
}

// GetPaymentByBookingID retrieves the most recent payment for a booking
func (s *PostgreSQLStore) GetPaymentByBookingID(bookingID string) (*models.Payment, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching payment for booking %s", bookingID))

	query := `
    SELECT payment_id, booking_id, status, amount, currency,
           COALESCE(intent_id, ''), COALESCE(transaction_id, ''), created_date
    FROM payments WHERE booking_id = $1
    ORDER BY created_date DESC
    LIMIT 1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, bookingID).Scan(
		&payment.PaymentID, &payment.BookingID, &payment.Status, &payment.Amount,
		&payment.Currency, &payment.IntentID, &payment.TransactionID, &payment.CreatedDate,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "postgresql", fmt.Sprintf("Payment not found for booking %s", bookingID))
			return nil, fmt.Errorf("payment not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment for booking %s: %s", bookingID, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment %s fetched successfully for booking %s", payment.PaymentID, bookingID))
	return payment, nil
}

// GetBookingSnapshot reads the booking row owned by the marketplace service.
func (s *PostgreSQLStore) GetBookingSnapshot(bookingID string) (*models.BookingSnapshot, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching booking snapshot %s", bookingID))

	query := `
    SELECT booking_id, customer_id, status, payment_status, total_amount
    FROM bookings WHERE booking_id = $1
    `

	snap := &models.BookingSnapshot{}
	err := s.db.QueryRow(query, bookingID).Scan(
		&snap.BookingID, &snap.CustomerID, &snap.Status, &snap.PaymentStatus, &snap.TotalAmount,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "postgresql", fmt.Sprintf("Booking %s not found", bookingID))
			return nil, fmt.Errorf("booking not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get booking %s: %s", bookingID, err.Error()))
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return snap, nil
}

func (s *PostgreSQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "postgresql", "Closing PostgreSQL connection")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
