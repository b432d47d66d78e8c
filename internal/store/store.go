// Package store records printed orders and aggregates them into sales reports
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNoSales is returned when a report window contains no orders
var ErrNoSales = errors.New("no sales in period")

// Store wraps the order database
type Store struct {
	db *gorm.DB
}

// Open connects to sqlite (file path DSN) or postgres and migrates the schema
func Open(driver, dsn string, debug bool) (*Store, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == "postgres" {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
	} else {
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Order{}, &OrderItem{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordOrder stores a cashier document. Reprinting the same order id is a
// no-op; recorded reports whether a new row was written.
func (s *Store) RecordOrder(ctx context.Context, doc *receiptformat.Document) (recorded bool, err error) {
	if doc == nil || doc.OrderID == "" {
		return false, errors.New("order id is required")
	}
	order := orderFromDocument(doc)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		recorded = true
		if len(order.Items) == 0 {
			return nil
		}
		return tx.Create(&order.Items).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to record order %s: %w", doc.OrderID, err)
	}
	return recorded, nil
}

// GetOrder loads an order with its items
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type productRow struct {
	Name     string
	Variant  string
	Quantity int64
	Revenue  int64
}

// ProductSales aggregates sold items in [from, to), best sellers first
func (s *Store) ProductSales(ctx context.Context, from, to time.Time) ([]receiptformat.ProductSales, error) {
	var rows []productRow
	err := s.db.WithContext(ctx).Model(&OrderItem{}).
		Select("order_items.name AS name, order_items.variant AS variant, "+
			"CAST(SUM(order_items.quantity) AS BIGINT) AS quantity, "+
			"CAST(SUM(order_items.line_total) AS BIGINT) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.ordered_at >= ? AND orders.ordered_at < ?", from.Unix(), to.Unix()).
		Group("order_items.name, order_items.variant").
		Order("revenue DESC, order_items.name, order_items.variant").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate product sales: %w", err)
	}

	sales := make([]receiptformat.ProductSales, len(rows))
	for i, r := range rows {
		item := receiptformat.Item{Name: r.Name, Variant: r.Variant}
		sales[i] = receiptformat.ProductSales{
			Name:     item.DisplayName(),
			Quantity: int(r.Quantity),
			Revenue:  r.Revenue,
		}
	}
	return sales, nil
}

type paymentRow struct {
	PaymentMethod string
	Count         int64
	Amount        int64
	Discount      int64
	PromoCount    int64
}

// PaymentSummary totals orders per payment method in [from, to), in the
// checkout display order of the methods
func (s *Store) PaymentSummary(ctx context.Context, from, to time.Time) ([]receiptformat.PaymentTotal, error) {
	rows, err := s.paymentRows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totals := make([]receiptformat.PaymentTotal, len(rows))
	for i, r := range rows {
		totals[i] = receiptformat.PaymentTotal{
			Method: receiptformat.PaymentMethod(r.PaymentMethod),
			Count:  int(r.Count),
			Amount: r.Amount,
		}
	}
	return totals, nil
}

func (s *Store) paymentRows(ctx context.Context, from, to time.Time) ([]paymentRow, error) {
	var rows []paymentRow
	err := s.db.WithContext(ctx).Model(&Order{}).
		Select("payment_method, COUNT(*) AS count, "+
			"CAST(SUM(total) AS BIGINT) AS amount, "+
			"CAST(SUM(discount) AS BIGINT) AS discount, "+
			"SUM(CASE WHEN discount > 0 THEN 1 ELSE 0 END) AS promo_count").
		Where("ordered_at >= ? AND ordered_at < ?", from.Unix(), to.Unix()).
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarise payments: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := methodRank(rows[i].PaymentMethod), methodRank(rows[j].PaymentMethod)
		if a != b {
			return a < b
		}
		return rows[i].PaymentMethod < rows[j].PaymentMethod
	})
	return rows, nil
}

func methodRank(method string) int {
	for i, m := range receiptformat.PaymentMethods {
		if string(m) == method {
			return i
		}
	}
	return len(receiptformat.PaymentMethods)
}

// SalesReport builds a sales report document for [from, to). printedBy is
// shown in the report footer.
func (s *Store) SalesReport(ctx context.Context, from, to time.Time, period, printedBy string) (*receiptformat.Document, error) {
	payments, err := s.paymentRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	doc := &receiptformat.Document{
		Period:      period,
		CashierName: printedBy,
		Timestamp:   time.Now(),
	}
	for _, p := range payments {
		doc.Transactions += int(p.Count)
		doc.Discount += p.Discount
		doc.PromoTransactions += int(p.PromoCount)
		doc.Total += p.Amount
		doc.Payments = append(doc.Payments, receiptformat.PaymentTotal{
			Method: receiptformat.PaymentMethod(p.PaymentMethod),
			Count:  int(p.Count),
			Amount: p.Amount,
		})
	}
	if doc.Transactions == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSales, period)
	}

	doc.Sales, err = s.ProductSales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	log.Printf("📊 Sales report %s: %d transactions, %d products", period, doc.Transactions, len(doc.Sales))
	return doc, nil
}
