package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DailySales is the per-day revenue rollup over PAID bills.
type DailySales struct {
	Day       time.Time
	BillCount int64
	Subtotal  decimal.Decimal
	GST       decimal.Decimal
	Incentive decimal.Decimal
	Total     decimal.Decimal
}

// PaymentSummary is the take per payment mode over a period.
type PaymentSummary struct {
	Mode      string
	BillCount int64
	Total     decimal.Decimal
}

// StaffIncentive is the incentive earned per staff member over a period.
type StaffIncentive struct {
	StaffName string
	BillCount int64
	Incentive decimal.Decimal
}

// ReportsStore runs read-only aggregations over settled bills.
type ReportsStore struct {
	db DBTX
}

// NewReportsStore creates a ReportsStore over db.
func NewReportsStore(db DBTX) *ReportsStore {
	return &ReportsStore{db: db}
}

// DailySalesBetween aggregates PAID bills per calendar day in [from, to).
// Cancelled and still-printed bills never count toward revenue.
func (s *ReportsStore) DailySalesBetween(ctx context.Context, from, to time.Time) ([]*DailySales, error) {
	rows, err := s.db.Query(ctx,
		`SELECT date_trunc('day', created_at) AS day, count(*),
			sum(subtotal), sum(gst), sum(incentive), sum(total)
		 FROM bills
		 WHERE status = 'PAID' AND created_at >= $1 AND created_at < $2
		 GROUP BY day ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	var out []*DailySales
	for rows.Next() {
		var (
			d                               DailySales
			subtotal, gst, incentive, total pgtype.Numeric
		)
		if err := rows.Scan(&d.Day, &d.BillCount, &subtotal, &gst, &incentive, &total); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		d.Subtotal = numericToDecimal(subtotal)
		d.GST = numericToDecimal(gst)
		d.Incentive = numericToDecimal(incentive)
		d.Total = numericToDecimal(total)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// PaymentSummaryBetween totals PAID bills per payment mode in [from, to).
func (s *ReportsStore) PaymentSummaryBetween(ctx context.Context, from, to time.Time) ([]*PaymentSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT payment_mode, count(*), sum(total)
		 FROM bills
		 WHERE status = 'PAID' AND created_at >= $1 AND created_at < $2
		 GROUP BY payment_mode ORDER BY payment_mode`, from, to)
	if err != nil {
		return nil, fmt.Errorf("payment summary: %w", err)
	}
	defer rows.Close()

	var out []*PaymentSummary
	for rows.Next() {
		var (
			p     PaymentSummary
			total pgtype.Numeric
		)
		if err := rows.Scan(&p.Mode, &p.BillCount, &total); err != nil {
			return nil, fmt.Errorf("scan payment summary: %w", err)
		}
		p.Total = numericToDecimal(total)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// StaffIncentivesBetween sums incentive per staff name over PAID bills in
// [from, to). Bills without a staff reference group under 'Unknown'.
func (s *ReportsStore) StaffIncentivesBetween(ctx context.Context, from, to time.Time) ([]*StaffIncentive, error) {
	rows, err := s.db.Query(ctx,
		`SELECT coalesce(staff->>'name', 'Unknown'), count(*), sum(incentive)
		 FROM bills
		 WHERE status = 'PAID' AND created_at >= $1 AND created_at < $2
		 GROUP BY 1 ORDER BY 3 DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("staff incentives: %w", err)
	}
	defer rows.Close()

	var out []*StaffIncentive
	for rows.Next() {
		var (
			si        StaffIncentive
			incentive pgtype.Numeric
		)
		if err := rows.Scan(&si.StaffName, &si.BillCount, &incentive); err != nil {
			return nil, fmt.Errorf("scan staff incentive: %w", err)
		}
		si.Incentive = numericToDecimal(incentive)
		out = append(out, &si)
	}
	return out, rows.Err()
}
