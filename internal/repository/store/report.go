package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/reservation"
)

// ReportRepository is the database/sql implementation of
// recommendation.Repository.
type ReportRepository struct {
	db     *sql.DB
	driver string
}

// NewReportRepository creates a repository bound to the given driver.
func NewReportRepository(db *sql.DB, driver string) recommendation.Repository {
	return &ReportRepository{db: db, driver: driver}
}

func (r *ReportRepository) q(query string) string {
	return rebind(r.driver, query)
}

func (r *ReportRepository) CreateReport(ctx context.Context, rep *recommendation.Report) error {
	query := r.q(`
		INSERT INTO reports (id, filename, report_type, status, total_rows, parsed_rows, skipped_rows, total_savings, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.Filename, rep.ReportType, rep.Status,
		rep.TotalRows, rep.ParsedRows, rep.SkippedRows,
		rep.TotalSavings.String(), rep.Currency, rep.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create report", err)
	}
	return nil
}

func (r *ReportRepository) GetReport(ctx context.Context, id string) (*recommendation.Report, error) {
	query := r.q(`
		SELECT id, filename, report_type, status, total_rows, parsed_rows, skipped_rows, total_savings, currency, created_at
		FROM reports WHERE id = ?
	`)

	var rep recommendation.Report
	var savings string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rep.ID, &rep.Filename, &rep.ReportType, &rep.Status,
		&rep.TotalRows, &rep.ParsedRows, &rep.SkippedRows,
		&savings, &rep.Currency, &rep.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("report")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get report", err)
	}

	rep.TotalSavings, err = decimal.NewFromString(savings)
	if err != nil {
		rep.TotalSavings = decimal.Zero
	}
	return &rep, nil
}

func (r *ReportRepository) ListReports(ctx context.Context, limit, offset int) ([]*recommendation.Report, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("failed to count reports", err)
	}

	query := r.q(`
		SELECT id, filename, report_type, status, total_rows, parsed_rows, skipped_rows, total_savings, currency, created_at
		FROM reports ORDER BY created_at DESC LIMIT ? OFFSET ?
	`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("failed to list reports", err)
	}
	defer rows.Close()

	var reports []*recommendation.Report
	for rows.Next() {
		var rep recommendation.Report
		var savings string
		if err := rows.Scan(
			&rep.ID, &rep.Filename, &rep.ReportType, &rep.Status,
			&rep.TotalRows, &rep.ParsedRows, &rep.SkippedRows,
			&savings, &rep.Currency, &rep.CreatedAt,
		); err != nil {
			return nil, 0, errors.DatabaseError("failed to scan report", err)
		}
		rep.TotalSavings, _ = decimal.NewFromString(savings)
		reports = append(reports, &rep)
	}

	return reports, total, rows.Err()
}

func (r *ReportRepository) DeleteReport(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM recommendations WHERE report_id = ?`), id); err != nil {
		return errors.DatabaseError("failed to delete recommendations", err)
	}

	result, err := r.db.ExecContext(ctx, r.q(`DELETE FROM reports WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete report", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("report")
	}
	return nil
}

// storedAnalysis keeps full term fidelity in the database; the wire-level
// null collapsing happens only at the JSON API boundary.
type storedAnalysis struct {
	IsReservation bool   `json:"is_reservation"`
	Type          string `json:"type"`
	IsSavingsPlan bool   `json:"is_savings_plan"`
	TermKind      int    `json:"term_kind"`
	TermYears     int    `json:"term_years"`
	Category      string `json:"category"`
}

func encodeAnalysis(a reservation.Analysis) string {
	b, _ := json.Marshal(storedAnalysis{
		IsReservation: a.IsReservation,
		Type:          string(a.Type),
		IsSavingsPlan: a.IsSavingsPlan,
		TermKind:      int(a.Term.Kind),
		TermYears:     a.Term.Years,
		Category:      string(a.Category),
	})
	return string(b)
}

func decodeAnalysis(s string) reservation.Analysis {
	var stored storedAnalysis
	_ = json.Unmarshal([]byte(s), &stored)
	return reservation.Analysis{
		IsReservation: stored.IsReservation,
		Type:          reservation.Type(stored.Type),
		IsSavingsPlan: stored.IsSavingsPlan,
		Term:          reservation.Term{Kind: reservation.TermKind(stored.TermKind), Years: stored.TermYears},
		Category:      reservation.CommitmentCategory(stored.Category),
	}
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func (r *ReportRepository) BulkInsert(ctx context.Context, reportID string, recs []*recommendation.Enriched) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := r.q(`
		INSERT INTO recommendations (
			id, report_id, row_index, category, impact, recommendation,
			resource_name, resource_type, resource_group, subscription_id, subscription_name,
			potential_savings, currency, potential_benefits, retirement_date, retiring_feature,
			advisor_score_impact, metadata, analysis, total_commitment_savings, monthly_savings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.DatabaseError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		metadataJSON, _ := json.Marshal(rec.Metadata)

		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), reportID, rec.RowIndex,
			string(rec.Category), string(rec.Impact), rec.Recommendation.Recommendation,
			rec.ResourceName, rec.ResourceType, rec.ResourceGroup,
			rec.SubscriptionID, rec.SubscriptionName,
			nullDecimal(rec.PotentialSavings), rec.Currency, rec.PotentialBenefits,
			nullTime(rec.RetirementDate), rec.RetiringFeature,
			nullDecimal(rec.AdvisorScoreImpact), string(metadataJSON),
			encodeAnalysis(rec.Reservation),
			nullDecimal(rec.TotalCommitmentSavings), nullDecimal(rec.MonthlySavings),
		)
		if err != nil {
			return errors.DatabaseError("failed to insert recommendation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit bulk insert", err)
	}
	return nil
}

func (r *ReportRepository) ListByReport(ctx context.Context, reportID string, limit, offset int) ([]*recommendation.Enriched, int64, error) {
	var total int64
	countQuery := r.q(`SELECT COUNT(*) FROM recommendations WHERE report_id = ?`)
	if err := r.db.QueryRowContext(ctx, countQuery, reportID).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("failed to count recommendations", err)
	}

	query := r.q(`
		SELECT row_index, category, impact, recommendation,
			resource_name, resource_type, resource_group, subscription_id, subscription_name,
			potential_savings, currency, potential_benefits, retirement_date, retiring_feature,
			advisor_score_impact, metadata, analysis, total_commitment_savings, monthly_savings
		FROM recommendations WHERE report_id = ? ORDER BY row_index LIMIT ? OFFSET ?
	`)

	rows, err := r.db.QueryContext(ctx, query, reportID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("failed to list recommendations", err)
	}
	defer rows.Close()

	var recs []*recommendation.Enriched
	for rows.Next() {
		var rec recommendation.Enriched
		var category, impact string
		var savings, scoreImpact, totalCommitment, monthly sql.NullString
		var retirement sql.NullTime
		var metadataJSON, analysisJSON string

		if err := rows.Scan(
			&rec.RowIndex, &category, &impact, &rec.Recommendation.Recommendation,
			&rec.ResourceName, &rec.ResourceType, &rec.ResourceGroup,
			&rec.SubscriptionID, &rec.SubscriptionName,
			&savings, &rec.Currency, &rec.PotentialBenefits, &retirement, &rec.RetiringFeature,
			&scoreImpact, &metadataJSON, &analysisJSON, &totalCommitment, &monthly,
		); err != nil {
			return nil, 0, errors.DatabaseError("failed to scan recommendation", err)
		}

		rec.Category = recommendation.Category(category)
		rec.Impact = recommendation.Impact(impact)
		rec.PotentialSavings = scanDecimal(savings)
		rec.AdvisorScoreImpact = scanDecimal(scoreImpact)
		rec.TotalCommitmentSavings = scanDecimal(totalCommitment)
		rec.MonthlySavings = scanDecimal(monthly)
		if retirement.Valid {
			t := retirement.Time
			rec.RetirementDate = &t
		}
		if metadataJSON != "" && metadataJSON != "null" {
			_ = json.Unmarshal([]byte(metadataJSON), &rec.Metadata)
		}
		rec.Reservation = decodeAnalysis(analysisJSON)

		recs = append(recs, &rec)
	}

	return recs, total, rows.Err()
}

func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	delRecs := r.q(`DELETE FROM recommendations WHERE report_id IN (SELECT id FROM reports WHERE created_at < ?)`)
	if _, err := r.db.ExecContext(ctx, delRecs, cutoff); err != nil {
		return 0, errors.DatabaseError("failed to delete stale recommendations", err)
	}

	result, err := r.db.ExecContext(ctx, r.q(`DELETE FROM reports WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, errors.DatabaseError("failed to delete stale reports", err)
	}
	return result.RowsAffected()
}

func scanDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}
