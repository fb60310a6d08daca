package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

type runRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) ports.RunRepository {
	return &runRepo{pool: pool}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	upload, report, bundle, verdict, err := marshalStages(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO migration_run
			(id, created_at, updated_at, source_tech, state, failure_reason,
			 work_dir, upload, report, bundle, verdict)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID, run.CreatedAt, run.UpdatedAt,
		run.SourceTech, string(run.State), run.FailureReason,
		run.WorkDir, upload, report, bundle, verdict,
	)
	if err != nil {
		return fmt.Errorf("create migration run: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, created_at, updated_at, source_tech, state, failure_reason,
			   work_dir, upload, report, bundle, verdict
		FROM migration_run
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get migration run by id: %w", err)
	}
	return run, nil
}

func (r *runRepo) Update(ctx context.Context, run *domain.Run) error {
	upload, report, bundle, verdict, err := marshalStages(run)
	if err != nil {
		return err
	}

	query := `
		UPDATE migration_run
		SET updated_at=$1, state=$2, failure_reason=$3,
			upload=$4, report=$5, bundle=$6, verdict=$7
		WHERE id=$8
	`
	result, err := r.pool.Exec(ctx, query,
		run.UpdatedAt, string(run.State), run.FailureReason,
		upload, report, bundle, verdict, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update migration run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) List(ctx context.Context, filter ports.RunListFilter) ([]*domain.Run, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", argPos))
		args = append(args, filter.State)
		argPos++
	}
	if filter.SourceTech != "" {
		conditions = append(conditions, fmt.Sprintf("source_tech = $%d", argPos))
		args = append(args, filter.SourceTech)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM migration_run WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count migration runs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, source_tech, state, failure_reason,
			   work_dir, upload, report, bundle, verdict
		FROM migration_run
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list migration runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan migration run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate migration run rows: %w", err)
	}

	return runs, total, nil
}

func (r *runRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ============================================================================
// Stage payload records
// ============================================================================

// The stage structs hide server filesystem paths from API JSON with "-" tags,
// so the rows carry their own records that keep the paths.

type uploadRecord struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type reportRecord struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	CompletedAt time.Time `json:"completed_at"`
}

type bundleRecord struct {
	OutputDir    string                 `json:"output_dir"`
	CodeFiles    []string               `json:"code_files"`
	Code         string                 `json:"code"`
	Workflow     map[string]interface{} `json:"workflow"`
	WorkflowFile string                 `json:"workflow_file"`
	CompletedAt  time.Time              `json:"completed_at"`
}

type verdictRecord struct {
	Assessment  string    `json:"assessment"`
	Passed      *bool     `json:"passed"`
	Model       string    `json:"model"`
	Mock        bool      `json:"mock"`
	CompletedAt time.Time `json:"completed_at"`
}

// marshalStages encodes the run's stage outputs as jsonb payloads. Absent
// stages stay nil so their columns stay NULL.
func marshalStages(run *domain.Run) (upload, report, bundle, verdict []byte, err error) {
	if run.Upload != nil {
		upload, err = json.Marshal(uploadRecord{
			Filename:   run.Upload.Filename,
			Size:       run.Upload.Size,
			Path:       run.Upload.Path,
			UploadedAt: run.Upload.UploadedAt,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal upload: %w", err)
		}
	}
	if run.Report != nil {
		report, err = json.Marshal(reportRecord{
			Filename:    run.Report.Filename,
			Size:        run.Report.Size,
			Path:        run.Report.Path,
			CompletedAt: run.Report.CompletedAt,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal report: %w", err)
		}
	}
	if run.Bundle != nil {
		bundle, err = json.Marshal(bundleRecord{
			OutputDir:    run.Bundle.OutputDir,
			CodeFiles:    run.Bundle.CodeFiles,
			Code:         run.Bundle.Code,
			Workflow:     run.Bundle.Workflow,
			WorkflowFile: run.Bundle.WorkflowFile,
			CompletedAt:  run.Bundle.CompletedAt,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal bundle: %w", err)
		}
	}
	if run.Verdict != nil {
		verdict, err = json.Marshal(verdictRecord{
			Assessment:  run.Verdict.Assessment,
			Passed:      run.Verdict.Passed,
			Model:       run.Verdict.Model,
			Mock:        run.Verdict.Mock,
			CompletedAt: run.Verdict.CompletedAt,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal verdict: %w", err)
		}
	}
	return upload, report, bundle, verdict, nil
}

// scanRun scans one migration_run row, decoding the jsonb stage payloads.
func scanRun(row pgx.Row) (*domain.Run, error) {
	run := &domain.Run{}
	var uploadJSON, reportJSON, bundleJSON, verdictJSON []byte

	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.UpdatedAt,
		&run.SourceTech, &run.State, &run.FailureReason,
		&run.WorkDir, &uploadJSON, &reportJSON, &bundleJSON, &verdictJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(uploadJSON) > 0 {
		var rec uploadRecord
		if err := json.Unmarshal(uploadJSON, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal upload: %w", err)
		}
		run.Upload = &domain.UploadedArtifact{
			Filename:   rec.Filename,
			Size:       rec.Size,
			Path:       rec.Path,
			UploadedAt: rec.UploadedAt,
		}
	}
	if len(reportJSON) > 0 {
		var rec reportRecord
		if err := json.Unmarshal(reportJSON, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		run.Report = &domain.AnalysisReport{
			Filename:    rec.Filename,
			Size:        rec.Size,
			Path:        rec.Path,
			CompletedAt: rec.CompletedAt,
		}
	}
	if len(bundleJSON) > 0 {
		var rec bundleRecord
		if err := json.Unmarshal(bundleJSON, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal bundle: %w", err)
		}
		run.Bundle = &domain.TranspiledBundle{
			OutputDir:    rec.OutputDir,
			CodeFiles:    rec.CodeFiles,
			Code:         rec.Code,
			Workflow:     rec.Workflow,
			WorkflowFile: rec.WorkflowFile,
			CompletedAt:  rec.CompletedAt,
		}
	}
	if len(verdictJSON) > 0 {
		var rec verdictRecord
		if err := json.Unmarshal(verdictJSON, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal verdict: %w", err)
		}
		run.Verdict = &domain.ValidationVerdict{
			Assessment:  rec.Assessment,
			Passed:      rec.Passed,
			Model:       rec.Model,
			Mock:        rec.Mock,
			CompletedAt: rec.CompletedAt,
		}
	}
	return run, nil
}
