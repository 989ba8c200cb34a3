package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PranavYehale/FCTC-TOOL/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Output layout inside a run directory.
const (
	MasterDir      = "master"
	SectionDir     = "division"
	MasterFileName = "Final_Master_Report.xlsx"
)

// DefaultRunTimeout bounds a single reconciliation including file I/O.
const DefaultRunTimeout = 2 * time.Minute

// TableReader parses an uploaded file into a raw table.
type TableReader interface {
	ReadTable(fileName string, r io.Reader) (RawTable, error)
}

// ReportWriter materializes reconciliation output.
type ReportWriter interface {
	WriteMaster(path string, rows []MasterRow, summary Summary) error
	WriteSection(path string, p SectionPartition) error
}

// ServiceConfig holds the knobs of a Service. Zero values use defaults.
type ServiceConfig struct {
	OutputDir     string
	Limits        UploadLimits
	ValidYears    []string
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
}

// Service runs reconciliations for uploaded files and manages their output.
type Service struct {
	engine  *Engine
	reader  TableReader
	writer  ReportWriter
	runs    RunStore
	limiter *RunLimiter
	cfg     ServiceConfig
}

// NewService wires an engine to its I/O collaborators. A nil RunStore keeps
// history in memory.
func NewService(engine *Engine, reader TableReader, writer ReportWriter, runs RunStore, cfg ServiceConfig) *Service {
	if runs == nil {
		runs = NewMemoryRunStore(DefaultMemoryRuns)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "outputs"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRunTimeout
	}
	return &Service{
		engine:  engine,
		reader:  reader,
		writer:  writer,
		runs:    runs,
		limiter: NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:     cfg,
	}
}

// ProcessRequest carries the inputs of one reconciliation.
type ProcessRequest struct {
	Year   string
	Exam   Upload
	Roster Upload
}

// ProcessResult is returned to the caller after a successful run.
type ProcessResult struct {
	RunID           string   `json:"run_id"`
	MatchedStudents int      `json:"matched_students"`
	GeneratedFiles  []string `json:"generated_files"`
	Year            string   `json:"year"`
	Summary         Summary  `json:"summary"`
}

// Process validates the uploads, reconciles them and writes the master and
// section workbooks under a fresh run directory. Every attempt is recorded
// in run history, failed ones included.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	year, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	runID := uuid.New()
	started := time.Now()
	logger := logging.WithFields(ctx, "run_id", runID.String(), "year", year)
	logger.Info("reconciliation started",
		"exam_file", SanitizeFilename(req.Exam.FileName),
		"roster_file", SanitizeFilename(req.Roster.FileName),
	)

	record := RunRecord{
		ID:         runID,
		Year:       year,
		ExamFile:   SanitizeFilename(req.Exam.FileName),
		RosterFile: SanitizeFilename(req.Roster.FileName),
		ClientIP:   ClientIPFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		StartedAt:  started,
	}

	result, err := s.run(ctx, logger, runID, year, req)
	record.Duration = time.Since(started)
	if err != nil {
		record.Status = RunFailed
		record.ErrorCode = MapError(err).Code
		logger.Warn("reconciliation failed", "error", err, "code", record.ErrorCode)
	} else {
		record.Status = RunSucceeded
		record.Summary = result.Summary
		record.Files = result.GeneratedFiles
		logger.Info("reconciliation finished",
			"present", result.MatchedStudents,
			"files", len(result.GeneratedFiles),
			"duration_ms", record.Duration.Milliseconds(),
		)
	}

	// History is best effort; it never fails a run.
	if recErr := s.runs.RecordRun(context.WithoutCancel(ctx), record); recErr != nil {
		logger.Error("record run failed", "error", recErr)
	}

	return result, err
}

func (s *Service) validate(req ProcessRequest) (string, error) {
	year, err := ValidateYear(req.Year, s.cfg.ValidYears)
	if err != nil {
		return "", err
	}
	if err := ValidateUpload(SourceExam.Title()+" file", req.Exam, s.cfg.Limits); err != nil {
		return "", err
	}
	if err := ValidateUpload(SourceRoster.Title()+" file", req.Roster, s.cfg.Limits); err != nil {
		return "", err
	}
	return year, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, runID uuid.UUID, year string, req ProcessRequest) (*ProcessResult, error) {
	exam, roster, err := s.readInputs(ctx, req.Exam, req.Roster)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.WithLogger(logger).Run(exam, roster)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := s.writeOutputs(logger, runID, report)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{
		RunID:           runID.String(),
		MatchedStudents: report.Summary.Present,
		GeneratedFiles:  files,
		Year:            year,
		Summary:         report.Summary,
	}, nil
}

// readInputs parses both uploads concurrently.
func (s *Service) readInputs(ctx context.Context, examUp, rosterUp Upload) (RawTable, RawTable, error) {
	var exam, roster RawTable

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err := s.reader.ReadTable(examUp.FileName, examUp.Data)
		if err != nil {
			return fmt.Errorf("read %s file: %w", SourceExam.Title(), err)
		}
		exam = t
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err := s.reader.ReadTable(rosterUp.FileName, rosterUp.Data)
		if err != nil {
			return fmt.Errorf("read %s file: %w", SourceRoster.Title(), err)
		}
		roster = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return RawTable{}, RawTable{}, err
	}
	return exam, roster, nil
}

// writeOutputs writes the report under a fresh run directory.
func (s *Service) writeOutputs(logger *slog.Logger, runID uuid.UUID, report *Report) ([]string, error) {
	return WriteReport(s.writer, filepath.Join(s.cfg.OutputDir, runID.String()), report, logger)
}

// WriteReport writes the master workbook and one workbook per section under
// dir. It returns the written files relative to dir with forward slashes,
// master first. A section that fails to write is logged and left out.
func WriteReport(writer ReportWriter, dir string, report *Report, logger *slog.Logger) ([]string, error) {
	masterRel := filepath.ToSlash(filepath.Join(MasterDir, MasterFileName))
	if err := writer.WriteMaster(filepath.Join(dir, MasterDir, MasterFileName), report.Master, report.Summary); err != nil {
		return nil, fmt.Errorf("write master report: %w", err)
	}
	files := []string{masterRel}

	for _, p := range report.Partitions {
		name := SectionFileName(p.Section)
		if err := writer.WriteSection(filepath.Join(dir, SectionDir, name), p); err != nil {
			logger.Warn("section report skipped", "section", p.Section, "error", err)
			continue
		}
		files = append(files, filepath.ToSlash(filepath.Join(SectionDir, name)))
	}
	return files, nil
}

// Diagnose reads both uploads and reports how their identifiers line up
// without writing any output.
func (s *Service) Diagnose(ctx context.Context, examUp, rosterUp Upload) (Diagnosis, error) {
	if err := ValidateUpload(SourceExam.Title()+" file", examUp, s.cfg.Limits); err != nil {
		return Diagnosis{}, err
	}
	if err := ValidateUpload(SourceRoster.Title()+" file", rosterUp, s.cfg.Limits); err != nil {
		return Diagnosis{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	exam, roster, err := s.readInputs(ctx, examUp, rosterUp)
	if err != nil {
		return Diagnosis{}, err
	}
	return s.engine.WithLogger(logging.FromContext(ctx)).Diagnose(exam, roster), nil
}

// ResolveOutput maps a run ID and a file name relative to the run
// directory onto a path on disk. Names escaping the run directory are
// rejected.
func (s *Service) ResolveOutput(runID, name string) (string, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return "", fmt.Errorf("%w: invalid run id", ErrOutputNotFound)
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutputNotFound, name)
	}

	path := filepath.Join(s.cfg.OutputDir, id.String(), clean)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrOutputNotFound, name)
		}
		return "", fmt.Errorf("stat output: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrOutputNotFound, name)
	}
	return path, nil
}

// RecentRuns lists the newest runs first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.runs.ListRuns(ctx, limit)
}

// Limits returns the upload limits the service enforces.
func (s *Service) Limits() UploadLimits {
	return s.cfg.Limits
}

// ValidYears returns the accepted academic years.
func (s *Service) ValidYears() []string {
	if len(s.cfg.ValidYears) == 0 {
		return DefaultValidYears
	}
	return s.cfg.ValidYears
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight runs finish or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
