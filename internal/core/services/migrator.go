package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// Ensure MigrationService implements the interface.
var _ driving.Migrator = (*MigrationService)(nil)

// MigrationService runs one backup through decode, migrate and encode.
//
// Only one run is allowed at a time. A run either returns a complete result or
// an error; partial output is never produced.
type MigrationService struct {
	codecs   driven.CodecRegistry
	resolver driven.IdentifierResolver
	settings driving.SettingsService

	mu      sync.RWMutex
	running bool
	status  driving.MigrationStatus
}

// NewMigrationService creates a new migration service. settings may be nil, in
// which case requests without a filter or counting mode use the defaults.
func NewMigrationService(
	codecs driven.CodecRegistry,
	resolver driven.IdentifierResolver,
	settings driving.SettingsService,
) *MigrationService {
	return &MigrationService{
		codecs:   codecs,
		resolver: resolver,
		settings: settings,
		status:   driving.MigrationStatus{Phase: domain.PhaseIdle},
	}
}

// Status returns a snapshot of the current run.
func (s *MigrationService) Status() driving.MigrationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Migrate rewrites the backup in req and returns the encoded result.
func (s *MigrationService) Migrate(
	ctx context.Context,
	req domain.MigrationRequest,
	progress driving.ProgressReporter,
) (*domain.MigrationResult, error) {
	if req.Input == nil {
		return nil, fmt.Errorf("%w: no input for %q", domain.ErrInvalidInput, req.FileName)
	}
	if progress == nil {
		progress = driving.NopProgress
	}
	if !s.begin() {
		return nil, domain.ErrMigrationInProgress
	}

	reporter := &statusReporter{svc: s, next: progress}
	defer reporter.idle()

	codec, err := s.codecs.ForFile(req.FileName)
	if err != nil {
		return nil, err
	}
	outName, err := domain.ModifiedFileName(req.FileName)
	if err != nil {
		return nil, err
	}

	filter, counting, err := s.runOptions(req)
	if err != nil {
		return nil, err
	}

	logger.Section("Preparing")
	reporter.phase(domain.PhasePreparing, 0, "Reading "+req.FileName)

	doc, err := codec.Decode(req.Input)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.FileName, err)
	}
	logger.Info("Decoded %d entries from %s (%s)", len(doc.Entries), req.FileName, codec.Format())

	resolver := s.resolver
	if resolver == nil {
		return nil, fmt.Errorf("%w: no identifier resolver configured", domain.ErrInvalidInput)
	}
	if batch, ok := resolver.(driven.BatchResolver); ok {
		resolved, err := prefetch(ctx, batch, doc, filter, reporter)
		if err != nil {
			return nil, err
		}
		resolver = resolved
	}

	engine := NewMigrationEngine(counting)

	reporter.phase(domain.PhaseProcessing, engine.Total(doc, filter), "")

	done := logger.Timed("Processing")
	migrated, report, err := engine.Migrate(ctx, doc, resolver, filter, reporter)
	done()
	if err != nil {
		return nil, err
	}

	logger.Section("Finishing")
	reporter.phase(domain.PhaseFinishing, report.TotalFiltered, "Writing "+outName)

	output, err := codec.Encode(migrated)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", outName, err)
	}

	logger.Info("Migrated %d of %d entries (%d already migrated, %d missing manga, %d missing chapters)",
		report.TotalMigrated(), report.TotalFiltered,
		len(report.AlreadyMigrated), len(report.MissingMangaID), len(report.MissingChapterID))

	return &domain.MigrationResult{
		FileName: outName,
		Format:   codec.Format(),
		Output:   output,
		Report:   *report,
	}, nil
}

// runOptions merges request overrides with the stored settings.
func (s *MigrationService) runOptions(req domain.MigrationRequest) (domain.SourceFilter, domain.CountingMode, error) {
	defaults := domain.DefaultMigrationSettings()
	settings := &defaults
	if s.settings != nil && (req.Filter == nil || req.Counting == "") {
		stored, err := s.settings.Get()
		if err != nil {
			return nil, "", fmt.Errorf("load settings: %w", err)
		}
		settings = stored
	}

	filter := req.Filter
	if filter == nil {
		filter = settings.Filter()
	}
	counting := req.Counting
	if counting == "" {
		counting = settings.Counting
	}
	if !counting.IsValid() {
		return nil, "", fmt.Errorf("%w: counting mode %q", domain.ErrInvalidInput, counting)
	}
	return filter, counting, nil
}

func (s *MigrationService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.status = driving.MigrationStatus{Phase: domain.PhaseIdle}
	return true
}

func (s *MigrationService) update(fn func(status *driving.MigrationStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

// statusReporter mirrors progress into the service status before forwarding it.
type statusReporter struct {
	svc  *MigrationService
	next driving.ProgressReporter
}

func (r *statusReporter) Report(e domain.ProgressEvent) {
	r.svc.update(func(status *driving.MigrationStatus) {
		status.Phase = e.Phase
		if e.Title != "" {
			status.Current = e.Title
		}
		if e.Phase == domain.PhaseProcessing {
			status.Processed = e.Processed
			status.Total = e.Total
		}
	})
	r.next.Report(e)
}

func (r *statusReporter) phase(p domain.Phase, total int, message string) {
	r.Report(domain.ProgressEvent{Phase: p, Total: total, Message: message})
}

func (r *statusReporter) idle() {
	r.svc.mu.Lock()
	r.svc.running = false
	r.svc.status = driving.MigrationStatus{Phase: domain.PhaseIdle}
	r.svc.mu.Unlock()
	r.next.Report(domain.ProgressEvent{Phase: domain.PhaseIdle})
}
