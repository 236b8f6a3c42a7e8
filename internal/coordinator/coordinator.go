package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitagg/internal/aggregator"
)

const (
	unitFunctionMissingMessageConstant = "unit function not configured"
	unitFailureTemplateConstant        = "%s: %v"
	interruptedTemplateConstant        = "run interrupted: %w"
	skippingRepositoryMessageConstant  = "skipping repository"
	startingRunMessageConstant         = "Starting run"
	repositoryFailedMessageConstant    = "repository failed"
	admissionStoppedMessageConstant    = "Not starting remaining repositories"
	logFieldRepositoryConstant         = "repository"
	logFieldRunIdentifierConstant      = "run_id"
	logFieldPatternConstant            = "pattern"
	logFieldJobsConstant               = "jobs"
	logFieldRepositoryCountConstant    = "repositories"
	logFieldNotStartedConstant         = "not_started"
)

// ErrUnitFunctionNotConfigured indicates Run was called without a unit of work.
var ErrUnitFunctionNotConfigured = errors.New(unitFunctionMissingMessageConstant)

// UnitFunc processes one descriptor. The logger carries the repository and run identifier.
type UnitFunc func(executionContext context.Context, logger *zap.Logger, descriptor aggregator.Descriptor) error

// Options configures a run.
type Options struct {
	// Jobs bounds the number of descriptors processed at once; values below two run sequentially.
	Jobs             int
	DirectoryPattern string
	BaseDirectory    string
}

// UnitError attributes a failure to the repository it happened in.
type UnitError struct {
	RepositoryPath string
	Cause          error
}

// Error prefixes the cause with the repository path.
func (unitError UnitError) Error() string {
	return fmt.Sprintf(unitFailureTemplateConstant, unitError.RepositoryPath, unitError.Cause)
}

// Unwrap exposes the underlying failure.
func (unitError UnitError) Unwrap() error {
	return unitError.Cause
}

// Report summarizes a run.
type Report struct {
	RunIdentifier string
	Succeeded     []string
	Failed        []string
	Skipped       []string
	// NotStarted lists selected descriptors left untouched after admission stopped.
	NotStarted    []string
}

// Coordinator runs a unit of work over many descriptors with bounded parallelism.
type Coordinator struct {
	logger *zap.Logger
}

// New constructs a Coordinator.
func New(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{logger: logger}
}

// Run applies unit to every descriptor selected by options.DirectoryPattern.
// Once a unit fails or executionContext is done no further descriptors are started and the rest are
// listed in Report.NotStarted, but units already running are never interrupted. The returned error combines every UnitError; it also wraps the
// context error when the run was interrupted.
func (coordinator *Coordinator) Run(executionContext context.Context, descriptors []aggregator.Descriptor, options Options, unit UnitFunc) (Report, error) {
	if unit == nil {
		return Report{}, ErrUnitFunctionNotConfigured
	}

	runIdentifier := uuid.NewString()
	runLogger := coordinator.logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	report := Report{RunIdentifier: runIdentifier}

	selected := make([]aggregator.Descriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if !MatchDirectory(descriptor.WorkingDirectory, options.DirectoryPattern, options.BaseDirectory) {
			runLogger.Info(skippingRepositoryMessageConstant,
				zap.String(logFieldRepositoryConstant, descriptor.WorkingDirectory),
				zap.String(logFieldPatternConstant, options.DirectoryPattern),
			)
			report.Skipped = append(report.Skipped, descriptor.WorkingDirectory)
			continue
		}
		selected = append(selected, descriptor)
	}
	runLogger.Info(startingRunMessageConstant, zap.Int(logFieldRepositoryCountConstant, len(selected)), zap.Int(logFieldJobsConstant, options.Jobs))

	var (
		reportMutex     sync.Mutex
		combinedError   error
		failureObserved atomic.Bool
	)
	record := func(descriptor aggregator.Descriptor, unitError error) {
		reportMutex.Lock()
		defer reportMutex.Unlock()
		if unitError == nil {
			report.Succeeded = append(report.Succeeded, descriptor.WorkingDirectory)
			return
		}
		failureObserved.Store(true)
		report.Failed = append(report.Failed, descriptor.WorkingDirectory)
		combinedError = multierr.Append(combinedError, UnitError{RepositoryPath: descriptor.WorkingDirectory, Cause: unitError})
	}
	runUnit := func(descriptor aggregator.Descriptor) {
		unitLogger := runLogger.With(zap.String(logFieldRepositoryConstant, descriptor.WorkingDirectory))
		record(descriptor, unit(context.WithoutCancel(executionContext), unitLogger, descriptor))
	}

	admissionClosed := func() bool {
		return failureObserved.Load() || executionContext.Err() != nil
	}
	stopAdmission := func(remaining []aggregator.Descriptor) {
		reportMutex.Lock()
		defer reportMutex.Unlock()
		for _, descriptor := range remaining {
			report.NotStarted = append(report.NotStarted, descriptor.WorkingDirectory)
		}
		runLogger.Warn(admissionStoppedMessageConstant, zap.Strings(logFieldNotStartedConstant, report.NotStarted))
	}

	if options.Jobs <= 1 {
		for index, descriptor := range selected {
			if admissionClosed() {
				stopAdmission(selected[index:])
				break
			}
			runUnit(descriptor)
		}
	} else {
		// A slot is taken before the admission check so a unit is never started after a failure
		// that freed the slot it was waiting for.
		slots := make(chan struct{}, options.Jobs)
		var workerGroup errgroup.Group
		for index, descriptor := range selected {
			slots <- struct{}{}
			if admissionClosed() {
				<-slots
				stopAdmission(selected[index:])
				break
			}
			workerGroup.Go(func() error {
				defer func() { <-slots }()
				runUnit(descriptor)
				return nil
			})
		}
		_ = workerGroup.Wait()
	}

	for _, unitError := range multierr.Errors(combinedError) {
		runLogger.Error(repositoryFailedMessageConstant, zap.Error(unitError))
	}
	if contextError := executionContext.Err(); contextError != nil {
		combinedError = multierr.Append(combinedError, fmt.Errorf(interruptedTemplateConstant, contextError))
	}
	return report, combinedError
}
