package attainment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Glynis1314/CO-PO-Mapping-App/internal/audit"
)

// GovernanceSource supplies the config snapshot for a run. The engine calls
// it exactly once per run, before any computation, and passes the snapshot by
// value from there on.
type GovernanceSource interface {
	Snapshot(ctx context.Context) (GovernanceSnapshot, error)
}

// StaticGovernance is a GovernanceSource pinned to one snapshot.
type StaticGovernance GovernanceSnapshot

func (g StaticGovernance) Snapshot(context.Context) (GovernanceSnapshot, error) {
	return GovernanceSnapshot(g), nil
}

// Notifier receives CQI trigger requests. The engine only makes the trigger
// decision; lifecycle of the improvement action belongs to the collaborator.
type Notifier interface {
	Trigger(ctx context.Context, a CQIAction) error
}

// Engine wires the pure pipeline to its collaborators: input/result store,
// governance source, audit emitter and CQI notifier. Distinct scopes compute
// concurrently; concurrent runs of the same scope are collapsed into one via
// singleflight, so at most one computation per scope is ever in flight.
type Engine struct {
	store    Store
	gov      GovernanceSource
	emitter  audit.Emitter
	notifier Notifier

	group singleflight.Group
	newID func() string
	now   func() int64
}

type EngineOption func(*Engine)

// WithNotifier installs a CQI collaborator. Without one, triggers are only
// recorded on the result and in the audit trail.
func WithNotifier(n Notifier) EngineOption { return func(e *Engine) { e.notifier = n } }

// WithClock overrides time and ID generation, for deterministic tests.
func WithClock(now func() int64, newID func() string) EngineOption {
	return func(e *Engine) {
		e.now = now
		e.newID = newID
	}
}

func NewEngine(store Store, gov GovernanceSource, emitter audit.Emitter, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		gov:     gov,
		emitter: emitter,
		newID:   uuid.NewString,
		now:     func() int64 { return time.Now().Unix() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunCourse computes and persists course-scope attainment, returning the
// stored record. Refusals (locked scope, validation failures) are audited
// and produce no result rows.
func (e *Engine) RunCourse(ctx context.Context, courseID, semester string) (StoredCourseResult, error) {
	scope := Scope{CourseID: courseID, Semester: semester}
	v, err, _ := e.group.Do(scope.Key(), func() (interface{}, error) {
		return e.runCourse(ctx, courseID, semester, scope)
	})
	if err != nil {
		return StoredCourseResult{}, err
	}
	return v.(StoredCourseResult), nil
}

func (e *Engine) runCourse(ctx context.Context, courseID, semester string, scope Scope) (StoredCourseResult, error) {
	cfg, err := e.gov.Snapshot(ctx)
	if err != nil {
		return StoredCourseResult{}, fmt.Errorf("governance snapshot: %w", err)
	}
	in, err := e.store.CourseInput(ctx, courseID, semester)
	if err != nil {
		return StoredCourseResult{}, fmt.Errorf("load course input: %w", err)
	}
	checksum := InputChecksum(in)

	res, err := ComputeCourse(in, cfg)
	if err != nil {
		e.auditRefusal(ctx, scope, cfg.Version, checksum, err)
		return StoredCourseResult{}, err
	}

	version, err := e.store.NextCourseVersion(ctx, courseID, semester)
	if err != nil {
		return StoredCourseResult{}, fmt.Errorf("next version: %w", err)
	}
	rec := StoredCourseResult{
		RunID:      e.newID(),
		Version:    version,
		ComputedAt: e.now(),
		Result:     *res,
	}
	if err := e.store.SaveCourseResult(ctx, rec); err != nil {
		return StoredCourseResult{}, fmt.Errorf("save result: %w", err)
	}

	if err := e.emitter.Emit(ctx, audit.Event{
		ID:            rec.RunID,
		Type:          audit.TypeCourseComputed,
		ScopeKey:      scope.Key(),
		ConfigVersion: cfg.Version,
		InputChecksum: checksum,
		Warnings:      res.Warnings,
		Details:       audit.DetailsJSON(map[string]interface{}{"version": version, "cqi_triggers": len(res.CQI)}),
		CreatedAt:     rec.ComputedAt,
	}); err != nil {
		return rec, fmt.Errorf("audit emit: %w", err)
	}

	if e.notifier != nil {
		for _, a := range res.CQI {
			if err := e.notifier.Trigger(ctx, a); err != nil {
				return rec, fmt.Errorf("cqi trigger %s: %w", a.OutcomeID, err)
			}
		}
	}
	return rec, nil
}

// RunProgram aggregates the latest course-PO values for a program scope.
func (e *Engine) RunProgram(ctx context.Context, programID, semester string) (StoredProgramResult, error) {
	scope := Scope{ProgramID: programID, Semester: semester}
	v, err, _ := e.group.Do(scope.Key(), func() (interface{}, error) {
		return e.runProgram(ctx, programID, semester, scope)
	})
	if err != nil {
		return StoredProgramResult{}, err
	}
	return v.(StoredProgramResult), nil
}

func (e *Engine) runProgram(ctx context.Context, programID, semester string, scope Scope) (StoredProgramResult, error) {
	cfg, err := e.gov.Snapshot(ctx)
	if err != nil {
		return StoredProgramResult{}, fmt.Errorf("governance snapshot: %w", err)
	}
	in, err := e.store.ProgramInput(ctx, programID, semester)
	if err != nil {
		return StoredProgramResult{}, fmt.Errorf("load program input: %w", err)
	}
	checksum := ProgramChecksum(in)

	res, err := ComputeProgram(in, cfg)
	if err != nil {
		e.auditRefusal(ctx, scope, cfg.Version, checksum, err)
		return StoredProgramResult{}, err
	}

	version, err := e.store.NextProgramVersion(ctx, programID, semester)
	if err != nil {
		return StoredProgramResult{}, fmt.Errorf("next version: %w", err)
	}
	rec := StoredProgramResult{
		RunID:      e.newID(),
		Version:    version,
		ComputedAt: e.now(),
		Result:     *res,
	}
	if err := e.store.SaveProgramResult(ctx, rec); err != nil {
		return StoredProgramResult{}, fmt.Errorf("save result: %w", err)
	}

	if err := e.emitter.Emit(ctx, audit.Event{
		ID:            rec.RunID,
		Type:          audit.TypeProgramComputed,
		ScopeKey:      scope.Key(),
		ConfigVersion: cfg.Version,
		InputChecksum: checksum,
		Warnings:      res.Warnings,
		Details:       audit.DetailsJSON(map[string]interface{}{"version": version}),
		CreatedAt:     rec.ComputedAt,
	}); err != nil {
		return rec, fmt.Errorf("audit emit: %w", err)
	}
	return rec, nil
}

func (e *Engine) auditRefusal(ctx context.Context, scope Scope, cfgVersion, checksum string, cause error) {
	_ = e.emitter.Emit(ctx, audit.Event{
		ID:            e.newID(),
		Type:          audit.TypeComputeRefused,
		ScopeKey:      scope.Key(),
		ConfigVersion: cfgVersion,
		InputChecksum: checksum,
		Details:       audit.DetailsJSON(map[string]string{"error": cause.Error()}),
		CreatedAt:     e.now(),
	})
}

// AuditNotifier records CQI triggers as audit events. It is the default
// collaborator when no external workflow system is attached.
type AuditNotifier struct {
	Emitter audit.Emitter
	NewID   func() string
	Now     func() int64
}

func NewAuditNotifier(em audit.Emitter) *AuditNotifier {
	return &AuditNotifier{Emitter: em, NewID: uuid.NewString, Now: audit.Now}
}

func (n *AuditNotifier) Trigger(ctx context.Context, a CQIAction) error {
	return n.Emitter.Emit(ctx, audit.Event{
		ID:        n.NewID(),
		Type:      audit.TypeCQITriggered,
		ScopeKey:  a.Scope.Key(),
		Details:   audit.DetailsJSON(a),
		CreatedAt: n.Now(),
	})
}
