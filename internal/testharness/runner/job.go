package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/log"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// TraceFile is the protocol trace written next to the reports.
const TraceFile = "trace.clog"

// jobRun is the worker-local state of one job.
type jobRun struct {
	sched   *Scheduler
	job     *Job
	profile *device.Profile
	out     engine.Sink
	logger  *slog.Logger

	session *device.TracingSession
	start   time.Time
}

func newJobRun(s *Scheduler, job *Job, logger *slog.Logger) *jobRun {
	return &jobRun{
		sched:   s,
		job:     job,
		profile: job.Profile,
		out:     job.Output,
		logger:  logger,
	}
}

// run tests the meter. Failures of single scripts and checks become
// findings; the returned error means the job could not continue.
func (r *jobRun) run(ctx context.Context) (err error) {
	r.start = time.Now()
	r.job.Output.AddHeader("Start Time: " + r.start.Format(time.DateTime))
	defer func() {
		r.job.Output.InsertHeader(1, "Ran for "+time.Since(r.start).Round(time.Millisecond).String())
	}()

	trace, closeTrace, err := r.openTrace()
	if err != nil {
		r.logger.Warn("protocol trace disabled", "error", err)
	}
	defer closeTrace()

	sess, err := r.sched.dial(ctx, r.profile)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	r.session = device.NewTracingSession(sess, trace, uuid.NewString(), r.profile.Name, r.job.ID)

	if err := r.session.Open(ctx); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer r.session.Close()

	if err := connect(ctx, r.session, r.profile.Credential()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := r.steps(ctx); err != nil {
		if cancelled(err) {
			r.out.Add(engine.Warning("Test cancelled before all tests ran."))
			return nil
		}
		return err
	}
	return nil
}

// openTrace opens the per-job trace. The returned close function is
// always usable.
func (r *jobRun) openTrace() (log.Logger, func(), error) {
	debug := log.NewSlogAdapter(r.logger)
	dir := r.job.Output.Dir()
	if !r.sched.settings.Trace || dir == "" {
		return debug, func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return debug, func() {}, err
	}
	file, err := log.NewFileLogger(filepath.Join(dir, TraceFile))
	if err != nil {
		return debug, func() {}, err
	}
	return log.NewMultiLogger(file, debug), func() { file.Close() }, nil
}

// steps runs every test of the job in order.
func (r *jobRun) steps(ctx context.Context) error {
	settings := r.sched.settings

	r.checkCapabilities()
	if settings.ReReadAssociationView {
		if err := r.rereadAssociationView(ctx); err != nil {
			return err
		}
	}
	r.describeAssociation()

	if !settings.ExcludeBasicTests {
		r.job.Output.AddHeader(fmt.Sprintf("Total amount of objects: %d", len(r.profile.Objects)))
		r.checkLogicalNames()
	}
	if err := r.readIdentity(ctx); err != nil {
		return err
	}

	if settings.ExcludeBasicTests {
		r.job.Output.AddHeader("Basic tests are ignored.")
	} else {
		for _, bound := range r.sched.catalog.Bind(r.profile.Objects) {
			if err := r.unit(ctx, bound.Name+" "+bound.Object.LogicalName, func() error {
				return r.sched.engine.RunBound(ctx, r.session, bound, r.out)
			}); err != nil {
				return err
			}
		}
	}

	if err := r.unit(ctx, "Association check", func() error {
		return checkAssociation(ctx, r.session, r.profile, r.out)
	}); err != nil {
		return err
	}

	if err := r.runExternal(ctx); err != nil {
		return err
	}

	if !settings.ExcludeBasicTests {
		r.warnUntested()
	}

	if settings.Write {
		if err := r.unit(ctx, "Write tests", func() error {
			return writeTests(ctx, r.session, r.profile.Objects, r.out)
		}); err != nil {
			return err
		}
	}

	if err := r.unit(ctx, "Invalid password check", func() error {
		return checkInvalidCredential(ctx, r.session, r.profile, settings, r.out)
	}); err != nil {
		return err
	}

	if r.profile.Interface != device.InterfaceWrapper {
		if n := r.session.OversizeFrame(); n != 0 {
			r.out.Add(engine.Error("HDLC frame size is too high. There are %d bytes. Max size should be max %d bytes.",
				n, r.session.Capabilities().MaxInfoRX))
		}
	}
	return nil
}

// unit runs one script or check. Panics and errors are reported once
// and the job goes on; only cancellation is returned.
func (r *jobRun) unit(ctx context.Context, name string, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			err = &UnitError{Unit: name, Panic: p}
		}
		if err == nil || cancelled(err) {
			return
		}
		r.logger.Warn("test unit failed", "unit", name, "error", err)
		r.out.Add(engine.Error("%v", err))
		err = nil
	}()
	if err := fn(); err != nil {
		if cancelled(err) {
			return err
		}
		return &UnitError{Unit: name, Err: err}
	}
	return nil
}

// checkCapabilities warns when the meter negotiated other limits than
// the profile asked for.
func (r *jobRun) checkCapabilities() {
	caps := r.session.Capabilities()
	p := r.profile
	if p.MaxInfoRX != device.DefaultMaxInfo && p.MaxInfoRX != caps.MaxInfoRX {
		r.out.Add(engine.Warning("Client asked that RX frame size is %d. Meter uses %d.", p.MaxInfoRX, caps.MaxInfoRX))
	}
	if p.MaxInfoTX != device.DefaultMaxInfo && p.MaxInfoTX != caps.MaxInfoTX {
		r.out.Add(engine.Warning("Client asked that TX frame size is %d. Meter uses %d.", p.MaxInfoTX, caps.MaxInfoTX))
	}
	if p.PduSize < caps.MaxReceivePDUSize {
		r.out.Add(engine.Warning("Client asked that PDU size is %d. Meter uses %d.", p.PduSize, caps.MaxReceivePDUSize))
	}
}

func (r *jobRun) rereadAssociationView(ctx context.Context) error {
	r.logger.Debug("re-reading association view")
	objs, err := r.session.Objects(ctx)
	if err != nil {
		if cancelled(err) {
			return err
		}
		r.out.Add(engine.Error("Failed to re-read association view: %v", err))
		return nil
	}
	r.profile.Objects = objs
	return nil
}

func (r *jobRun) describeAssociation() {
	caps := r.session.Capabilities()
	out := r.job.Output
	if caps.LogicalNameReferencing {
		out.AddHeader("Testing using Logical Name referencing.")
	} else {
		out.AddHeader("Testing using Short Name referencing.")
	}
	out.AddHeader("Authentication level: " + r.profile.Authentication.String())
	out.AddHeader("Supported services:", caps.Conformance.String())
}

// checkLogicalNames reports objects whose logical name is not a valid
// OBIS code for their class.
func (r *jobRun) checkLogicalNames() {
	for _, o := range r.profile.Objects {
		if !cosem.ValidLogicalName(o.ClassID, o.LogicalName) {
			f := engine.Error("Invalid OBIS code %s for %s.", o.LogicalName, o.ClassID)
			f.ObjectType = o.ClassID
			f.LogicalName = o.LogicalName
			r.out.Add(f)
		}
	}
}

// readIdentity reads the logical device name, firmware version and meter
// time into the report header.
func (r *jobRun) readIdentity(ctx context.Context) error {
	out := r.job.Output
	read := func(ot cosem.ObjectType, ln string) (cosem.Value, error) {
		return r.session.Read(ctx, pdu.Descriptor{ClassID: ot, InstanceID: ln, Index: 2})
	}

	if v, err := read(cosem.ObjectTypeData, cosem.LogicalDeviceName); err == nil {
		out.AddHeader("Logical Device Name is: " + cosem.FormatValue(v, cosem.DataTypeString) + ".")
	} else if cancelled(err) {
		return err
	} else {
		r.out.Add(engine.Error("Logical Device Name is not implemented."))
	}

	if v, err := read(cosem.ObjectTypeData, cosem.FirmwareVersion); err == nil {
		out.AddHeader("Firmware version is: " + cosem.FormatValue(v, cosem.DataTypeString) + ".")
	} else if cancelled(err) {
		return err
	} else {
		r.out.Add(engine.Info("Firmware version is not available."))
	}

	if v, err := read(cosem.ObjectTypeClock, cosem.ClockName); err == nil {
		out.AddHeader("Meter time: " + cosem.FormatValue(v, cosem.DataTypeDateTime) + ".")
	} else if cancelled(err) {
		return err
	}
	return nil
}

// runExternal replays the external scripts and reports the ones that
// failed to load.
func (r *jobRun) runExternal(ctx context.Context) error {
	externals, loadErrs := r.sched.externals, r.sched.loadErrs
	if n := len(externals) + len(loadErrs); n > 0 {
		r.job.Output.AddHeader(fmt.Sprintf("External tests: %d", n))
	}
	for _, err := range loadErrs {
		r.out.Add(engine.Error("Failed to load external test. %v", err))
	}
	for _, script := range externals {
		if err := r.unit(ctx, "External test "+script.Name, func() error {
			return r.sched.engine.RunExternal(ctx, r.session, script, r.out)
		}); err != nil {
			return err
		}
	}
	return nil
}

// warnUntested warns once per object type no builtin script covers.
func (r *jobRun) warnUntested() {
	seen := make(map[cosem.ObjectType]bool)
	for _, o := range r.profile.Objects {
		if seen[o.ClassID] {
			continue
		}
		seen[o.ClassID] = true
		if !r.sched.catalog.Covers(o.ClassID) {
			f := engine.Warning("%s is not tested.", o.ClassID)
			f.ObjectType = o.ClassID
			r.out.Add(f)
		}
	}
}
