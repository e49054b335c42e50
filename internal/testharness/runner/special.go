package runner

import (
	"context"
	"errors"

	"github.com/cosem-conformance/conformance-go/internal/config"
	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Association LN attributes read by checkAssociation.
const (
	attrContextInfo   = 5
	attrMechanismName = 6
)

// codeOf returns the data-access-result carried by err, if any.
func codeOf(err error) *cosem.ErrorCode {
	if code, ok := device.Code(err); ok {
		return &code
	}
	return nil
}

// failure builds an error finding for a failed read or write.
func failure(d pdu.Descriptor, err error, format string, args ...any) engine.Finding {
	f := engine.Error(format, args...).At(d)
	f.Code = codeOf(err)
	if f.Code == nil {
		f.Details = []string{err.Error()}
	}
	return f
}

// checkAssociation verifies the DLMS version and the authentication
// mechanism the current association reports.
func checkAssociation(ctx context.Context, s device.Session, p *device.Profile, sink engine.Sink) error {
	if !s.Capabilities().LogicalNameReferencing {
		return nil
	}

	d := pdu.Descriptor{
		ClassID:    cosem.ObjectTypeAssociationLogicalName,
		InstanceID: cosem.AssociationViewName,
		Index:      attrContextInfo,
	}
	v, err := s.Read(ctx, d)
	switch {
	case cancelled(err):
		return err
	case err != nil:
		sink.Add(failure(d, err, "Failed to read xDLMS context info."))
	default:
		version, err := cosem.ContextDLMSVersion(v)
		if err != nil {
			sink.Add(engine.Error("Invalid xDLMS context info: %v", err).At(d))
		} else if version != cosem.DLMSVersion {
			sink.Add(engine.Error("Invalid DLMS version: %d", version).At(d))
		}
	}

	d.Index = attrMechanismName
	v, err = s.Read(ctx, d)
	switch {
	case cancelled(err):
		return err
	case err != nil:
		sink.Add(failure(d, err, "Failed to read authentication mechanism name."))
	default:
		id, err := cosem.MechanismID(v)
		if err != nil {
			sink.Add(engine.Error("Invalid authentication mechanism name: %v", err).At(d))
		} else if id != p.Authentication {
			sink.Add(engine.Error("Wrong AuthenticationMechanismName.MechanismId: %s. Expected %s.", id, p.Authentication).At(d))
		}
	}
	return nil
}

// checkInvalidCredential associates with a wrong password and then makes
// sure the meter still accepts the right one. It leaves the session
// connected with the profile credential when the meter allows it.
func checkInvalidCredential(ctx context.Context, s device.Session, p *device.Profile, settings *config.Settings, sink engine.Sink) error {
	if settings.InvalidPassword == "" || p.Authentication == cosem.AuthenticationNone {
		return nil
	}

	if err := s.Disconnect(ctx); err != nil {
		if cancelled(err) {
			return err
		}
		sink.Add(engine.Error("Invalid password test failed to disconnect: %v", err))
		return nil
	}
	if err := contextSleep(ctx, settings.DelayConnection); err != nil {
		return err
	}

	wrong := device.Credential{Authentication: p.Authentication, Password: settings.InvalidPassword}
	err := s.Connect(ctx, wrong)
	switch {
	case err == nil:
		sink.Add(engine.Warning("Login succeeded with wrong password."))
		if err := s.Disconnect(ctx); err != nil && cancelled(err) {
			return err
		}
	case cancelled(err):
		return err
	case errors.Is(err, device.ErrAssociationRejected):
		sink.Add(engine.Info("Invalid password test succeeded."))
	default:
		sink.Add(engine.Error("Invalid password test failed: %v", err))
	}

	if err := contextSleep(ctx, settings.DelayConnection); err != nil {
		return err
	}
	if err := connect(ctx, s, p.Credential()); err != nil {
		if cancelled(err) {
			return err
		}
		f := engine.Error("Login failed after wrong password.")
		f.Details = []string{err.Error()}
		sink.Add(f)
	}
	return nil
}
