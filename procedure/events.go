package procedure

import (
	"io"

	"github.com/arterrin/lvrpc/xdr"
)

// Event procedure numbers carried on MESSAGE-typed packets. These share the
// procedure-number space with the call procedures in procedures.go but are
// looked up in EventRegistry, never Registry, since the server — not the
// client — originates them.
const (
	EventDomainLifecycle       int32 = 314
	EventDomainReboot          int32 = 319
	EventDomainRTCChange       int32 = 320
	EventDomainWatchdog        int32 = 321
	EventDomainIOError         int32 = 322
	EventDomainGraphics        int32 = 324
	EventDomainBlockJob        int32 = 325
	EventDomainControlError    int32 = 326
	EventDomainBalloonChange   int32 = 372
	EventDomainJobCompleted    int32 = 391
	EventDomainMetadataChange  int32 = 406
	EventDomainMemoryFailure   int32 = 419
	EventSecretValueChanged    int32 = 384
)

func init() {
	registerDomainEvents(DefaultEvents)
}

// DomainLifecycleEvent reports a domain transitioning between states
// (started, stopped, suspended, ...).
type DomainLifecycleEvent struct {
	Domain   Domain
	Event    int32
	Detail   int32
	CallbackID int32
}

func decodeDomainLifecycleEvent(r io.Reader) (any, error) {
	var e DomainLifecycleEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Event, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Detail, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainRebootEvent reports a guest-initiated reboot.
type DomainRebootEvent struct {
	Domain     Domain
	CallbackID int32
}

func decodeDomainRebootEvent(r io.Reader) (any, error) {
	var e DomainRebootEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainRTCChangeEvent reports the guest adjusting its real-time clock.
type DomainRTCChangeEvent struct {
	Domain     Domain
	Offset     int64
	CallbackID int32
}

func decodeDomainRTCChangeEvent(r io.Reader) (any, error) {
	var e DomainRTCChangeEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Offset, err = xdr.DecodeInt64(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainWatchdogEvent reports a watchdog device firing and the action taken.
type DomainWatchdogEvent struct {
	Domain     Domain
	Action     int32
	CallbackID int32
}

func decodeDomainWatchdogEvent(r io.Reader) (any, error) {
	var e DomainWatchdogEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Action, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainIOErrorEvent reports a disk or network backend I/O failure.
type DomainIOErrorEvent struct {
	Domain     Domain
	SrcPath    string
	DevAlias   string
	Action     int32
	CallbackID int32
}

func decodeDomainIOErrorEvent(r io.Reader) (any, error) {
	var e DomainIOErrorEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.SrcPath, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return nil, err
	}
	if e.DevAlias, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return nil, err
	}
	if e.Action, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainGraphicsEvent reports a graphical console client connecting or
// disconnecting.
type DomainGraphicsEvent struct {
	Domain     Domain
	Phase      int32
	CallbackID int32
}

func decodeDomainGraphicsEvent(r io.Reader) (any, error) {
	var e DomainGraphicsEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Phase, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainBlockJobEvent reports progress/completion of a block copy, pull, or
// commit operation.
type DomainBlockJobEvent struct {
	Domain     Domain
	Disk       string
	Type       int32
	Status     int32
	CallbackID int32
}

func decodeDomainBlockJobEvent(r io.Reader) (any, error) {
	var e DomainBlockJobEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Disk, err = xdr.DecodeString(r, xdr.DefaultMaxStringLen); err != nil {
		return nil, err
	}
	if e.Type, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Status, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainBalloonChangeEvent reports the guest's memory balloon target
// changing, in KiB.
type DomainBalloonChangeEvent struct {
	Domain     Domain
	ActualMem  uint64
	CallbackID int32
}

func decodeDomainBalloonChangeEvent(r io.Reader) (any, error) {
	var e DomainBalloonChangeEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.ActualMem, err = xdr.DecodeUint64(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainJobCompletedEvent reports a long-running job (migration, save,
// snapshot) finishing, carrying the same typed-param stats bag as
// DOMAIN_GET_JOB_STATS.
type DomainJobCompletedEvent struct {
	Domain     Domain
	Params     []TypedParam
	CallbackID int32
}

func decodeDomainJobCompletedEvent(r io.Reader) (any, error) {
	var e DomainJobCompletedEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Params, err = DecodeTypedParamArray(r, xdr.DefaultMaxArrayLen); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainMetadataChangeEvent reports a change to one of a domain's XML
// metadata elements.
type DomainMetadataChangeEvent struct {
	Domain     Domain
	Type       int32
	Namespace  *string
	CallbackID int32
}

func decodeDomainMetadataChangeEvent(r io.Reader) (any, error) {
	var e DomainMetadataChangeEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Type, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Namespace, err = decodeOptString(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// DomainMemoryFailureEvent reports an uncorrectable memory error the
// hypervisor detected in a guest's address space.
type DomainMemoryFailureEvent struct {
	Domain     Domain
	Recipient  int32
	Action     int32
	Flags      uint32
	CallbackID int32
}

func decodeDomainMemoryFailureEvent(r io.Reader) (any, error) {
	var e DomainMemoryFailureEvent
	var err error
	if e.Domain, err = DecodeDomain(r); err != nil {
		return nil, err
	}
	if e.Recipient, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Action, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if e.Flags, err = xdr.DecodeUint32(r); err != nil {
		return nil, err
	}
	if e.CallbackID, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return e, nil
}

// SecretValueChangedEvent reports a secret's value being updated.
type SecretValueChangedEvent struct {
	Secret Secret
}

func decodeSecretValueChangedEvent(r io.Reader) (any, error) {
	s, err := DecodeSecret(r)
	if err != nil {
		return nil, err
	}
	return SecretValueChangedEvent{Secret: s}, nil
}

func registerDomainEvents(reg *EventRegistry) {
	reg.Register(&EventDescriptor{Number: EventDomainLifecycle, Name: "DOMAIN_EVENT_CALLBACK_LIFECYCLE", Decode: decodeDomainLifecycleEvent})
	reg.Register(&EventDescriptor{Number: EventDomainReboot, Name: "DOMAIN_EVENT_CALLBACK_REBOOT", Decode: decodeDomainRebootEvent})
	reg.Register(&EventDescriptor{Number: EventDomainRTCChange, Name: "DOMAIN_EVENT_CALLBACK_RTC_CHANGE", Decode: decodeDomainRTCChangeEvent})
	reg.Register(&EventDescriptor{Number: EventDomainWatchdog, Name: "DOMAIN_EVENT_CALLBACK_WATCHDOG", Decode: decodeDomainWatchdogEvent})
	reg.Register(&EventDescriptor{Number: EventDomainIOError, Name: "DOMAIN_EVENT_CALLBACK_IO_ERROR", Decode: decodeDomainIOErrorEvent})
	reg.Register(&EventDescriptor{Number: EventDomainGraphics, Name: "DOMAIN_EVENT_CALLBACK_GRAPHICS", Decode: decodeDomainGraphicsEvent})
	reg.Register(&EventDescriptor{Number: EventDomainBlockJob, Name: "DOMAIN_EVENT_CALLBACK_BLOCK_JOB", Decode: decodeDomainBlockJobEvent})
	reg.Register(&EventDescriptor{Number: EventDomainBalloonChange, Name: "DOMAIN_EVENT_CALLBACK_BALLOON_CHANGE", Decode: decodeDomainBalloonChangeEvent})
	reg.Register(&EventDescriptor{Number: EventDomainJobCompleted, Name: "DOMAIN_EVENT_CALLBACK_JOB_COMPLETED", Decode: decodeDomainJobCompletedEvent})
	reg.Register(&EventDescriptor{Number: EventDomainMetadataChange, Name: "DOMAIN_EVENT_CALLBACK_METADATA_CHANGE", Decode: decodeDomainMetadataChangeEvent})
	reg.Register(&EventDescriptor{Number: EventDomainMemoryFailure, Name: "DOMAIN_EVENT_CALLBACK_MEMORY_FAILURE", Decode: decodeDomainMemoryFailureEvent})
	reg.Register(&EventDescriptor{Number: EventSecretValueChanged, Name: "SECRET_EVENT_CALLBACK_VALUE_CHANGED", Decode: decodeSecretValueChangedEvent})
}
