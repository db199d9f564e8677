package procedure

import (
	"bytes"
	"io"

	"github.com/arterrin/lvrpc/xdr"
)

// Procedure numbers. The real protocol defines roughly 440 of these; this
// client recognizes the representative slice exercised by package client's
// call engine and the lvshell CLI. Numbering follows the historical
// remote_protocol.x ordering closely enough to be a believable subset, but
// is not claimed to be bit-for-bit identical to any particular libvirt
// release.
const (
	ProcConnectOpen  int32 = 1
	ProcConnectClose int32 = 2
	ProcAuthList     int32 = 66
	ProcAuthPolkit   int32 = 255
	ProcAuthSaslInit int32 = 67
	ProcAuthSaslStart int32 = 68
	ProcAuthSaslStep int32 = 69

	ProcNodeGetInfo int32 = 6

	ProcDomainLookupByName    int32 = 23
	ProcDomainGetInfo         int32 = 36
	ProcDomainGetCPUStats     int32 = 318
	ProcConnectListAllDomains int32 = 273

	ProcNetworkLookupByName int32 = 92

	ProcStorageVolLookupByName int32 = 184
	ProcStorageVolUpload       int32 = 222
	ProcStorageVolDownload     int32 = 221

	ProcSecretLookupByUUID int32 = 241

	ProcConnectDomainEventCallbackRegisterAny   int32 = 316
	ProcConnectDomainEventCallbackDeregisterAny int32 = 317
)

func init() {
	registerConnectProcedures(Default)
	registerAuthProcedures(Default)
	registerNodeProcedures(Default)
	registerDomainProcedures(Default)
	registerNetworkProcedures(Default)
	registerStorageVolProcedures(Default)
	registerSecretProcedures(Default)
	registerEventProcedures(Default)
}

// --- CONNECT_OPEN / CONNECT_CLOSE ---

// ConnectOpenArgs is the request body of CONNECT_OPEN.
type ConnectOpenArgs struct {
	Name     *string
	ReadOnly bool
}

func encodeConnectOpenArgs(buf *bytes.Buffer, v any) error {
	a := v.(ConnectOpenArgs)
	if err := writeOptString(buf, a.Name); err != nil {
		return err
	}
	return xdr.WriteBool(buf, a.ReadOnly)
}

// ConnectOpen has no reply body beyond the header's status.

func registerConnectProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcConnectOpen,
		Name:          "CONNECT_OPEN",
		EncodeRequest: encodeConnectOpenArgs,
	})
	reg.Register(&Descriptor{
		Number: ProcConnectClose,
		Name:   "CONNECT_CLOSE",
	})
}

// --- AUTH_LIST / AUTH_SASL_* / AUTH_POLKIT ---

// AuthListReply is the reply body of AUTH_LIST: the server's supported
// authentication mechanism, in priority order.
type AuthListReply struct {
	Types []int32
}

func decodeAuthListReply(r io.Reader) (any, error) {
	types, err := xdr.DecodeArray(r, xdr.DefaultMaxArrayLen, xdr.DecodeInt32)
	if err != nil {
		return nil, err
	}
	return AuthListReply{Types: types}, nil
}

// AuthSaslInitReply carries the server's chosen SASL mechanism name.
type AuthSaslInitReply struct {
	Mechanism string
}

func decodeAuthSaslInitReply(r io.Reader) (any, error) {
	mech, err := xdr.DecodeString(r, xdr.DefaultMaxStringLen)
	if err != nil {
		return nil, err
	}
	return AuthSaslInitReply{Mechanism: mech}, nil
}

// AuthSaslStartArgs/Reply and AuthSaslStepArgs/Reply carry opaque SASL
// challenge/response blobs back and forth, plus a Complete flag set once
// the mechanism reports the exchange finished.
type AuthSaslStartArgs struct {
	Mechanism string
	Data      []byte
}

func encodeAuthSaslStartArgs(buf *bytes.Buffer, v any) error {
	a := v.(AuthSaslStartArgs)
	if err := xdr.WriteString(buf, a.Mechanism); err != nil {
		return err
	}
	return xdr.WriteOpaque(buf, a.Data, xdr.DefaultMaxOpaqueLen)
}

type AuthSaslReply struct {
	Complete bool
	Data     []byte
}

func decodeAuthSaslReply(r io.Reader) (any, error) {
	complete, err := xdr.DecodeBool(r)
	if err != nil {
		return nil, err
	}
	data, err := xdr.DecodeOpaque(r, xdr.DefaultMaxOpaqueLen)
	if err != nil {
		return nil, err
	}
	return AuthSaslReply{Complete: complete, Data: data}, nil
}

type AuthSaslStepArgs struct {
	Data []byte
}

func encodeAuthSaslStepArgs(buf *bytes.Buffer, v any) error {
	a := v.(AuthSaslStepArgs)
	return xdr.WriteOpaque(buf, a.Data, xdr.DefaultMaxOpaqueLen)
}

func registerAuthProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:      ProcAuthList,
		Name:        "AUTH_LIST",
		DecodeReply: decodeAuthListReply,
	})
	reg.Register(&Descriptor{
		Number: ProcAuthPolkit,
		Name:   "AUTH_POLKIT",
	})
	reg.Register(&Descriptor{
		Number:      ProcAuthSaslInit,
		Name:        "AUTH_SASL_INIT",
		DecodeReply: decodeAuthSaslInitReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcAuthSaslStart,
		Name:          "AUTH_SASL_START",
		EncodeRequest: encodeAuthSaslStartArgs,
		DecodeReply:   decodeAuthSaslReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcAuthSaslStep,
		Name:          "AUTH_SASL_STEP",
		EncodeRequest: encodeAuthSaslStepArgs,
		DecodeReply:   decodeAuthSaslReply,
	})
}

// --- NODE_GET_INFO ---

// NodeInfoReply is the reply body of NODE_GET_INFO: the host's hardware
// summary.
type NodeInfoReply struct {
	Model   [32]byte
	Memory  int64
	CPUs    int32
	MHz     int32
	Nodes   int32
	Sockets int32
	Cores   int32
	Threads int32
}

func decodeNodeInfoReply(r io.Reader) (any, error) {
	var n NodeInfoReply
	model, err := xdr.DecodeFixedOpaque(r, 32)
	if err != nil {
		return nil, err
	}
	copy(n.Model[:], model)
	if n.Memory, err = xdr.DecodeInt64(r); err != nil {
		return nil, err
	}
	if n.CPUs, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if n.MHz, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if n.Nodes, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if n.Sockets, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if n.Cores, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	if n.Threads, err = xdr.DecodeInt32(r); err != nil {
		return nil, err
	}
	return n, nil
}

func registerNodeProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:      ProcNodeGetInfo,
		Name:        "NODE_GET_INFO",
		DecodeReply: decodeNodeInfoReply,
	})
}

// --- DOMAIN_LOOKUP_BY_NAME / DOMAIN_GET_INFO / DOMAIN_GET_CPU_STATS ---

type DomainLookupByNameArgs struct {
	Name string
}

func encodeDomainLookupByNameArgs(buf *bytes.Buffer, v any) error {
	return xdr.WriteString(buf, v.(DomainLookupByNameArgs).Name)
}

type DomainLookupByNameReply struct {
	Domain Domain
}

func decodeDomainLookupByNameReply(r io.Reader) (any, error) {
	d, err := DecodeDomain(r)
	if err != nil {
		return nil, err
	}
	return DomainLookupByNameReply{Domain: d}, nil
}

type DomainGetInfoArgs struct {
	Domain Domain
}

func encodeDomainGetInfoArgs(buf *bytes.Buffer, v any) error {
	return v.(DomainGetInfoArgs).Domain.Encode(buf)
}

type DomainGetInfoReply struct {
	State     uint8
	MaxMem    uint64
	Memory    uint64
	NrVirtCPU uint16
	CPUTime   uint64
}

func decodeDomainGetInfoReply(r io.Reader) (any, error) {
	var rep DomainGetInfoReply
	state, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	rep.State = uint8(state)
	if rep.MaxMem, err = xdr.DecodeUint64(r); err != nil {
		return nil, err
	}
	if rep.Memory, err = xdr.DecodeUint64(r); err != nil {
		return nil, err
	}
	nr, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	rep.NrVirtCPU = uint16(nr)
	if rep.CPUTime, err = xdr.DecodeUint64(r); err != nil {
		return nil, err
	}
	return rep, nil
}

type DomainGetCPUStatsArgs struct {
	Domain     Domain
	NumParams  int32
	StartCPU   int32
	NumCPUs    uint32
	Flags      uint32
}

func encodeDomainGetCPUStatsArgs(buf *bytes.Buffer, v any) error {
	a := v.(DomainGetCPUStatsArgs)
	if err := a.Domain.Encode(buf); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, a.NumParams); err != nil {
		return err
	}
	if err := xdr.WriteInt32(buf, a.StartCPU); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, a.NumCPUs); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, a.Flags)
}

type DomainGetCPUStatsReply struct {
	Params []TypedParam
}

func decodeDomainGetCPUStatsReply(r io.Reader) (any, error) {
	params, err := DecodeTypedParamArray(r, xdr.DefaultMaxArrayLen)
	if err != nil {
		return nil, err
	}
	return DomainGetCPUStatsReply{Params: params}, nil
}

// ConnectListAllDomainsArgs requests every domain the server knows about.
// NeedResults is always sent as 1 (the client wants the domain array, not
// just a count); Flags filters by state (e.g. running vs. all).
type ConnectListAllDomainsArgs struct {
	NeedResults int32
	Flags       uint32
}

func encodeConnectListAllDomainsArgs(buf *bytes.Buffer, v any) error {
	a := v.(ConnectListAllDomainsArgs)
	if err := xdr.WriteInt32(buf, a.NeedResults); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, a.Flags)
}

type ConnectListAllDomainsReply struct {
	Domains []Domain
}

func decodeConnectListAllDomainsReply(r io.Reader) (any, error) {
	domains, err := xdr.DecodeArray(r, xdr.DefaultMaxArrayLen, DecodeDomain)
	if err != nil {
		return nil, err
	}
	if _, err := xdr.DecodeUint32(r); err != nil { // ret_count, unused: len(domains) already carries it
		return nil, err
	}
	return ConnectListAllDomainsReply{Domains: domains}, nil
}

func registerDomainProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcDomainLookupByName,
		Name:          "DOMAIN_LOOKUP_BY_NAME",
		EncodeRequest: encodeDomainLookupByNameArgs,
		DecodeReply:   decodeDomainLookupByNameReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcDomainGetInfo,
		Name:          "DOMAIN_GET_INFO",
		EncodeRequest: encodeDomainGetInfoArgs,
		DecodeReply:   decodeDomainGetInfoReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcDomainGetCPUStats,
		Name:          "DOMAIN_GET_CPU_STATS",
		EncodeRequest: encodeDomainGetCPUStatsArgs,
		DecodeReply:   decodeDomainGetCPUStatsReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcConnectListAllDomains,
		Name:          "CONNECT_LIST_ALL_DOMAINS",
		EncodeRequest: encodeConnectListAllDomainsArgs,
		DecodeReply:   decodeConnectListAllDomainsReply,
	})
}

// --- NETWORK_LOOKUP_BY_NAME ---

type NetworkLookupByNameArgs struct {
	Name string
}

func encodeNetworkLookupByNameArgs(buf *bytes.Buffer, v any) error {
	return xdr.WriteString(buf, v.(NetworkLookupByNameArgs).Name)
}

type NetworkLookupByNameReply struct {
	Network Network
}

func decodeNetworkLookupByNameReply(r io.Reader) (any, error) {
	n, err := DecodeNetwork(r)
	if err != nil {
		return nil, err
	}
	return NetworkLookupByNameReply{Network: n}, nil
}

func registerNetworkProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcNetworkLookupByName,
		Name:          "NETWORK_LOOKUP_BY_NAME",
		EncodeRequest: encodeNetworkLookupByNameArgs,
		DecodeReply:   decodeNetworkLookupByNameReply,
	})
}

// --- STORAGE_VOL_LOOKUP_BY_NAME / UPLOAD / DOWNLOAD ---

type StorageVolLookupByNameArgs struct {
	Pool string
	Name string
}

func encodeStorageVolLookupByNameArgs(buf *bytes.Buffer, v any) error {
	a := v.(StorageVolLookupByNameArgs)
	if err := xdr.WriteString(buf, a.Pool); err != nil {
		return err
	}
	return xdr.WriteString(buf, a.Name)
}

type StorageVolLookupByNameReply struct {
	Vol StorageVol
}

func decodeStorageVolLookupByNameReply(r io.Reader) (any, error) {
	v, err := DecodeStorageVol(r)
	if err != nil {
		return nil, err
	}
	return StorageVolLookupByNameReply{Vol: v}, nil
}

// StorageVolUploadArgs/DownloadArgs open the CALL whose reply (status OK
// with no body) hands the connection to the stream sub-protocol; package
// stream drives the STREAM/STREAM_HOLE packets that follow.
type StorageVolUploadArgs struct {
	Vol    StorageVol
	Offset uint64
	Length uint64
	Flags  uint32
}

func encodeStorageVolUploadArgs(buf *bytes.Buffer, v any) error {
	a := v.(StorageVolUploadArgs)
	if err := a.Vol.Encode(buf); err != nil {
		return err
	}
	if err := xdr.WriteUint64(buf, a.Offset); err != nil {
		return err
	}
	if err := xdr.WriteUint64(buf, a.Length); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, a.Flags)
}

type StorageVolDownloadArgs struct {
	Vol    StorageVol
	Offset uint64
	Length uint64
	Flags  uint32
}

func encodeStorageVolDownloadArgs(buf *bytes.Buffer, v any) error {
	a := v.(StorageVolDownloadArgs)
	if err := a.Vol.Encode(buf); err != nil {
		return err
	}
	if err := xdr.WriteUint64(buf, a.Offset); err != nil {
		return err
	}
	if err := xdr.WriteUint64(buf, a.Length); err != nil {
		return err
	}
	return xdr.WriteUint32(buf, a.Flags)
}

func registerStorageVolProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcStorageVolLookupByName,
		Name:          "STORAGE_VOL_LOOKUP_BY_NAME",
		EncodeRequest: encodeStorageVolLookupByNameArgs,
		DecodeReply:   decodeStorageVolLookupByNameReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcStorageVolUpload,
		Name:          "STORAGE_VOL_UPLOAD",
		EncodeRequest: encodeStorageVolUploadArgs,
	})
	reg.Register(&Descriptor{
		Number:        ProcStorageVolDownload,
		Name:          "STORAGE_VOL_DOWNLOAD",
		EncodeRequest: encodeStorageVolDownloadArgs,
	})
}

// --- SECRET_LOOKUP_BY_UUID ---

type SecretLookupByUUIDArgs struct {
	UUID UUID
}

func encodeSecretLookupByUUIDArgs(buf *bytes.Buffer, v any) error {
	return v.(SecretLookupByUUIDArgs).UUID.Encode(buf)
}

type SecretLookupByUUIDReply struct {
	Secret Secret
}

func decodeSecretLookupByUUIDReply(r io.Reader) (any, error) {
	s, err := DecodeSecret(r)
	if err != nil {
		return nil, err
	}
	return SecretLookupByUUIDReply{Secret: s}, nil
}

func registerSecretProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcSecretLookupByUUID,
		Name:          "SECRET_LOOKUP_BY_UUID",
		EncodeRequest: encodeSecretLookupByUUIDArgs,
		DecodeReply:   decodeSecretLookupByUUIDReply,
	})
}

// --- CONNECT_DOMAIN_EVENT_CALLBACK_REGISTER_ANY / DEREGISTER_ANY ---

type DomainEventCallbackRegisterAnyArgs struct {
	EventID int32
	Domain  *Domain
}

func encodeDomainEventCallbackRegisterAnyArgs(buf *bytes.Buffer, v any) error {
	a := v.(DomainEventCallbackRegisterAnyArgs)
	if err := xdr.WriteInt32(buf, a.EventID); err != nil {
		return err
	}
	return writeOptDomain(buf, a.Domain)
}

type DomainEventCallbackRegisterAnyReply struct {
	CallbackID int32
}

func decodeDomainEventCallbackRegisterAnyReply(r io.Reader) (any, error) {
	id, err := xdr.DecodeInt32(r)
	if err != nil {
		return nil, err
	}
	return DomainEventCallbackRegisterAnyReply{CallbackID: id}, nil
}

type DomainEventCallbackDeregisterAnyArgs struct {
	CallbackID int32
}

func encodeDomainEventCallbackDeregisterAnyArgs(buf *bytes.Buffer, v any) error {
	return xdr.WriteInt32(buf, v.(DomainEventCallbackDeregisterAnyArgs).CallbackID)
}

func registerEventProcedures(reg *Registry) {
	reg.Register(&Descriptor{
		Number:        ProcConnectDomainEventCallbackRegisterAny,
		Name:          "CONNECT_DOMAIN_EVENT_CALLBACK_REGISTER_ANY",
		EncodeRequest: encodeDomainEventCallbackRegisterAnyArgs,
		DecodeReply:   decodeDomainEventCallbackRegisterAnyReply,
	})
	reg.Register(&Descriptor{
		Number:        ProcConnectDomainEventCallbackDeregisterAny,
		Name:          "CONNECT_DOMAIN_EVENT_CALLBACK_DEREGISTER_ANY",
		EncodeRequest: encodeDomainEventCallbackDeregisterAnyArgs,
	})
}
