// Package pb holds the wire message and service-client shapes for the two
// gRPC services this SDK speaks: the control/input plane (ModalClient) and
// the per-task command router (TaskCommandRouter).
//
// In a production build these types and the stubs in client.go/router.go are
// produced by protoc-gen-go / protoc-gen-go-grpc from the platform's .proto
// definitions. This package hand-writes the same shape (request/response
// structs, enums, and thin grpc.ClientConn-backed service clients) because no
// .proto source or protoc toolchain is available to this module — the shape
// mirrors github.com/arkeep-io/arkeep/shared/proto (the teacher's own
// generated-stub package) and the field names/semantics observed in the
// real modal-go SDK's proto usage.
package pb

import "time"

// ClientType identifies which first-party SDK is speaking to the platform,
// sent on every call via the x-modal-client-type header.
type ClientType int32

const (
	ClientTypeUnspecified ClientType = iota
	ClientTypeClient
	ClientTypeWorker
	ClientTypeContainer
	ClientTypeLibmodalGo
)

// GenericStatus mirrors the server-side result status enum shared by
// function calls and sandboxes.
type GenericStatus int32

const (
	GenericStatusUnspecified GenericStatus = iota
	GenericStatusSuccess
	GenericStatusFailure
	GenericStatusTimeout
	GenericStatusTerminated
	GenericStatusInternalFailure
)

// GenericResult is the common envelope for a finished function input or
// sandbox/task wait.
type GenericResult struct {
	Status    GenericStatus
	Exitcode  int32
	Exception string
}

// DataFormat enumerates the supported wire formats for function payloads.
type DataFormat int32

const (
	DataFormatUnspecified DataFormat = iota
	DataFormatCBOR
	DataFormatPickle
	DataFormatASGI
	DataFormatGeneratorDone
)

// FunctionInput carries one logical invocation's encoded arguments.
type FunctionInput struct {
	Args          []byte
	ArgsBlobId    string
	DataFormat    DataFormat
	FinalInput    bool
}

// FunctionPutInputsItem pairs an input with its position in a batch. The
// core only ever submits a single-element batch (UNARY invocations) but the
// wire format is the batch shape used by FunctionMap.
type FunctionPutInputsItem struct {
	Idx   int32
	Input *FunctionInput
}

type FunctionCallInvocationType int32

const (
	FunctionCallInvocationTypeUnspecified FunctionCallInvocationType = iota
	FunctionCallInvocationTypeSync
	FunctionCallInvocationTypeAsync
)

// FunctionMapRequest starts a control-plane invocation (or batch thereof).
type FunctionMapRequest struct {
	FunctionId     string
	FunctionCallType string // "UNARY" in the core's single-input case.
	InvocationType FunctionCallInvocationType
	PipelinedInputs []*FunctionPutInputsItem
}

type FunctionMapResponse struct {
	FunctionCallId  string
	FunctionCallJwt string
	PipelinedInputs []*FunctionMapPipelinedInput
}

// FunctionMapPipelinedInput carries the per-input JWT needed to poll/retry
// that specific input on the control plane.
type FunctionMapPipelinedInput struct {
	Idx     int32
	InputJwt string
}

type FunctionGetOutputsRequest struct {
	FunctionCallId string
	MaxValues      int32
	Timeout        float32
	LastEntryId    string
	ClearOnSuccess bool
	RequestedAt    float64
}

type FunctionGetOutputsItem struct {
	Idx        int32
	Result     *GenericResult
	Data       []byte
	DataBlobId string
	DataFormat DataFormat
}

type FunctionGetOutputsResponse struct {
	Outputs     []*FunctionGetOutputsItem
	LastEntryId string
}

type FunctionRetryInputsRequest struct {
	FunctionCallJwt string
	InputJwts       []string
	Inputs          []*FunctionPutInputsItem
}

type FunctionRetryInputsResponse struct {
	InputJwts []string
}

type FunctionCallCancelRequest struct {
	FunctionCallId      string
	TerminateContainers bool
}

type FunctionCallCancelResponse struct{}

// AttemptStartRequest/Response and friends implement the input-plane
// protocol, which is discovered per-function via HandleMetadata.InputPlaneUrl.
type AttemptStartRequest struct {
	FunctionId string
	Input      *FunctionInput
}

type AttemptStartResponse struct {
	AttemptToken string
}

type AttemptAwaitRequest struct {
	AttemptToken string
	RequestedAt  float64
	TimeoutSecs  float32
}

type AttemptAwaitResponse struct {
	Output *FunctionGetOutputsItem
}

type AttemptRetryRequest struct {
	AttemptToken string
	Input        *FunctionInput
	RetryCount   uint32
}

type AttemptRetryResponse struct {
	AttemptToken string
}

// BlobCreateRequest/Response implement the blob-offload upload path.
type BlobCreateRequest struct {
	ContentMd5          string
	ContentSha256Base64 string
	ContentLength       int64
}

type BlobCreateResponse struct {
	BlobId          string
	UploadUrl       string
	MultipartUpload *MultipartUpload // non-nil means the core must refuse.
}

type MultipartUpload struct {
	PartLength int64
	Parts      []string
}

type BlobGetRequest struct {
	BlobId string
}

type BlobGetResponse struct {
	DownloadUrl string
}

// FunctionBindParamsRequest implements the Parameterized Class binder.
type FunctionBindParamsRequest struct {
	FunctionId      string
	SerializedParams []byte
	FunctionOptions *FunctionOptions
}

type FunctionBindParamsResponse struct {
	BoundFunctionId string
}

// HandleMetadata is the descriptor returned for every Function/Cls lookup,
// telling the core which wire protocol and plane to use for it.
type HandleMetadata struct {
	SupportedInputFormats []DataFormat
	InputPlaneUrl         string // "" means control-plane only.
	MethodHandleMetadata  map[string]*HandleMetadata
	ClassParameterInfo    *ClassParameterInfo
	WebUrl                string // non-"" means this is a web endpoint.
}

// ClassParameterInfo describes a parameterized Cls's constructor schema.
// Schema may list parameters in any order; the encoder sorts them by name.
type ClassParameterInfo struct {
	Schema []*ClassParameterSpec
}

type ClassParameterType int32

const (
	ClassParameterTypeUnspecified ClassParameterType = iota
	ClassParameterTypeString
	ClassParameterTypeInt
	ClassParameterTypeFloat
	ClassParameterTypeBool
	ClassParameterTypeBytes
)

type ClassParameterSpec struct {
	Name         string
	Type         ClassParameterType
	HasDefault   bool
	DefaultValue any
}

// FunctionGetRequest/Response resolve a Function (or Cls's representative
// function) by app/object/tag name to its id and handle metadata.
type FunctionGetRequest struct {
	AppName     string
	ObjectTag   string
	Environment string
}

type FunctionGetResponse struct {
	FunctionId string
	Handle     *HandleMetadata
}

type FunctionOptions struct {
	Resources           *Resources
	RetryPolicy         *FunctionRetryPolicy
	SecretIds           []string
	ReplaceSecretIds    bool
	VolumeMounts        []*VolumeMount
	ReplaceVolumeMounts bool
	TaskIdleTimeoutSecs uint32
	TimeoutSecs         uint32
	Concurrency         *FunctionConcurrency
	BatchConfig         *FunctionBatchConfig
}

type Resources struct {
	MilliCpu    uint32
	MilliCpuMax uint32
	MemoryMb    uint32
	MemoryMbMax uint32
	GpuConfig   string
}

type FunctionRetryPolicy struct {
	Retries              uint32
	BackoffCoefficient   float32
	InitialDelayMs       uint32
	MaxDelayMs           uint32
}

type VolumeMount struct {
	VolumeId               string
	MountPath              string
	AllowBackgroundCommits bool
	ReadOnly               bool
}

type FunctionConcurrency struct {
	MaxConcurrentInputs int32
	TargetConcurrentInputs int32
}

type FunctionBatchConfig struct {
	MaxBatchSize int32
	MaxWaitMs    int32
}

// --- Sandbox messages ---

type NetworkAccessType int32

const (
	NetworkAccessOpen NetworkAccessType = iota
	NetworkAccessBlocked
	NetworkAccessAllowlist
)

type NetworkAccess struct {
	NetworkAccessType NetworkAccessType
	AllowedCidrs       []string
}

type CloudBucketMount struct {
	MountPath      string
	BucketName     string
	CredentialsSecretId string
	ReadOnly       bool
	KeyPrefix      string
	RequesterPays  bool
}

type PortSpec struct {
	Port        uint32
	Unencrypted bool
	TunnelType  string // "" | "H2"
}

type SandboxDefinition struct {
	EntrypointArgs      []string
	ImageId             string
	SecretIds           []string
	TimeoutSecs         uint32
	IdleTimeoutSecs     *uint32
	Workdir             *string
	NetworkAccess       *NetworkAccess
	Resources           *Resources
	VolumeMounts        []*VolumeMount
	CloudBucketMounts   []*CloudBucketMount
	OpenPorts           []*PortSpec
	CloudProvider       string
	Regions             []string
	Verbose             bool
	ProxyId             *string
	Name                string
	BlockNetwork        bool
}

type SandboxCreateRequest struct {
	AppId      string
	Definition *SandboxDefinition
}

type SandboxCreateResponse struct {
	SandboxId string
}

type SandboxWaitRequest struct {
	SandboxId string
	Timeout   float32
}

type SandboxWaitResponse struct {
	Result *GenericResult
}

type SandboxGetFromNameRequest struct {
	SandboxName     string
	AppName         string
	EnvironmentName string
}

type SandboxGetFromNameResponse struct {
	SandboxId string
}

type SandboxInfo struct {
	Id        string
	CreatedAt float64
}

type SandboxListRequest struct {
	AppId           string
	BeforeTimestamp float64
	EnvironmentName string
	IncludeFinished bool
	Tags            []*SandboxTag
}

type SandboxListResponse struct {
	Sandboxes []*SandboxInfo
}

type SandboxTag struct {
	TagName  string
	TagValue string
}

type SandboxTagsSetRequest struct {
	EnvironmentName string
	SandboxId       string
	Tags            []*SandboxTag
}

type SandboxTagsSetResponse struct{}

type SandboxTagsGetRequest struct {
	SandboxId string
}

type SandboxTagsGetResponse struct {
	Tags []*SandboxTag
}

type SandboxTerminateRequest struct {
	SandboxId string
}

type SandboxTerminateResponse struct{}

type SandboxGetTaskIdRequest struct {
	SandboxId string
}

type SandboxGetTaskIdResponse struct {
	TaskId     string
	TaskResult *GenericResult
}

type SandboxGetTunnelsRequest struct {
	SandboxId string
	Timeout   float32
}

type TunnelInfo struct {
	ContainerPort   uint32
	Host            string
	Port            uint32
	UnencryptedHost string
	UnencryptedPort uint32
}

type SandboxGetTunnelsResponse struct {
	Result  *GenericResult
	Tunnels []*TunnelInfo
}

type SandboxSnapshotFsRequest struct {
	SandboxId string
	Timeout   float32
}

type SandboxSnapshotFsResponse struct {
	Result  *GenericResult
	ImageId string
}

type SandboxCreateConnectTokenRequest struct {
	SandboxId    string
	UserMetadata string
}

type SandboxCreateConnectTokenResponse struct {
	Url   string
	Token string
}

type FileDescriptor int32

const (
	FileDescriptorUnspecified FileDescriptor = iota
	FileDescriptorStdout
	FileDescriptorStderr
	FileDescriptorInfo
)

type SandboxStdinWriteRequest struct {
	SandboxId string
	Input     []byte
	Index     uint32
	Eof       bool
}

type SandboxStdinWriteResponse struct{}

type SandboxGetLogsRequest struct {
	SandboxId      string
	FileDescriptor FileDescriptor
	Timeout        float32
	LastEntryId    string
}

type LogItem struct {
	Data []byte
}

type LogBatch struct {
	EntryId string
	Items   []*LogItem
	Eof     bool
}

// --- Container filesystem messages ---

type ContainerFileOpenRequest struct {
	Path string
	Mode string
}

type ContainerFileSeekWhence int32

const (
	SeekStart   ContainerFileSeekWhence = 0
	SeekCurrent ContainerFileSeekWhence = 1
	SeekEnd     ContainerFileSeekWhence = 2
)

type ContainerFileReadRequest struct {
	FileDescriptor string
	N              int64
}

type ContainerFileWriteRequest struct {
	FileDescriptor string
	Data           []byte
}

type ContainerFileFlushRequest struct {
	FileDescriptor string
}

type ContainerFileCloseRequest struct {
	FileDescriptor string
}

type ContainerFileSeekRequest struct {
	FileDescriptor string
	Offset         int64
	Whence         ContainerFileSeekWhence
}

// ContainerFilesystemExecRequest is a union; exactly one field is set.
type ContainerFilesystemExecRequest struct {
	TaskId          string
	FileOpenRequest  *ContainerFileOpenRequest
	ReadRequest      *ContainerFileReadRequest
	WriteRequest     *ContainerFileWriteRequest
	FlushRequest     *ContainerFileFlushRequest
	CloseRequest     *ContainerFileCloseRequest
	SeekRequest      *ContainerFileSeekRequest
}

type ContainerFilesystemExecResponse struct {
	ExecId         string
	FileDescriptor string // only set in reply to FileOpenRequest
}

type ContainerFilesystemExecGetOutputRequest struct {
	ExecId  string
	Timeout float32
}

type ContainerFilesystemExecGetOutputResponse struct {
	Output []byte
	Eof    bool
	Error  string
}

// --- Task command router messages ---

type TaskGetCommandRouterAccessRequest struct {
	TaskId string
}

type TaskGetCommandRouterAccessResponse struct {
	Url string
	Jwt string
}

type TaskExecStdoutConfig int32

const (
	TaskExecStdoutPipe TaskExecStdoutConfig = iota
	TaskExecStdoutDevnull
)

type TaskExecStderrConfig int32

const (
	TaskExecStderrPipe TaskExecStderrConfig = iota
	TaskExecStderrDevnull
)

type PTYInfo struct {
	Enabled                bool
	WinszRows              uint32
	WinszCols              uint32
	EnvTerm                string
	EnvColorterm           string
	NoTerminateOnIdleStdin bool
}

type TaskExecStartRequest struct {
	TaskId       string
	ExecId       string
	CommandArgs  []string
	StdoutConfig TaskExecStdoutConfig
	StderrConfig TaskExecStderrConfig
	Workdir      *string
	SecretIds    []string
	PtyInfo      *PTYInfo
	TimeoutSecs  *uint32
}

type TaskExecStartResponse struct{}

type TaskExecStdinWriteRequest struct {
	TaskId string
	ExecId string
	Offset uint64
	Data   []byte
	Eof    bool
}

type TaskExecStdinWriteResponse struct{}

type TaskExecPollRequest struct {
	TaskId string
	ExecId string
}

type TaskExecPollResponse struct {
	Completed bool
	Code      *int32
}

type TaskExecWaitRequest struct {
	TaskId string
	ExecId string
}

type TaskExecWaitResponse struct {
	Code int32
}

type TaskExecStdioFileDescriptor int32

const (
	TaskExecStdioStdout TaskExecStdioFileDescriptor = iota
	TaskExecStdioStderr
)

type TaskExecStdioReadRequest struct {
	TaskId         string
	ExecId         string
	Offset         uint64
	FileDescriptor TaskExecStdioFileDescriptor
}

type TaskExecStdioReadResponse struct {
	Data []byte
}

type TaskMountDirectoryRequest struct {
	Path    string
	ImageId string
}

type TaskMountDirectoryResponse struct{}

type TaskSnapshotDirectoryRequest struct {
	Path string
}

type TaskSnapshotDirectoryResponse struct {
	ImageId string
}

// AuthTokenGetRequest/Response implement the bearer-token fetch RPC.
type AuthTokenGetRequest struct {
	TokenId     string
	TokenSecret string
}

type AuthTokenGetResponse struct {
	Token string
}

// nowUnix is a tiny seam kept here (rather than calling time.Now inline at every
// call site) so RequestedAt fields are computed consistently.
func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// NowUnix exposes nowUnix to callers outside the package that need to stamp
// a RequestedAt field identically to how requests built in this package do.
func NowUnix() float64 { return nowUnix() }
