package modal

import (
	"context"
	"sync"
	"time"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// SandboxParams configures a new ephemeral Sandbox.
type SandboxParams struct {
	Command         []string
	ImageID         string
	SecretIDs       []string
	TimeoutSecs     uint32
	IdleTimeoutSecs *uint32
	Workdir         string
	Resources       *Resources
	VolumeMounts    []VolumeMount
	CPUMilli        uint32
	Name            string
	BlockNetwork    bool
	EnvironmentName string
}

// Resources mirrors options.go's overlay shape for a Sandbox's own resource
// request, kept as a plain (non-pointer) struct here since a Sandbox's
// resources are fixed at creation time rather than overlaid later.
type Resources struct {
	MilliCPU    uint32
	MilliCPUMax uint32
	MemoryMB    uint32
	MemoryMBMax uint32
	GPUConfig   string
}

// Sandbox is a handle to one ephemeral remote container: its own
// filesystem, its own process tree, reachable over stdio streams and
// (if it exposes ports) tunnels.
type Sandbox struct {
	client *Client
	id     string

	taskIDOnce sync.Once
	taskID     string
	taskErr    error

	tunnelsOnce sync.Once
	tunnels     []*pb.TunnelInfo
	tunnelsErr  error

	stdinIndex uint32
}

// CreateSandbox starts a new Sandbox under appID.
func CreateSandbox(ctx context.Context, client *Client, appID string, params SandboxParams) (*Sandbox, error) {
	def := &pb.SandboxDefinition{
		EntrypointArgs: params.Command,
		ImageId:        params.ImageID,
		SecretIds:      params.SecretIDs,
		TimeoutSecs:    params.TimeoutSecs,
		IdleTimeoutSecs: params.IdleTimeoutSecs,
		BlockNetwork:   params.BlockNetwork,
		Name:           params.Name,
	}
	if params.Workdir != "" {
		def.Workdir = &params.Workdir
	}
	if params.Resources != nil {
		def.Resources = &pb.Resources{
			MilliCpu:    params.Resources.MilliCPU,
			MilliCpuMax: params.Resources.MilliCPUMax,
			MemoryMb:    params.Resources.MemoryMB,
			MemoryMbMax: params.Resources.MemoryMBMax,
			GpuConfig:   params.Resources.GPUConfig,
		}
	}
	for _, vm := range params.VolumeMounts {
		def.VolumeMounts = append(def.VolumeMounts, &pb.VolumeMount{
			VolumeId:               vm.VolumeID,
			MountPath:              vm.MountPath,
			AllowBackgroundCommits: vm.AllowBackgroundCommits,
			ReadOnly:               vm.ReadOnly,
		})
	}

	resp, err := client.control.SandboxCreate(ctx, &pb.SandboxCreateRequest{AppId: appID, Definition: def})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return &Sandbox{client: client, id: resp.SandboxId}, nil
}

// SandboxFromID reattaches to an already-running Sandbox by id, verifying
// it still exists via a non-blocking SandboxWait before handing back a
// handle — a NOT_FOUND from that check is surfaced as a typed not-found
// error rather than deferred to whatever call the caller happens to make
// first against a dead handle.
func SandboxFromID(ctx context.Context, client *Client, sandboxID string) (*Sandbox, error) {
	_, err := client.control.SandboxWait(ctx, &pb.SandboxWaitRequest{SandboxId: sandboxID, Timeout: 0})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return &Sandbox{client: client, id: sandboxID}, nil
}

// SandboxFromName looks up a named Sandbox previously created with
// SandboxParams.Name set.
func SandboxFromName(ctx context.Context, client *Client, appName, sandboxName, environment string) (*Sandbox, error) {
	resp, err := client.control.SandboxGetFromName(ctx, &pb.SandboxGetFromNameRequest{
		SandboxName:     sandboxName,
		AppName:         appName,
		EnvironmentName: client.withEnvironment(environment),
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return &Sandbox{client: client, id: resp.SandboxId}, nil
}

// ListSandboxes paginates every Sandbox under appID, walking backward in
// creation time via beforeTimestamp the way the teacher's executor walks
// job history pages in agent/internal/executor.
func ListSandboxes(ctx context.Context, client *Client, appID string, environment string, includeFinished bool, tags map[string]string) ([]*pb.SandboxInfo, error) {
	var pbTags []*pb.SandboxTag
	for k, v := range tags {
		pbTags = append(pbTags, &pb.SandboxTag{TagName: k, TagValue: v})
	}

	var all []*pb.SandboxInfo
	var before float64
	for {
		resp, err := client.control.SandboxList(ctx, &pb.SandboxListRequest{
			AppId:           appID,
			BeforeTimestamp: before,
			EnvironmentName: client.withEnvironment(environment),
			IncludeFinished: includeFinished,
			Tags:            pbTags,
		})
		if err != nil {
			return nil, classifyGRPCError(err)
		}
		if len(resp.Sandboxes) == 0 {
			break
		}
		all = append(all, resp.Sandboxes...)
		before = resp.Sandboxes[len(resp.Sandboxes)-1].CreatedAt
	}
	return all, nil
}

// sandboxWaitPollTimeout bounds each individual long-poll Wait issues while
// looping for a terminal result.
const sandboxWaitPollTimeout = 10 * time.Second

// Wait blocks until the Sandbox's entrypoint process exits, or ctx's
// deadline elapses, looping a bounded SandboxWait poll until a result
// lands. The terminal status is collapsed to a single process-style return
// code: TIMEOUT maps to 124, TERMINATED to 137, anything else to the
// server-reported exit code.
func (s *Sandbox) Wait(ctx context.Context) (int32, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		resp, err := s.client.control.SandboxWait(ctx, &pb.SandboxWaitRequest{
			SandboxId: s.id,
			Timeout:   float32(sandboxWaitPollTimeout.Seconds()),
		})
		if err != nil {
			return 0, classifyGRPCError(err)
		}
		if resp.Result == nil {
			continue
		}
		switch resp.Result.Status {
		case pb.GenericStatusTimeout:
			return 124, nil
		case pb.GenericStatusTerminated:
			return 137, nil
		default:
			return resp.Result.Exitcode, nil
		}
	}
}

// Poll is a non-blocking check of whether the Sandbox has finished.
func (s *Sandbox) Poll(ctx context.Context) (*pb.GenericResult, error) {
	resp, err := s.client.control.SandboxWait(ctx, &pb.SandboxWaitRequest{SandboxId: s.id, Timeout: 0})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return resp.Result, nil
}

// Terminate force-kills the Sandbox.
func (s *Sandbox) Terminate(ctx context.Context) error {
	_, err := s.client.control.SandboxTerminate(ctx, &pb.SandboxTerminateRequest{SandboxId: s.id})
	return classifyGRPCError(err)
}

func (s *Sandbox) SetTags(ctx context.Context, tags map[string]string, environment string) error {
	var pbTags []*pb.SandboxTag
	for k, v := range tags {
		pbTags = append(pbTags, &pb.SandboxTag{TagName: k, TagValue: v})
	}
	_, err := s.client.control.SandboxTagsSet(ctx, &pb.SandboxTagsSetRequest{
		EnvironmentName: s.client.withEnvironment(environment),
		SandboxId:       s.id,
		Tags:            pbTags,
	})
	return classifyGRPCError(err)
}

func (s *Sandbox) GetTags(ctx context.Context) (map[string]string, error) {
	resp, err := s.client.control.SandboxTagsGet(ctx, &pb.SandboxTagsGetRequest{SandboxId: s.id})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	out := make(map[string]string, len(resp.Tags))
	for _, t := range resp.Tags {
		out[t.TagName] = t.TagValue
	}
	return out, nil
}

// taskIDValue lazily fetches and caches the Sandbox's backing task id, the way
// the command router and filesystem RPCs need it but most Sandbox usage
// never touches.
func (s *Sandbox) taskIDValue(ctx context.Context) (string, error) {
	s.taskIDOnce.Do(func() {
		resp, err := s.client.control.SandboxGetTaskId(ctx, &pb.SandboxGetTaskIdRequest{SandboxId: s.id})
		if err != nil {
			s.taskErr = classifyGRPCError(err)
			return
		}
		s.taskID = resp.TaskId
	})
	return s.taskID, s.taskErr
}

// Tunnels fetches (and caches for the Sandbox's lifetime, since open ports
// never change after creation) the public endpoints for any ports the
// Sandbox's definition opened.
func (s *Sandbox) Tunnels(ctx context.Context, timeout time.Duration) ([]*pb.TunnelInfo, error) {
	s.tunnelsOnce.Do(func() {
		resp, err := s.client.control.SandboxGetTunnels(ctx, &pb.SandboxGetTunnelsRequest{
			SandboxId: s.id,
			Timeout:   float32(timeout.Seconds()),
		})
		if err != nil {
			s.tunnelsErr = classifyGRPCError(err)
			return
		}
		if resp.Result != nil && resp.Result.Status == pb.GenericStatusTimeout {
			s.tunnelsErr = SandboxTimeoutError("timed out waiting for tunnels")
			return
		}
		s.tunnels = resp.Tunnels
	})
	return s.tunnels, s.tunnelsErr
}

// SnapshotFilesystem commits the Sandbox's current filesystem state to a
// new image.
func (s *Sandbox) SnapshotFilesystem(ctx context.Context, timeout time.Duration) (string, error) {
	resp, err := s.client.control.SandboxSnapshotFs(ctx, &pb.SandboxSnapshotFsRequest{
		SandboxId: s.id,
		Timeout:   float32(timeout.Seconds()),
	})
	if err != nil {
		return "", classifyGRPCError(err)
	}
	if resp.Result != nil && resp.Result.Status != pb.GenericStatusSuccess {
		return "", SandboxFilesystemError(resp.Result.Exception)
	}
	return resp.ImageId, nil
}

// CreateConnectToken mints a short-lived token third parties can use to
// reach this Sandbox directly.
func (s *Sandbox) CreateConnectToken(ctx context.Context, userMetadata string) (url, token string, err error) {
	resp, err := s.client.control.SandboxCreateConnectToken(ctx, &pb.SandboxCreateConnectTokenRequest{
		SandboxId:    s.id,
		UserMetadata: userMetadata,
	})
	if err != nil {
		return "", "", classifyGRPCError(err)
	}
	return resp.Url, resp.Token, nil
}
