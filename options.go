package modal

import "github.com/modal-labs/libmodal-sub001/internal/pb"

// VolumeMount describes one volume attachment overlay.
type VolumeMount struct {
	VolumeID               string
	MountPath              string
	AllowBackgroundCommits bool
	ReadOnly               bool
}

// Concurrency overlays a Function's input concurrency knobs.
type Concurrency struct {
	MaxConcurrentInputs    int32
	TargetConcurrentInputs int32
}

// Batching overlays a Function's dynamic batching knobs.
type Batching struct {
	MaxBatchSize int32
	MaxWaitMs    int32
}

// Options is an overlay of runtime configuration carried on a Function. It
// is sent to the server only by Cls.Instantiate, as the FunctionOptions of
// its FunctionBindParams call; Function.Invoke and Function.Spawn do not
// send it. Every field is a pointer/zero-value-means-unset so WithOptions
// can merge shallowly: a field left nil in the overlay leaves the base
// unchanged.
type Options struct {
	MilliCPU            *uint32
	MilliCPUMax         *uint32
	MemoryMB            *uint32
	MemoryMBMax         *uint32
	GPUConfig           *string
	Retries             *uint32
	BackoffCoefficient  *float32
	InitialDelayMs      *uint32
	MaxDelayMs          *uint32
	SecretIDs           []string
	ReplaceSecretIDs    bool
	VolumeMounts        []VolumeMount
	ReplaceVolumeMounts bool
	TimeoutSecs         *uint32
	TaskIdleTimeoutSecs *uint32
	Concurrency         *Concurrency
	Batching            *Batching
}

// WithOptions returns a Function bound with the given overlay merged onto
// any overlay already carried, matching modal-go's "withOptions is
// idempotent and composable" semantics: calling it twice with
// non-overlapping fields composes both, and calling it twice with the same
// field keeps the latest value.
func (f *Function) WithOptions(o Options) *Function {
	merged := Options{}
	if f.options != nil {
		merged = *f.options
	}
	mergeOptions(&merged, o)

	clone := *f
	clone.options = &merged
	return &clone
}

func mergeOptions(base *Options, overlay Options) {
	if overlay.MilliCPU != nil {
		base.MilliCPU = overlay.MilliCPU
	}
	if overlay.MilliCPUMax != nil {
		base.MilliCPUMax = overlay.MilliCPUMax
	}
	if overlay.MemoryMB != nil {
		base.MemoryMB = overlay.MemoryMB
	}
	if overlay.MemoryMBMax != nil {
		base.MemoryMBMax = overlay.MemoryMBMax
	}
	if overlay.GPUConfig != nil {
		base.GPUConfig = overlay.GPUConfig
	}
	if overlay.Retries != nil {
		base.Retries = overlay.Retries
	}
	if overlay.BackoffCoefficient != nil {
		base.BackoffCoefficient = overlay.BackoffCoefficient
	}
	if overlay.InitialDelayMs != nil {
		base.InitialDelayMs = overlay.InitialDelayMs
	}
	if overlay.MaxDelayMs != nil {
		base.MaxDelayMs = overlay.MaxDelayMs
	}
	if overlay.SecretIDs != nil {
		base.SecretIDs = overlay.SecretIDs
		base.ReplaceSecretIDs = overlay.ReplaceSecretIDs
	}
	if overlay.VolumeMounts != nil {
		base.VolumeMounts = overlay.VolumeMounts
		base.ReplaceVolumeMounts = overlay.ReplaceVolumeMounts
	}
	if overlay.TimeoutSecs != nil {
		base.TimeoutSecs = overlay.TimeoutSecs
	}
	if overlay.TaskIdleTimeoutSecs != nil {
		base.TaskIdleTimeoutSecs = overlay.TaskIdleTimeoutSecs
	}
	if overlay.Concurrency != nil {
		base.Concurrency = overlay.Concurrency
	}
	if overlay.Batching != nil {
		base.Batching = overlay.Batching
	}
}

// WithConcurrency is sugar over WithOptions for the common case of only
// overriding the concurrency knobs.
func (f *Function) WithConcurrency(c Concurrency) *Function {
	return f.WithOptions(Options{Concurrency: &c})
}

// WithBatching is sugar over WithOptions for the common case of only
// overriding the dynamic batching knobs.
func (f *Function) WithBatching(b Batching) *Function {
	return f.WithOptions(Options{Batching: &b})
}

// toProto renders an overlay as the wire FunctionOptions message, omitting
// fields that were never set.
func (o *Options) toProto() *pb.FunctionOptions {
	if o == nil {
		return nil
	}
	out := &pb.FunctionOptions{
		SecretIds:           o.SecretIDs,
		ReplaceSecretIds:    o.ReplaceSecretIDs,
		ReplaceVolumeMounts: o.ReplaceVolumeMounts,
	}
	if o.MilliCPU != nil || o.MilliCPUMax != nil || o.MemoryMB != nil || o.MemoryMBMax != nil || o.GPUConfig != nil {
		r := &pb.Resources{}
		if o.MilliCPU != nil {
			r.MilliCpu = *o.MilliCPU
		}
		if o.MilliCPUMax != nil {
			r.MilliCpuMax = *o.MilliCPUMax
		}
		if o.MemoryMB != nil {
			r.MemoryMb = *o.MemoryMB
		}
		if o.MemoryMBMax != nil {
			r.MemoryMbMax = *o.MemoryMBMax
		}
		if o.GPUConfig != nil {
			r.GpuConfig = *o.GPUConfig
		}
		out.Resources = r
	}
	if o.Retries != nil {
		rp := &pb.FunctionRetryPolicy{Retries: *o.Retries}
		if o.BackoffCoefficient != nil {
			rp.BackoffCoefficient = *o.BackoffCoefficient
		}
		if o.InitialDelayMs != nil {
			rp.InitialDelayMs = *o.InitialDelayMs
		}
		if o.MaxDelayMs != nil {
			rp.MaxDelayMs = *o.MaxDelayMs
		}
		out.RetryPolicy = rp
	}
	if o.TimeoutSecs != nil {
		out.TimeoutSecs = *o.TimeoutSecs
	}
	if o.TaskIdleTimeoutSecs != nil {
		out.TaskIdleTimeoutSecs = *o.TaskIdleTimeoutSecs
	}
	for _, vm := range o.VolumeMounts {
		out.VolumeMounts = append(out.VolumeMounts, &pb.VolumeMount{
			VolumeId:               vm.VolumeID,
			MountPath:              vm.MountPath,
			AllowBackgroundCommits: vm.AllowBackgroundCommits,
			ReadOnly:               vm.ReadOnly,
		})
	}
	if o.Concurrency != nil {
		out.Concurrency = &pb.FunctionConcurrency{
			MaxConcurrentInputs:    o.Concurrency.MaxConcurrentInputs,
			TargetConcurrentInputs: o.Concurrency.TargetConcurrentInputs,
		}
	}
	if o.Batching != nil {
		out.BatchConfig = &pb.FunctionBatchConfig{
			MaxBatchSize: o.Batching.MaxBatchSize,
			MaxWaitMs:    o.Batching.MaxWaitMs,
		}
	}
	return out
}
