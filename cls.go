package modal

import (
	"context"
	"sort"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// Cls is a handle to a deployed parameterized class: a Function whose
// HandleMetadata carries ClassParameterInfo describing its constructor
// schema.
type Cls struct {
	fn *Function
}

// ClsLookup resolves a parameterized class by app and name.
func ClsLookup(ctx context.Context, client *Client, appName, tag, environment string) (*Cls, error) {
	fn, err := FunctionLookup(ctx, client, appName, tag, environment)
	if err != nil {
		return nil, err
	}
	if fn.handle == nil || fn.handle.ClassParameterInfo == nil {
		return nil, InvalidArgumentError(appName + "." + tag + " is not a parameterized class")
	}
	return &Cls{fn: fn}, nil
}

// Instantiate binds named constructor parameters to a concrete
// ClsInstance, deterministically encoding them sorted lexicographically by
// name so that two callers passing the same parameters in different map
// orders produce byte-identical wire payloads.
func (c *Cls) Instantiate(ctx context.Context, params map[string]any) (*ClsInstance, error) {
	encoded, err := encodeClassParameters(c.fn.handle.ClassParameterInfo, params)
	if err != nil {
		return nil, err
	}

	resp, err := c.fn.client.control.FunctionBindParams(ctx, &pb.FunctionBindParamsRequest{
		FunctionId:       c.fn.functionID,
		SerializedParams: encoded,
		FunctionOptions:  c.fn.options.toProto(),
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}

	bound := &Function{client: c.fn.client, functionID: resp.BoundFunctionId, handle: c.fn.handle}
	return &ClsInstance{fn: bound}, nil
}

// ClsInstance is one bound instantiation of a Cls; Method looks up a
// callable Function for one of its methods.
type ClsInstance struct {
	fn *Function
}

func (ci *ClsInstance) Method(name string) *Function {
	return ci.fn.boundMethod(name)
}

// encodeClassParameters builds the deterministic ClassParameterSet wire
// payload: parameters are emitted sorted lexicographically by name (a
// sorted copy of the schema is made here, whatever order the schema lists
// them in), never in the caller-supplied map's iteration order, so the
// encoding is stable
// regardless of how the caller constructed params. A parameter missing from
// params is filled from its schema default when one is declared; every
// value, whether caller-supplied or defaulted, is type-checked against its
// declared ClassParameterType before being encoded.
func encodeClassParameters(info *pb.ClassParameterInfo, params map[string]any) ([]byte, error) {
	schema := make([]*pb.ClassParameterSpec, len(info.Schema))
	copy(schema, info.Schema)
	sort.Slice(schema, func(i, j int) bool { return schema[i].Name < schema[j].Name })

	ordered := make([]any, 0, len(schema))
	for _, spec := range schema {
		v, ok := params[spec.Name]
		if !ok {
			if !spec.HasDefault {
				return nil, InvalidArgumentError("missing required class parameter: " + spec.Name)
			}
			v = spec.DefaultValue
		}
		if err := checkClassParameterType(spec, v); err != nil {
			return nil, err
		}
		ordered = append(ordered, classParamPair{Name: spec.Name, Value: v})
	}

	return encodeCBORDeterministic(ordered)
}

// checkClassParameterType verifies v's Go type matches what spec.Type
// requires before it is handed to the encoder, catching mismatches at the
// call site instead of surfacing an opaque server-side rejection.
func checkClassParameterType(spec *pb.ClassParameterSpec, v any) error {
	var ok bool
	switch spec.Type {
	case pb.ClassParameterTypeString:
		_, ok = v.(string)
	case pb.ClassParameterTypeInt:
		switch v.(type) {
		case int, int32, int64:
			ok = true
		}
	case pb.ClassParameterTypeFloat:
		switch v.(type) {
		case float32, float64:
			ok = true
		}
	case pb.ClassParameterTypeBool:
		_, ok = v.(bool)
	case pb.ClassParameterTypeBytes:
		_, ok = v.([]byte)
	default:
		ok = true // unspecified type: nothing to check against.
	}
	if !ok {
		return InvalidArgumentError("class parameter " + spec.Name + " has the wrong type for its schema")
	}
	return nil
}

type classParamPair struct {
	Name  string
	Value any
}

// encodeCBORDeterministic uses canonical CBOR encoding (the RFC 7049
// "Canonical CBOR" rules of cbor.CanonicalEncOptions, via newCBORCodec) so
// the same logical parameter set always produces
// identical bytes regardless of call order.
func encodeCBORDeterministic(v any) ([]byte, error) {
	codec, err := newCBORCodec()
	if err != nil {
		return nil, err
	}
	return codec.Marshal(v)
}
