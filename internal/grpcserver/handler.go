package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/patric-chuzhbe/exercisetracker/internal/faults"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

type userDirectory interface {
	Create(ctx context.Context, userName string) (models.UserSummary, error)
	ListAll(ctx context.Context) ([]models.UserSummary, error)
}

type exerciseLog interface {
	Append(ctx context.Context, raw models.RawExercise) (models.AddExerciseResponse, error)
	Query(ctx context.Context, query models.LogQuery) (models.UserLog, error)
}

// TrackerHandler serves the tracker service on top of the directory and
// the exercise log.
type TrackerHandler struct {
	users     userDirectory
	exercises exerciseLog
}

func NewTrackerHandler(users userDirectory, exercises exerciseLog) *TrackerHandler {
	return &TrackerHandler{
		users:     users,
		exercises: exercises,
	}
}

func (h *TrackerHandler) CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	created, err := h.users.Create(ctx, stringValue(in, "username"))
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(created)
}

func (h *TrackerHandler) ListUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	users, err := h.users.ListAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(map[string]any{"users": users})
}

func (h *TrackerHandler) AddExercise(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := h.exercises.Append(ctx, models.RawExercise{
		UserID:      stringValue(in, "userId"),
		Description: stringValue(in, "description"),
		Duration:    rawValue(in, "duration"),
		Date:        stringValue(in, "date"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(result)
}

func (h *TrackerHandler) GetLog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := h.exercises.Query(ctx, models.LogQuery{
		UserID: stringValue(in, "userId"),
		From:   stringValue(in, "from"),
		To:     stringValue(in, "to"),
		Limit:  stringValue(in, "limit"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(result)
}

func rawValue(in *structpb.Struct, key string) any {
	value, ok := in.GetFields()[key]
	if !ok {
		return nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func stringValue(in *structpb.Struct, key string) string {
	switch v := rawValue(in, key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// toStruct goes through JSON so the gRPC answers carry exactly the HTTP field names.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, faults.MsgInternal)
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Error(codes.Internal, faults.MsgInternal)
	}

	result, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, faults.MsgInternal)
	}

	return result, nil
}

func toStatus(err error) error {
	var fault *faults.Error
	if !errors.As(err, &fault) {
		return status.Error(codes.Internal, faults.MsgInternal)
	}

	switch fault.Kind {
	case faults.KindValidation:
		return status.Error(codes.InvalidArgument, fault.FirstFieldMessage())
	case faults.KindDuplicateName:
		return status.Error(codes.AlreadyExists, fault.Error())
	case faults.KindUserNotFound:
		return status.Error(codes.NotFound, fault.Error())
	case faults.KindStore:
		return status.Error(codes.Unavailable, fault.Error())
	case faults.KindNotFound:
		return status.Error(codes.NotFound, fault.Error())
	default:
		return status.Error(codes.Internal, faults.MsgInternal)
	}
}
