package wire

import (
	"context"

	"google.golang.org/grpc"
)

// Server is the nineteen-method request boundary spec §6 names, kept as
// one flat interface the way tinySQL's TinySQLServer is — a deliberately
// thin shim over the session/execruntime layers, not a full protocol
// stack (DESIGN.md).
type Server interface {
	BeginSession(context.Context, *BeginSessionRequest) (*BeginSessionResponse, error)
	EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error)
	ExecuteStatement(context.Context, *ExecuteStatementRequest) (*ExecuteStatementResponse, error)
	PrepareStatement(context.Context, *PrepareStatementRequest) (*PrepareStatementResponse, error)
	ExecutePrepare(context.Context, *ExecutePrepareRequest) (*ExecutePrepareResponse, error)
	ErasePrepareStatement(context.Context, *ErasePrepareStatementRequest) (*ErasePrepareStatementResponse, error)
	Sync(context.Context, *SyncRequest) (*SyncResponse, error)
	Disconnect(context.Context, *DisconnectRequest) (*DisconnectResponse, error)
	DeclareVariable(context.Context, *DeclareVariableRequest) (*DeclareVariableResponse, error)
	Checkpoint(context.Context, *CheckpointRequest) (*CheckpointResponse, error)
	StartExplain(context.Context, *StartExplainRequest) (*StartExplainResponse, error)
	EndExplain(context.Context, *EndExplainRequest) (*EndExplainResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	DropUser(context.Context, *DropUserRequest) (*DropUserResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*ChangePasswordResponse, error)
	CheckReplication(context.Context, *CheckReplicationRequest) (*CheckReplicationResponse, error)
	TransferLogicalLog(context.Context, *TransferLogicalLogRequest) (*TransferLogicalLogResponse, error)
	StartReplication(context.Context, *StartReplicationRequest) (*StartReplicationResponse, error)
	QueryProductVersion(context.Context, *QueryProductVersionRequest) (*QueryProductVersionResponse, error)
}

// RegisterServer wires srv into s the way tinySQL's registerTinySQLServer
// does: one grpc.ServiceDesc with a manually written MethodDesc per RPC,
// no .proto/protoc step.
func RegisterServer(s *grpc.Server, srv Server) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "sydney.Sydney",
		HandlerType: (*Server)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "BeginSession", Handler: beginSessionHandler},
			{MethodName: "EndSession", Handler: endSessionHandler},
			{MethodName: "ExecuteStatement", Handler: executeStatementHandler},
			{MethodName: "PrepareStatement", Handler: prepareStatementHandler},
			{MethodName: "ExecutePrepare", Handler: executePrepareHandler},
			{MethodName: "ErasePrepareStatement", Handler: erasePrepareStatementHandler},
			{MethodName: "Sync", Handler: syncHandler},
			{MethodName: "Disconnect", Handler: disconnectHandler},
			{MethodName: "DeclareVariable", Handler: declareVariableHandler},
			{MethodName: "Checkpoint", Handler: checkpointHandler},
			{MethodName: "StartExplain", Handler: startExplainHandler},
			{MethodName: "EndExplain", Handler: endExplainHandler},
			{MethodName: "CreateUser", Handler: createUserHandler},
			{MethodName: "DropUser", Handler: dropUserHandler},
			{MethodName: "ChangePassword", Handler: changePasswordHandler},
			{MethodName: "CheckReplication", Handler: checkReplicationHandler},
			{MethodName: "TransferLogicalLog", Handler: transferLogicalLogHandler},
			{MethodName: "StartReplication", Handler: startReplicationHandler},
			{MethodName: "QueryProductVersion", Handler: queryProductVersionHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "sydney",
	}, srv)
}

func beginSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BeginSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).BeginSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/BeginSession"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).BeginSession(ctx, req.(*BeginSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func endSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EndSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).EndSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/EndSession"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).EndSession(ctx, req.(*EndSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func executeStatementHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecuteStatementRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ExecuteStatement(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/ExecuteStatement"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).ExecuteStatement(ctx, req.(*ExecuteStatementRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func prepareStatementHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PrepareStatementRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).PrepareStatement(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/PrepareStatement"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).PrepareStatement(ctx, req.(*PrepareStatementRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func executePrepareHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecutePrepareRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ExecutePrepare(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/ExecutePrepare"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).ExecutePrepare(ctx, req.(*ExecutePrepareRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func erasePrepareStatementHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ErasePrepareStatementRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ErasePrepareStatement(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/ErasePrepareStatement"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).ErasePrepareStatement(ctx, req.(*ErasePrepareStatementRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func syncHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SyncRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Sync(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/Sync"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Sync(ctx, req.(*SyncRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func disconnectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DisconnectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Disconnect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/Disconnect"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Disconnect(ctx, req.(*DisconnectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func declareVariableHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeclareVariableRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).DeclareVariable(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/DeclareVariable"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).DeclareVariable(ctx, req.(*DeclareVariableRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkpointHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckpointRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Checkpoint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/Checkpoint"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Checkpoint(ctx, req.(*CheckpointRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func startExplainHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartExplainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).StartExplain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/StartExplain"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).StartExplain(ctx, req.(*StartExplainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func endExplainHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EndExplainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).EndExplain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/EndExplain"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).EndExplain(ctx, req.(*EndExplainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).CreateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/CreateUser"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).CreateUser(ctx, req.(*CreateUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func dropUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DropUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).DropUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/DropUser"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).DropUser(ctx, req.(*DropUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func changePasswordHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChangePasswordRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ChangePassword(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/ChangePassword"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).ChangePassword(ctx, req.(*ChangePasswordRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkReplicationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckReplicationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).CheckReplication(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/CheckReplication"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).CheckReplication(ctx, req.(*CheckReplicationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func transferLogicalLogHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TransferLogicalLogRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).TransferLogicalLog(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/TransferLogicalLog"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).TransferLogicalLog(ctx, req.(*TransferLogicalLogRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func startReplicationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartReplicationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).StartReplication(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/StartReplication"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).StartReplication(ctx, req.(*StartReplicationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func queryProductVersionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QueryProductVersionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).QueryProductVersion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sydney.Sydney/QueryProductVersion"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).QueryProductVersion(ctx, req.(*QueryProductVersionRequest))
	}
	return interceptor(ctx, in, info, handler)
}
