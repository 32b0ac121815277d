// Command server exposes one nanoDB database over gRPC.
//
// The service is registered with a hand-written ServiceDesc and a JSON
// codec, so no protobuf toolchain is involved. The engine itself is
// single-threaded; the server serializes all table access behind a
// mutex. An optional cron schedule flushes resident pages to disk while
// the server runs, so a crash loses at most one autosave interval.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/SimonWaldherr/nanoDB/internal/storage"
	"github.com/SimonWaldherr/nanoDB/internal/storage/pager"
)

var (
	flagDB       = flag.String("db", "", "Database file path (required)")
	flagGRPC     = flag.String("grpc", ":9090", "gRPC listen address")
	flagAutosave = flag.String("autosave", "", "Cron schedule for background flushes, e.g. '@every 30s' (empty to disable)")
	flagVerbose  = flag.Bool("v", false, "Verbose request logging")
)

// Wire types. The JSON codec marshals these directly.
type insertRequest struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type insertResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type selectRequest struct{}
type selectResponse struct {
	Rows     []rowJSON `json:"rows"`
	Count    int       `json:"count"`
	Duration string    `json:"duration"`
}
type rowJSON struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// gRPC JSON codec
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// gRPC service interface and descriptors (manual, no protobuf)
type NanoDBServer interface {
	Insert(context.Context, *insertRequest) (*insertResponse, error)
	Select(context.Context, *selectRequest) (*selectResponse, error)
}

func registerNanoDBServer(s *grpc.Server, srv NanoDBServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "nanodb.NanoDB",
		HandlerType: (*NanoDBServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Insert", Handler: _NanoDB_Insert_Handler},
			{MethodName: "Select", Handler: _NanoDB_Select_Handler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "nanodb", // informational
	}, srv)
}

func _NanoDB_Insert_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(insertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NanoDBServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/nanodb.NanoDB/Insert"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NanoDBServer).Insert(ctx, req.(*insertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _NanoDB_Select_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(selectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NanoDBServer).Select(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/nanodb.NanoDB/Select"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NanoDBServer).Select(ctx, req.(*selectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// server state. The mutex is the whole concurrency story: the engine
// underneath is strictly single-threaded.
type server struct {
	mu    sync.Mutex
	table *storage.Table
}

func (s *server) Insert(ctx context.Context, req *insertRequest) (*insertResponse, error) {
	start := time.Now()
	reqID := uuid.NewString()

	if len(req.Username) > pager.UsernameSize || len(req.Email) > pager.EmailSize {
		if *flagVerbose {
			log.Printf("req=%s insert id=%d string too long (%s)", reqID, req.ID, time.Since(start))
		}
		return &insertResponse{Error: "string is too long", Duration: time.Since(start).String()}, nil
	}

	s.mu.Lock()
	err := s.table.Insert(pager.Row{ID: req.ID, Username: req.Username, Email: req.Email})
	s.mu.Unlock()

	if errors.Is(err, storage.ErrTableFull) {
		if *flagVerbose {
			log.Printf("req=%s insert id=%d table full (%s)", reqID, req.ID, time.Since(start))
		}
		return &insertResponse{Error: "table full", Duration: time.Since(start).String()}, nil
	}
	if err != nil {
		// Storage errors are fatal for the engine; log them and return the
		// error to the client. The server itself keeps running.
		log.Printf("req=%s insert id=%d storage error: %v", reqID, req.ID, err)
		return nil, err
	}
	if *flagVerbose {
		log.Printf("req=%s insert id=%d ok (%s)", reqID, req.ID, time.Since(start))
	}
	return &insertResponse{Success: true, Duration: time.Since(start).String()}, nil
}

func (s *server) Select(ctx context.Context, req *selectRequest) (*selectResponse, error) {
	start := time.Now()
	reqID := uuid.NewString()

	s.mu.Lock()
	var rows []rowJSON
	err := s.table.Scan(func(r pager.Row) bool {
		rows = append(rows, rowJSON{ID: r.ID, Username: r.Username, Email: r.Email})
		return true
	})
	s.mu.Unlock()

	if err != nil {
		log.Printf("req=%s select storage error: %v", reqID, err)
		return nil, err
	}
	if *flagVerbose {
		log.Printf("req=%s select %d rows (%s)", reqID, len(rows), time.Since(start))
	}
	return &selectResponse{Rows: rows, Count: len(rows), Duration: time.Since(start).String()}, nil
}

func main() {
	flag.Parse()
	if *flagDB == "" {
		fmt.Fprintln(os.Stderr, "Must supply a database filename (-db).")
		os.Exit(1)
	}

	table, err := storage.Open(*flagDB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	srv := &server{table: table}

	if info, err := pager.Inspect(*flagDB); err == nil {
		log.Printf("database %s: %d bytes, %d pages, %d rows", info.Path, info.FileSize, info.NumPages, info.RootCells)
	}

	// Background autosave. Runs under the same mutex as requests so the
	// engine never sees concurrent access.
	var saver *cron.Cron
	if *flagAutosave != "" {
		saver = cron.New()
		if _, err := saver.AddFunc(*flagAutosave, func() {
			srv.mu.Lock()
			err := table.Flush()
			srv.mu.Unlock()
			if err != nil {
				log.Printf("autosave flush: %v", err)
				return
			}
			if *flagVerbose {
				log.Printf("autosave flush ok")
			}
		}); err != nil {
			log.Fatalf("autosave schedule %q: %v", *flagAutosave, err)
		}
		saver.Start()
		log.Printf("autosave enabled: %s", *flagAutosave)
	}

	encoding.RegisterCodec(jsonCodec{})
	lis, err := net.Listen("tcp", *flagGRPC)
	if err != nil {
		log.Fatalf("listen %s: %v", *flagGRPC, err)
	}
	gs := grpc.NewServer(grpc.ForceServerCodec(jsonCodec{}))
	registerNanoDBServer(gs, srv)

	// Orderly shutdown: stop accepting, drain the cron, flush and close.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("signal %s: shutting down", sig)
		gs.GracefulStop()
	}()

	log.Printf("nanodb server listening on %s (db %s)", *flagGRPC, *flagDB)
	if err := gs.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}

	if saver != nil {
		<-saver.Stop().Done()
	}
	srv.mu.Lock()
	err = table.Close()
	srv.mu.Unlock()
	if err != nil {
		log.Fatalf("close database: %v", err)
	}
	log.Printf("database closed")
}
