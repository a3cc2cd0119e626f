package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sinkQueueSize = 2048
	sinkBatchSize = 50
	sinkFlushTick = 2 * time.Second
)

// Entry is the document written to the logs collection.
type Entry struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// inserter is the part of *mongo.Collection the sink needs.
type inserter interface {
	InsertMany(ctx context.Context, docs []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// sink owns the queue and the background writer shared by all derived handlers.
type sink struct {
	col     inserter
	queue   chan Entry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// MongoHandler is a slog.Handler that stores records in MongoDB asynchronously.
// Records are dropped, never blocked on, when the queue is full.
type MongoHandler struct {
	sink   *sink
	level  slog.Level
	attrs  []slog.Attr
	prefix string
	client *mongo.Client
}

// NewMongoHandler connects to uri and writes Info and above to the "logs" collection of db.
func NewMongoHandler(ctx context.Context, uri, db string) (*MongoHandler, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(5))
	if err != nil {
		return nil, fmt.Errorf("log sink: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("log sink: ping: %w", err)
	}

	col := client.Database(db).Collection("logs")
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "time", Value: -1}}})

	h := newMongoHandler(col, slog.LevelInfo)
	h.client = client
	return h, nil
}

func newMongoHandler(col inserter, level slog.Level) *MongoHandler {
	s := &sink{
		col:     col,
		queue:   make(chan Entry, sinkQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return &MongoHandler{sink: s, level: level}
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Time: r.Time, Level: r.Level.String(), Msg: r.Message, Attrs: bson.M{}}
	add := func(a slog.Attr) bool {
		if a.Key == "request_id" {
			e.RequestID = a.Value.String()
			return true
		}
		e.Attrs[h.prefix+a.Key] = attrValue(a.Value)
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	select {
	case h.sink.queue <- e:
	default:
	}
	return nil
}

// attrValue stores errors and Stringers as their text.
func attrValue(v slog.Value) interface{} {
	v = v.Resolve()
	if v.Kind() != slog.KindAny {
		return v.Any()
	}
	switch x := v.Any().(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return x
	}
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.prefix = h.prefix + strings.TrimSpace(name) + "."
	return &c
}

// Close flushes pending entries and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() {
	h.sink.once.Do(func() { close(h.sink.done) })
	<-h.sink.stopped
	if h.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.client.Disconnect(ctx)
	}
}

func (s *sink) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(sinkFlushTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, sinkBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = s.col.InsertMany(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= sinkBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}
