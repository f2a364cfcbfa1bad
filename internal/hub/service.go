// Package hub wires the database registry, the default state database and
// the federated access layer into one service. All reads and writes issued
// through the service go through the federated database, so callers only
// ever see public IDs.
package hub

import (
	"context"
	"time"

	"obshub/internal/federated"
	"obshub/internal/registry"
	"obshub/pkg/datastore"
)

// Service is the composition root of the observation hub.
type Service struct {
	log     Logger
	metrics MetricsRecorder
	tracer  Tracer

	reg       *registry.Registry
	defaultDB datastore.LocalDatabase
	fed       *federated.Database
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger installs a logger. The default discards all messages.
func WithLogger(log Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithMetricsRecorder installs a metrics recorder. The default discards all
// observations.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer installs a tracer. The default is a no-op.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tr }
}

// WithDefaultDatabase replaces the default state database. The database must
// report number 0.
func WithDefaultDatabase(db datastore.LocalDatabase) ServiceOption {
	return func(s *Service) { s.defaultDB = db }
}

type registryLogger struct {
	log Logger
}

func (l registryLogger) Info(msg string, kv ...any) { l.log.Info(msg, kv...) }
func (l registryLogger) Warn(msg string, kv ...any) { l.log.Warn(msg, kv...) }

// NewService builds a hub service. The default database is registered under
// number 0 and absorbs writes whose procedure UID no other database claims.
func NewService(opts ...ServiceOption) (*Service, error) {
	s := &Service{
		log:     noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultDB == nil {
		db, err := OpenLocalDatabase(registry.DefaultDatabaseNum)
		if err != nil {
			return nil, err
		}
		s.defaultDB = db
	}
	s.reg = registry.New(registry.WithLogger(registryLogger{log: s.log}))
	if err := s.reg.Register(s.defaultDB); err != nil {
		return nil, err
	}
	s.fed = federated.NewDatabase(s.reg)
	return s, nil
}

// Registry exposes the database registry for registration management.
func (s *Service) Registry() *registry.Registry { return s.reg }

// Federated returns the federated database. All keys and references it
// exposes are public IDs.
func (s *Service) Federated() datastore.ObsDatabase { return s.fed }

// DefaultDatabase returns the default state database.
func (s *Service) DefaultDatabase() datastore.LocalDatabase { return s.defaultDB }

// RegisterDatabase adds db to the federation, claiming the given procedure
// UIDs. Patterns may carry a trailing "*" wildcard.
func (s *Service) RegisterDatabase(ctx context.Context, db datastore.LocalDatabase, uids ...string) (err error) {
	defer s.instrument(ctx, "database.register", time.Now())(&err)
	err = s.reg.Register(db, registry.WithHandledUIDs(uids...))
	if err == nil {
		s.log.Info("database registered", "databaseNum", db.DatabaseNum(), "uids", len(uids))
	}
	return err
}

// UnregisterDatabase removes db and all its UID claims from the federation.
func (s *Service) UnregisterDatabase(ctx context.Context, db datastore.LocalDatabase) {
	var err error
	defer s.instrument(ctx, "database.unregister", time.Now())(&err)
	s.reg.Unregister(db)
	s.log.Info("database unregistered", "databaseNum", db.DatabaseNum())
}

// AddProcedure routes the procedure to the database claiming its UID and
// returns the public key.
func (s *Service) AddProcedure(ctx context.Context, p datastore.Procedure) (key datastore.FeatureKey, err error) {
	defer s.instrument(ctx, "procedure.add", time.Now())(&err)
	return s.fed.Procedures().Add(ctx, p)
}

// AddDataStream registers a new data stream under its parent procedure's
// database.
func (s *Service) AddDataStream(ctx context.Context, ds datastore.DataStreamInfo) (key datastore.DataStreamKey, err error) {
	defer s.instrument(ctx, "datastream.add", time.Now())(&err)
	return s.fed.Observations().DataStreams().Add(ctx, ds)
}

// AddObservation stores one observation in the database owning its data
// stream.
func (s *Service) AddObservation(ctx context.Context, o datastore.ObsData) (key datastore.BigID, err error) {
	defer s.instrument(ctx, "observation.add", time.Now())(&err)
	return s.fed.Observations().Add(ctx, o)
}

// AddCommand stores one command in the database owning its command stream.
func (s *Service) AddCommand(ctx context.Context, c datastore.CommandData) (key datastore.BigID, err error) {
	defer s.instrument(ctx, "command.add", time.Now())(&err)
	return s.fed.Commands().Add(ctx, c)
}

// SelectObservations runs a federated observation query and collects the
// merged result.
func (s *Service) SelectObservations(ctx context.Context, f *datastore.ObsFilter) (out []datastore.Entry[datastore.BigID, datastore.ObsData], err error) {
	defer s.instrument(ctx, "observation.select", time.Now())(&err)
	for e, seqErr := range s.fed.Observations().SelectEntries(ctx, f) {
		if seqErr != nil {
			return nil, seqErr
		}
		out = append(out, e)
	}
	return out, nil
}

// CountObservations counts matches across all federated databases.
func (s *Service) CountObservations(ctx context.Context, f *datastore.ObsFilter) (n int64, err error) {
	defer s.instrument(ctx, "observation.count", time.Now())(&err)
	return s.fed.Observations().Count(ctx, f)
}

// RemoveProcedure removes a procedure by unique ID, with all its data
// streams, observations and command history.
func (s *Service) RemoveProcedure(ctx context.Context, uid string) (key datastore.FeatureKey, err error) {
	defer s.instrument(ctx, "procedure.remove", time.Now())(&err)
	return s.fed.Procedures().RemoveByUID(ctx, uid)
}

// instrument opens a trace span and returns the closure that records the
// operation outcome. Use with defer: the *error must be the named return.
func (s *Service) instrument(ctx context.Context, operation string, start time.Time) func(*error) {
	_, span := s.tracer.Start(ctx, operation)
	return func(errp *error) {
		err := *errp
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
		if err != nil {
			s.log.Warn("operation failed", "operation", operation, "error", err)
		}
	}
}
