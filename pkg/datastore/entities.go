package datastore

import "time"

// FeatureKey identifies one version of a feature resource (procedure or
// feature of interest). InternalID is stable across versions; ValidStart
// discriminates versions of the same feature over time.
type FeatureKey struct {
	InternalID int64
	ValidStart time.Time
}

// DataStreamKey identifies a data stream within a store.
type DataStreamKey int64

// CommandStreamKey identifies a command stream within a store.
type CommandStreamKey int64

// Procedure describes a sensor, actuator, process or procedure group.
type Procedure struct {
	UniqueID    string
	Name        string
	Description string
	// ParentID is the internal ID of the procedure group this procedure
	// belongs to, or 0 for top-level procedures.
	ParentID  int64
	ValidTime TimeRange
}

// DataStreamInfo describes one output of a procedure and the series of
// observations produced on it.
type DataStreamInfo struct {
	ProcedureID int64
	OutputName  string
	ValidTime   TimeRange
	// RecordSchema names the record structure of results in this stream.
	RecordSchema string
}

// ObsData is a single observation.
type ObsData struct {
	DataStreamID   int64
	FoiID          int64 // 0 when the observation has no feature of interest
	PhenomenonTime time.Time
	ResultTime     time.Time
	Result         map[string]any
}

// Clone returns a deep copy of the observation.
func (o ObsData) Clone() ObsData {
	cp := o
	if o.Result != nil {
		cp.Result = make(map[string]any, len(o.Result))
		for k, v := range o.Result {
			cp.Result[k] = v
		}
	}
	return cp
}

// CommandStreamInfo describes one taskable parameter of a procedure and the
// series of commands received on it.
type CommandStreamInfo struct {
	ProcedureID int64
	CommandName string
	ValidTime   TimeRange
}

// CommandData is a single command issued on a command stream.
type CommandData struct {
	CommandStreamID int64
	SenderID        string
	IssueTime       time.Time
	Params          map[string]any
}

// Clone returns a deep copy of the command.
func (c CommandData) Clone() CommandData {
	cp := c
	if c.Params != nil {
		cp.Params = make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			cp.Params[k] = v
		}
	}
	return cp
}

// CommandStatusCode enumerates command execution states.
type CommandStatusCode string

const (
	CommandPending   CommandStatusCode = "PENDING"
	CommandAccepted  CommandStatusCode = "ACCEPTED"
	CommandExecuting CommandStatusCode = "EXECUTING"
	CommandCompleted CommandStatusCode = "COMPLETED"
	CommandFailed    CommandStatusCode = "FAILED"
	CommandRejected  CommandStatusCode = "REJECTED"
)

// CommandStatus is a status report attached to a command.
type CommandStatus struct {
	CommandID  BigID
	ReportTime time.Time
	Code       CommandStatusCode
	Message    string
}

// FeatureOfInterest describes a sampled or sampling feature that
// observations relate to.
type FeatureOfInterest struct {
	UniqueID    string
	Name        string
	Description string
	Geometry    Bbox
	ValidTime   TimeRange
}
