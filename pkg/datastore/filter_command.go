package datastore

import "slices"

// CommandStreamFilter selects command streams. All predicates are ANDed; a
// nil filter or an absent predicate is unconstrained.
type CommandStreamFilter struct {
	internalIDs  []int64
	commandNames []string
	validTime    *TimeRange
	limit        int64
	procedures   *ProcedureFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *CommandStreamFilter) InternalIDs() []int64 {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// CommandNames returns the taskable parameter name constraint, or nil.
func (f *CommandStreamFilter) CommandNames() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.commandNames)
}

// ValidTime returns the validity time constraint, or nil.
func (f *CommandStreamFilter) ValidTime() *TimeRange {
	if f == nil || f.validTime == nil {
		return nil
	}
	r := *f.validTime
	return &r
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *CommandStreamFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// Procedures returns the nested filter on the receiving procedure, or nil.
func (f *CommandStreamFilter) Procedures() *ProcedureFilter {
	if f == nil {
		return nil
	}
	return f.procedures
}

// Intersect computes the logical AND of two command stream filters.
func (f *CommandStreamFilter) Intersect(other *CommandStreamFilter) (*CommandStreamFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &CommandStreamFilter{}
	var err error
	if out.internalIDs, err = intersectInt64s(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.commandNames, err = intersectStrings(f.commandNames, other.commandNames); err != nil {
		return nil, err
	}
	if out.validTime, err = intersectTimeRange(f.validTime, other.validTime); err != nil {
		return nil, err
	}
	if out.procedures, err = f.procedures.Intersect(other.procedures); err != nil {
		return nil, err
	}
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a command stream
// entry.
func (f *CommandStreamFilter) Matches(key CommandStreamKey, cs CommandStreamInfo) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearch(f.internalIDs, int64(key)); !ok {
			return false
		}
	}
	if len(f.commandNames) > 0 {
		if _, ok := slices.BinarySearch(f.commandNames, cs.CommandName); !ok {
			return false
		}
	}
	if f.validTime != nil {
		if _, ok := f.validTime.Intersect(cs.ValidTime); !ok {
			return false
		}
	}
	return true
}

// CommandStreamFilterBuilder accumulates predicates for a
// CommandStreamFilter.
type CommandStreamFilterBuilder struct {
	f CommandStreamFilter
}

// NewCommandStreamFilter returns an empty builder.
func NewCommandStreamFilter() *CommandStreamFilterBuilder {
	return &CommandStreamFilterBuilder{}
}

// CommandStreamFilterFrom returns a builder pre-populated from base.
func CommandStreamFilterFrom(base *CommandStreamFilter) *CommandStreamFilterBuilder {
	b := &CommandStreamFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only command streams with the given internal IDs.
func (b *CommandStreamFilterBuilder) WithInternalIDs(ids ...int64) *CommandStreamFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithCommandNames keeps only command streams for the named taskable
// parameters.
func (b *CommandStreamFilterBuilder) WithCommandNames(names ...string) *CommandStreamFilterBuilder {
	b.f.commandNames = names
	return b
}

// WithValidTime keeps only command streams valid during the range.
func (b *CommandStreamFilterBuilder) WithValidTime(r TimeRange) *CommandStreamFilterBuilder {
	b.f.validTime = &r
	return b
}

// WithLimit caps the number of results.
func (b *CommandStreamFilterBuilder) WithLimit(n int64) *CommandStreamFilterBuilder {
	b.f.limit = n
	return b
}

// WithProcedures keeps only command streams received by matching
// procedures.
func (b *CommandStreamFilterBuilder) WithProcedures(filter *ProcedureFilter) *CommandStreamFilterBuilder {
	b.f.procedures = filter
	return b
}

// WithProcedureUIDs keeps only command streams received by the procedures
// with the given unique IDs.
func (b *CommandStreamFilterBuilder) WithProcedureUIDs(uids ...string) *CommandStreamFilterBuilder {
	b.f.procedures = NewProcedureFilter().WithUniqueIDs(uids...).Build()
	return b
}

// Build freezes and returns the filter.
func (b *CommandStreamFilterBuilder) Build() *CommandStreamFilter {
	f := b.f
	f.internalIDs = normInt64s(f.internalIDs)
	f.commandNames = normStrings(f.commandNames)
	return &f
}

// CommandFilter selects commands. All predicates are ANDed; a nil filter or
// an absent predicate is unconstrained.
type CommandFilter struct {
	internalIDs    []BigID
	senderIDs      []string
	issueTime      *TimeRange
	limit          int64
	commandStreams *CommandStreamFilter
	status         *CommandStatusFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *CommandFilter) InternalIDs() []BigID {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// SenderIDs returns the sender constraint, or nil.
func (f *CommandFilter) SenderIDs() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.senderIDs)
}

// IssueTime returns the issue time constraint, or nil.
func (f *CommandFilter) IssueTime() *TimeRange {
	if f == nil || f.issueTime == nil {
		return nil
	}
	r := *f.issueTime
	return &r
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *CommandFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// CommandStreams returns the nested filter on the parent command stream,
// or nil.
func (f *CommandFilter) CommandStreams() *CommandStreamFilter {
	if f == nil {
		return nil
	}
	return f.commandStreams
}

// Status returns the nested filter on status reports, or nil.
func (f *CommandFilter) Status() *CommandStatusFilter {
	if f == nil {
		return nil
	}
	return f.status
}

// Intersect computes the logical AND of two command filters.
func (f *CommandFilter) Intersect(other *CommandFilter) (*CommandFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &CommandFilter{}
	var err error
	if out.internalIDs, err = intersectBigIDs(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.senderIDs, err = intersectStrings(f.senderIDs, other.senderIDs); err != nil {
		return nil, err
	}
	if out.issueTime, err = intersectTimeRange(f.issueTime, other.issueTime); err != nil {
		return nil, err
	}
	if out.commandStreams, err = f.commandStreams.Intersect(other.commandStreams); err != nil {
		return nil, err
	}
	if out.status, err = f.status.Intersect(other.status); err != nil {
		return nil, err
	}
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a command entry.
func (f *CommandFilter) Matches(key BigID, cmd CommandData) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearchFunc(f.internalIDs, key, BigID.Cmp); !ok {
			return false
		}
	}
	if len(f.senderIDs) > 0 {
		if _, ok := slices.BinarySearch(f.senderIDs, cmd.SenderID); !ok {
			return false
		}
	}
	if f.issueTime != nil && !f.issueTime.Contains(cmd.IssueTime) {
		return false
	}
	return true
}

// CommandFilterBuilder accumulates predicates for a CommandFilter.
type CommandFilterBuilder struct {
	f CommandFilter
}

// NewCommandFilter returns an empty builder.
func NewCommandFilter() *CommandFilterBuilder {
	return &CommandFilterBuilder{}
}

// CommandFilterFrom returns a builder pre-populated from base.
func CommandFilterFrom(base *CommandFilter) *CommandFilterBuilder {
	b := &CommandFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only commands with the given internal IDs.
func (b *CommandFilterBuilder) WithInternalIDs(ids ...BigID) *CommandFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithSenderIDs keeps only commands issued by the given senders.
func (b *CommandFilterBuilder) WithSenderIDs(ids ...string) *CommandFilterBuilder {
	b.f.senderIDs = ids
	return b
}

// WithIssueTime keeps only commands issued during the range.
func (b *CommandFilterBuilder) WithIssueTime(r TimeRange) *CommandFilterBuilder {
	b.f.issueTime = &r
	return b
}

// WithLimit caps the number of results.
func (b *CommandFilterBuilder) WithLimit(n int64) *CommandFilterBuilder {
	b.f.limit = n
	return b
}

// WithCommandStreams keeps only commands on matching command streams.
func (b *CommandFilterBuilder) WithCommandStreams(filter *CommandStreamFilter) *CommandFilterBuilder {
	b.f.commandStreams = filter
	return b
}

// WithCommandStreamIDs keeps only commands on the command streams with the
// given internal IDs.
func (b *CommandFilterBuilder) WithCommandStreamIDs(ids ...int64) *CommandFilterBuilder {
	b.f.commandStreams = NewCommandStreamFilter().WithInternalIDs(ids...).Build()
	return b
}

// WithStatus keeps only commands with matching status reports.
func (b *CommandFilterBuilder) WithStatus(filter *CommandStatusFilter) *CommandFilterBuilder {
	b.f.status = filter
	return b
}

// Build freezes and returns the filter.
func (b *CommandFilterBuilder) Build() *CommandFilter {
	f := b.f
	f.internalIDs = normBigIDs(f.internalIDs)
	f.senderIDs = normStrings(f.senderIDs)
	return &f
}

// CommandStatusFilter selects command status reports. All predicates are
// ANDed; a nil filter or an absent predicate is unconstrained.
type CommandStatusFilter struct {
	internalIDs []BigID
	statusCodes []CommandStatusCode
	reportTime  *TimeRange
	limit       int64
	commands    *CommandFilter
}

// InternalIDs returns the internal ID constraint, or nil.
func (f *CommandStatusFilter) InternalIDs() []BigID {
	if f == nil {
		return nil
	}
	return slices.Clone(f.internalIDs)
}

// StatusCodes returns the status code constraint, or nil.
func (f *CommandStatusFilter) StatusCodes() []CommandStatusCode {
	if f == nil {
		return nil
	}
	return slices.Clone(f.statusCodes)
}

// ReportTime returns the report time constraint, or nil.
func (f *CommandStatusFilter) ReportTime() *TimeRange {
	if f == nil || f.reportTime == nil {
		return nil
	}
	r := *f.reportTime
	return &r
}

// Limit returns the maximum number of results, 0 meaning unlimited.
func (f *CommandStatusFilter) Limit() int64 {
	if f == nil {
		return 0
	}
	return f.limit
}

// Commands returns the nested filter on the parent command, or nil.
func (f *CommandStatusFilter) Commands() *CommandFilter {
	if f == nil {
		return nil
	}
	return f.commands
}

// Intersect computes the logical AND of two command status filters.
func (f *CommandStatusFilter) Intersect(other *CommandStatusFilter) (*CommandStatusFilter, error) {
	if f == nil {
		return other, nil
	}
	if other == nil {
		return f, nil
	}
	out := &CommandStatusFilter{}
	var err error
	if out.internalIDs, err = intersectBigIDs(f.internalIDs, other.internalIDs); err != nil {
		return nil, err
	}
	if out.statusCodes, err = intersectStatusCodes(f.statusCodes, other.statusCodes); err != nil {
		return nil, err
	}
	if out.reportTime, err = intersectTimeRange(f.reportTime, other.reportTime); err != nil {
		return nil, err
	}
	if out.commands, err = f.commands.Intersect(other.commands); err != nil {
		return nil, err
	}
	out.limit = mergeLimit(f.limit, other.limit)
	return out, nil
}

func intersectStatusCodes(a, b []CommandStatusCode) ([]CommandStatusCode, error) {
	if len(a) == 0 {
		return slices.Clone(b), nil
	}
	if len(b) == 0 {
		return slices.Clone(a), nil
	}
	var out []CommandStatusCode
	for _, code := range a {
		if slices.Contains(b, code) {
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyIntersection
	}
	return out, nil
}

// Matches evaluates the filter's scalar predicates against a status entry.
func (f *CommandStatusFilter) Matches(key BigID, st CommandStatus) bool {
	if f == nil {
		return true
	}
	if len(f.internalIDs) > 0 {
		if _, ok := slices.BinarySearchFunc(f.internalIDs, key, BigID.Cmp); !ok {
			return false
		}
	}
	if len(f.statusCodes) > 0 && !slices.Contains(f.statusCodes, st.Code) {
		return false
	}
	if f.reportTime != nil && !f.reportTime.Contains(st.ReportTime) {
		return false
	}
	return true
}

// CommandStatusFilterBuilder accumulates predicates for a
// CommandStatusFilter.
type CommandStatusFilterBuilder struct {
	f CommandStatusFilter
}

// NewCommandStatusFilter returns an empty builder.
func NewCommandStatusFilter() *CommandStatusFilterBuilder {
	return &CommandStatusFilterBuilder{}
}

// CommandStatusFilterFrom returns a builder pre-populated from base.
func CommandStatusFilterFrom(base *CommandStatusFilter) *CommandStatusFilterBuilder {
	b := &CommandStatusFilterBuilder{}
	if base != nil {
		b.f = *base
	}
	return b
}

// WithInternalIDs keeps only status reports with the given internal IDs.
func (b *CommandStatusFilterBuilder) WithInternalIDs(ids ...BigID) *CommandStatusFilterBuilder {
	b.f.internalIDs = ids
	return b
}

// WithStatusCodes keeps only reports carrying one of the given codes.
func (b *CommandStatusFilterBuilder) WithStatusCodes(codes ...CommandStatusCode) *CommandStatusFilterBuilder {
	b.f.statusCodes = codes
	return b
}

// WithReportTime keeps only reports produced during the range.
func (b *CommandStatusFilterBuilder) WithReportTime(r TimeRange) *CommandStatusFilterBuilder {
	b.f.reportTime = &r
	return b
}

// WithLimit caps the number of results.
func (b *CommandStatusFilterBuilder) WithLimit(n int64) *CommandStatusFilterBuilder {
	b.f.limit = n
	return b
}

// WithCommands keeps only status reports of matching commands.
func (b *CommandStatusFilterBuilder) WithCommands(filter *CommandFilter) *CommandStatusFilterBuilder {
	b.f.commands = filter
	return b
}

// WithCommandIDs keeps only status reports of the commands with the given
// internal IDs.
func (b *CommandStatusFilterBuilder) WithCommandIDs(ids ...BigID) *CommandStatusFilterBuilder {
	b.f.commands = NewCommandFilter().WithInternalIDs(ids...).Build()
	return b
}

// Build freezes and returns the filter.
func (b *CommandStatusFilterBuilder) Build() *CommandStatusFilter {
	f := b.f
	f.internalIDs = normBigIDs(f.internalIDs)
	f.statusCodes = normStatusCodes(f.statusCodes)
	return &f
}

func normStatusCodes(codes []CommandStatusCode) []CommandStatusCode {
	if len(codes) == 0 {
		return nil
	}
	out := slices.Clone(codes)
	slices.Sort(out)
	return slices.Compact(out)
}
