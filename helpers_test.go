package figh

import "reflect"

// Shared fixture types for the engine tests.

func typeOf(v interface{}) reflect.Type { return reflect.TypeOf(v) }

// Logger is a basic interface contract.
type Logger interface {
	Log(msg string)
}

type ConsoleLogger struct {
	Lines []string
}

func (c *ConsoleLogger) Log(msg string) {
	c.Lines = append(c.Lines, msg)
}

type FileLogger struct {
	Path string
}

func (f *FileLogger) Log(msg string) {}

// Store is a second contract for multi-dependency scenarios.
type Store interface {
	Get(key string) string
}

type MemStore struct {
	data map[string]string
}

func (m *MemStore) Get(key string) string {
	return m.data[key]
}

// ReportService has two constructor candidates of different richness.
type ReportService struct {
	Log   Logger
	Store Store
}

func NewReportService(log Logger, store Store) *ReportService {
	return &ReportService{Log: log, Store: store}
}

func NewReportServiceLite(log Logger) *ReportService {
	return &ReportService{Log: log}
}

// Handler fixtures exercise collection injection.
type Handler interface {
	Handle() string
}

type UserHandler struct{}

func (h *UserHandler) Handle() string { return "user" }

type AdminHandler struct{}

func (h *AdminHandler) Handle() string { return "admin" }

type AuditHandler struct{}

func (h *AuditHandler) Handle() string { return "audit" }

type Mux struct {
	Handlers []Handler
}

func NewMux(handlers []Handler) *Mux {
	return &Mux{Handlers: handlers}
}

// Notifier exercises property injection through inject tags.
type Notifier struct {
	Log      Logger      `inject:""`
	Handlers []Handler   `inject:""`
	Fallback *FileLogger `inject:"optional"`
	Ignored  *FileLogger `inject:"-"`
	Plain    *FileLogger
}

// Pager has a required property with no registration in most tests.
type Pager struct {
	Log Logger `inject:""`
}

// CycleA and CycleB form a true construction cycle.
type CycleA struct {
	B *CycleB
}

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }

type CycleB struct {
	A *CycleA
}

func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

// LoopA and LoopB form a cycle broken by a lazy edge.
type LoopA struct {
	B *LoopB
}

func NewLoopA(b *LoopB) *LoopA { return &LoopA{B: b} }

type LoopB struct {
	A func() *LoopA
}

func NewLoopB(a func() *LoopA) *LoopB { return &LoopB{A: a} }

// TenantAuditor is context-aware; AuditedService depends on it transitively.
type TenantAuditor struct {
	Tenant string
}

func NewTenantAuditor(ctx *ResolveContext) *TenantAuditor {
	tenant, _ := ctx.Extra("tenant").(string)
	return &TenantAuditor{Tenant: tenant}
}

type AuditedService struct {
	Auditor *TenantAuditor
}

func NewAuditedService(auditor *TenantAuditor) *AuditedService {
	return &AuditedService{Auditor: auditor}
}

// DeferredAudit holds a lazy edge to a context-aware node.
type DeferredAudit struct {
	Next func() *TenantAuditor
}

func NewDeferredAudit(next func() *TenantAuditor) *DeferredAudit {
	return &DeferredAudit{Next: next}
}

// Resource exercises the Initializable and Disposable lifecycle hooks.
type Resource struct {
	Initialized bool
	Disposed    bool
	initErr     error
}

func (r *Resource) Initialize() error {
	r.Initialized = true
	return r.initErr
}

func (r *Resource) Dispose() error {
	r.Disposed = true
	return nil
}

// Dashboard depends on a type that most tests leave unregistered.
type Dashboard struct {
	Feed *MetricsFeed
}

func NewDashboard(feed *MetricsFeed) *Dashboard { return &Dashboard{Feed: feed} }

type MetricsFeed struct{}

// Clock fixtures exercise late-bound singletons.
type Clock interface {
	Now() int64
}

type WallClock struct {
	Value int64
}

func (w *WallClock) Now() int64 { return w.Value }

// Settings is a prebuilt configuration value.
type Settings struct {
	DSN string
}

// Conn is produced by factory delegates.
type Conn struct {
	DSN string
}

// loggingProvider counts its applications to verify provider deduplication.
type loggingProvider struct {
	applied *int
}

func (p *loggingProvider) Register(b *Builder) error {
	*p.applied++
	return b.Register((*Logger)(nil), &ConsoleLogger{})
}

// flaggedProvider registers its store only when enabled.
type flaggedProvider struct {
	enabled bool
}

func (p *flaggedProvider) Register(b *Builder) error {
	return b.Register((*Store)(nil), &MemStore{})
}

func (p *flaggedProvider) ShouldRegister(b *Builder) bool {
	return p.enabled
}
