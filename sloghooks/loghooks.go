// Package sloghooks writes l2cache hook events to a *slog.Logger with
// sampling and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/l2cache"
	"github.com/unkn0wn-root/l2cache/store"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StoreFailureEvery uint64
	SelfHealEvery     uint64
	PutSkippedEvery   uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	storeFailureCtr atomic.Uint64
	selfHealCtr     atomic.Uint64
	putSkippedCtr   atomic.Uint64
}

var _ l2cache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if k == "" {
		return ""
	}
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StoreFailure(region string, op store.Op, key string, err error) {
	if h.l == nil || !sample(h.opts.StoreFailureEvery, &h.storeFailureCtr) {
		return
	}
	h.l.Warn("l2cache.store_failure",
		"region", region,
		"op", string(op),
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SelfHeal(region, key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("l2cache.self_heal",
		"region", region,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) PutSkipped(region, key, reason string) {
	if h.l == nil || !sample(h.opts.PutSkippedEvery, &h.putSkippedCtr) {
		return
	}
	h.l.Debug("l2cache.put_skipped",
		"region", region,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) LockExpired(region, key string) {
	if h.l == nil {
		return
	}
	h.l.Info("l2cache.lock_expired",
		"region", region,
		"key", h.redact(key))
}
