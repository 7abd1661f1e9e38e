package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards calls to the exchange-rate provider. After FailureThreshold
// consecutive failures the breaker opens and callers fall back to the last
// persisted rate without waiting on the network. Once OpenTimeout elapses a
// single trial call is let through; SuccessThreshold successful trials close it.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned by Execute without calling fn.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that open the breaker (default 5)
	SuccessThreshold int           // successful trial calls needed to close it (default 2)
	OpenTimeout      time.Duration // time open before probing (default 60s)
}

// DefaultCBConfig is tuned for dolarapi: a few misses open it and it tries
// again after two minutes, well inside the rate TTL.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "dolar_api",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      2 * time.Minute,
	}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       CBState
	consecutive int // failures while closed, successes while half-open
	abiertoEn   time.Time
	sondeando   bool // a half-open trial call is in flight
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// State reports the current state, moving open → half-open when the timeout
// has elapsed. Used by /health and the rate refresh cron.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.vencerApertura()
	return cb.state
}

// Execute runs fn unless the breaker is open or a trial call is already running.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.permitir() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.registrar(err)
	return err
}

func (cb *CircuitBreaker) permitir() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.vencerApertura()
	switch cb.state {
	case CBOpen:
		return false
	case CBHalfOpen:
		if cb.sondeando {
			return false
		}
		cb.sondeando = true
	}
	return true
}

func (cb *CircuitBreaker) registrar(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CBHalfOpen {
		cb.sondeando = false
		if err != nil {
			cb.abrir()
			return
		}
		cb.consecutive++
		if cb.consecutive >= cb.cfg.SuccessThreshold {
			cb.pasarA(CBClosed)
		}
		return
	}

	if err == nil {
		cb.consecutive = 0
		return
	}
	cb.consecutive++
	if cb.consecutive >= cb.cfg.FailureThreshold {
		cb.abrir()
	}
}

// must be called under lock
func (cb *CircuitBreaker) vencerApertura() {
	if cb.state == CBOpen && cb.now().Sub(cb.abiertoEn) >= cb.cfg.OpenTimeout {
		cb.pasarA(CBHalfOpen)
	}
}

func (cb *CircuitBreaker) abrir() {
	cb.abiertoEn = cb.now()
	cb.pasarA(CBOpen)
}

func (cb *CircuitBreaker) pasarA(s CBState) {
	if cb.state == s {
		return
	}
	prev := cb.state
	cb.state = s
	cb.consecutive = 0
	cb.sondeando = false

	ev := log.Info()
	if s == CBOpen {
		ev = log.Warn().Dur("reintento_en", cb.cfg.OpenTimeout)
	}
	ev.Str("breaker", cb.cfg.Name).Str("from", prev.String()).Str("to", s.String()).Msg("circuit breaker state change")
}
