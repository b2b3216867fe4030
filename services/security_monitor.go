package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	failedLoginWindow    = 10 * time.Minute
	failedLoginThreshold = 5
	alertCooldown        = time.Hour
	maxAlerts            = 100
)

// SecurityMonitor aggregates failed logins per IP and raises alerts
type SecurityMonitor struct {
	log logrus.FieldLogger
	now func() time.Time

	mu           sync.Mutex
	failedLogins map[string][]time.Time // IP -> failure timestamps
	alertedIPs   map[string]time.Time   // IP -> last alert time
	alerts       []SecurityAlert        // newest first
}

// SecurityAlert is a triggered security alert
type SecurityAlert struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Reason    string    `json:"reason"`
	Level     string    `json:"level"`
}

// NewSecurityMonitor creates an empty monitor
func NewSecurityMonitor(log logrus.FieldLogger) *SecurityMonitor {
	return &SecurityMonitor{
		log:          log.WithField("service", "security"),
		now:          time.Now,
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
	}
}

// TrackFailedLogin records a failed login and reports whether it raised an alert
func (m *SecurityMonitor) TrackFailedLogin(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-failedLoginWindow)
	attempts := m.failedLogins[ip][:0]
	for _, t := range m.failedLogins[ip] {
		if t.After(windowStart) {
			attempts = append(attempts, t)
		}
	}
	attempts = append(attempts, now)
	m.failedLogins[ip] = attempts

	if len(attempts) < failedLoginThreshold {
		return false
	}
	return m.alertLocked(ip, "Multiple failed logins detected", now)
}

// at most one alert per IP and cooldown
func (m *SecurityMonitor) alertLocked(ip, reason string, now time.Time) bool {
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	m.alertedIPs[ip] = now

	alert := SecurityAlert{Timestamp: now, IP: ip, Reason: reason, Level: "CRITICAL"}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}

	m.log.WithFields(logrus.Fields{"ip": ip, "reason": reason}).Warn("[SECURITY ALERT]")
	return true
}

// RecentAlerts returns a copy of the alert history, newest first
func (m *SecurityMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	alerts := make([]SecurityAlert, len(m.alerts))
	copy(alerts, m.alerts)
	return alerts
}

// Run prunes stale entries every interval until ctx is cancelled
func (m *SecurityMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.prune()
		case <-ctx.Done():
			return
		}
	}
}

func (m *SecurityMonitor) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for ip, attempts := range m.failedLogins {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) > failedLoginWindow {
			delete(m.failedLogins, ip)
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) > alertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}
